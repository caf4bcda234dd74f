package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Notifier  NotifierConfig  `yaml:"notifier"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains gRPC and HTTP listener settings
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`      // gRPC
	HTTPPort int    `yaml:"http_port"` // 0 disables the HTTP listener
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	EnsureSchema bool   `yaml:"ensure_schema"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// LedgerConfig contains allocation ledger settings
type LedgerConfig struct {
	NotifyTimeoutSeconds int `yaml:"notify_timeout_seconds"`
}

// NotifyTimeout is the upper bound on a single post-commit threshold check.
func (l LedgerConfig) NotifyTimeout() time.Duration {
	return time.Duration(l.NotifyTimeoutSeconds) * time.Second
}

// NotifierConfig contains low-stock alert delivery settings
type NotifierConfig struct {
	CooldownMinutes    int            `yaml:"cooldown_minutes"`
	InboxEnabled       bool           `yaml:"inbox_enabled"`
	AlertRetentionDays int            `yaml:"alert_retention_days"`
	Redis              RedisConfig    `yaml:"redis"`
	SendGrid           SendGridConfig `yaml:"sendgrid"`
	FCM                FCMConfig      `yaml:"fcm"`
}

// Cooldown is the minimum gap between two alerts for the same item.
func (n NotifierConfig) Cooldown() time.Duration {
	return time.Duration(n.CooldownMinutes) * time.Minute
}

// RedisConfig enables the shared alert cooldown when Addr is set
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SendGridConfig enables the email channel when APIKey is set
type SendGridConfig struct {
	APIKey     string   `yaml:"api_key"`
	FromEmail  string   `yaml:"from_email"`
	FromName   string   `yaml:"from_name"`
	Recipients []string `yaml:"recipients"`
}

// FCMConfig enables the push channel when CredentialsFile is set
type FCMConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	Topic           string `yaml:"topic"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	LowStockSweep    string `yaml:"low_stock_sweep"`
	PurgeStaleAlerts string `yaml:"purge_stale_alerts"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if present
	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}
	if val := os.Getenv("HTTP_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.HTTPPort)
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Notifier
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Notifier.SendGrid.APIKey = val
	}
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Notifier.Redis.Addr = val
	}
	if val := os.Getenv("FCM_CREDENTIALS_FILE"); val != "" {
		c.Notifier.FCM.CredentialsFile = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.HTTPPort < 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port: %d", c.Server.HTTPPort)
	}
	if c.Server.HTTPPort != 0 && c.Server.HTTPPort == c.Server.Port {
		return fmt.Errorf("http port must differ from grpc port %d", c.Server.Port)
	}

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 20
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	// Ledger defaults
	if c.Ledger.NotifyTimeoutSeconds <= 0 {
		c.Ledger.NotifyTimeoutSeconds = 10
	}

	// Notifier validation
	if c.Notifier.CooldownMinutes < 0 {
		return fmt.Errorf("notifier cooldown must not be negative: %d", c.Notifier.CooldownMinutes)
	}
	if c.Notifier.CooldownMinutes == 0 {
		c.Notifier.CooldownMinutes = 60
	}
	if c.Notifier.AlertRetentionDays <= 0 {
		c.Notifier.AlertRetentionDays = 90
	}
	if c.Notifier.SendGrid.APIKey != "" {
		if c.Notifier.SendGrid.FromEmail == "" {
			return fmt.Errorf("sendgrid from_email is required when api_key is set")
		}
		if len(c.Notifier.SendGrid.Recipients) == 0 {
			return fmt.Errorf("sendgrid recipients are required when api_key is set")
		}
	}
	if c.Notifier.FCM.CredentialsFile != "" && c.Notifier.FCM.Topic == "" {
		c.Notifier.FCM.Topic = "low-stock"
	}

	// Scheduler defaults
	if c.Scheduler.LowStockSweep == "" {
		c.Scheduler.LowStockSweep = "0 0 * * * *" // hourly
	}
	if c.Scheduler.PurgeStaleAlerts == "" {
		c.Scheduler.PurgeStaleAlerts = "0 30 3 * * *" // 3:30 AM UTC
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the gRPC server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetHTTPAddress returns the HTTP server address
func (c *Config) GetHTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}
