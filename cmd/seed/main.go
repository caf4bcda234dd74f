package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	"gopkg.in/yaml.v3"

	"stockledger-backend/internal/config"
	"stockledger-backend/internal/domain"
	"stockledger-backend/internal/logger"
	"stockledger-backend/internal/repository"
	"stockledger-backend/internal/repository/postgres"
	"stockledger-backend/internal/security"
)

// CatalogItem is one item entry of the catalog file
type CatalogItem struct {
	Name             string `yaml:"name"`
	UsageType        string `yaml:"usage_type"`
	IsActive         *bool  `yaml:"is_active"`
	StockLevel       int32  `yaml:"stock_level"`
	MinimumThreshold int32  `yaml:"minimum_threshold"`
}

type Catalog struct {
	Items []CatalogItem `yaml:"items"`
}

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	catalogPath := flag.String("catalog", "config/catalog.dev.yaml", "Path to catalog file")
	tokenUser := flag.Int("token-user", 0, "If set, print a ledger:write access token for this user ID")
	flag.Parse()

	cfg, err := config.Load(resolvePath(*configPath))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	catalog, err := readCatalog(resolvePath(*catalogPath))
	if err != nil {
		log.Fatalf("Failed to read catalog: %v", err)
	}

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Printf("✓ Connected to database: %s@%s:%d/%s",
		cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	if err := populateCatalog(ctx, postgres.NewItemRepository(db), catalog); err != nil {
		log.Fatalf("Failed to populate catalog: %v", err)
	}
	log.Printf("✅ Catalog populated with %d items", len(catalog.Items))

	if *tokenUser > 0 {
		tm := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
		token, err := tm.GenerateAccessToken(int32(*tokenUser), "", []string{config.PermissionLedgerWrite})
		if err != nil {
			log.Fatalf("Failed to generate token: %v", err)
		}
		fmt.Println(token)
	}
}

func readCatalog(filename string) (*Catalog, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// toDomain validates a catalog entry. Items default to active.
func (c CatalogItem) toDomain() (*domain.Item, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("catalog item without a name")
	}
	usage := domain.UsageType(c.UsageType)
	switch usage {
	case domain.UsageTypeInternal, domain.UsageTypeDirectSale, domain.UsageTypeOther:
	case "":
		usage = domain.UsageTypeInternal
	default:
		return nil, fmt.Errorf("item %q: unknown usage_type %q", c.Name, c.UsageType)
	}
	if c.StockLevel < 0 || c.MinimumThreshold < 0 {
		return nil, fmt.Errorf("item %q: stock_level and minimum_threshold must not be negative", c.Name)
	}

	active := true
	if c.IsActive != nil {
		active = *c.IsActive
	}
	return &domain.Item{
		Name:             c.Name,
		UsageType:        usage,
		IsActive:         active,
		StockLevel:       c.StockLevel,
		MinimumThreshold: c.MinimumThreshold,
	}, nil
}

func populateCatalog(ctx context.Context, items repository.ItemRepository, catalog *Catalog) error {
	for _, entry := range catalog.Items {
		item, err := entry.toDomain()
		if err != nil {
			return err
		}
		if err := items.Upsert(ctx, item); err != nil {
			return err
		}
		log.Printf("  ✓ %s (id=%d, stock=%d, min=%d)", item.Name, item.ID, item.StockLevel, item.MinimumThreshold)
	}
	return nil
}

func resolvePath(path string) string {
	// Try the path as-is first
	if _, err := os.Stat(path); err == nil {
		return path
	}

	// Try from project root
	fullPath := filepath.Join(findProjectRoot(), path)
	if _, err := os.Stat(fullPath); err == nil {
		return fullPath
	}

	// Return original path and let it fail with a clear error
	return path
}

func findProjectRoot() string {
	// Look for go.mod to identify project root
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "."
}
