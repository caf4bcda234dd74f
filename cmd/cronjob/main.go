package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"stockledger-backend/internal/config"
	"stockledger-backend/internal/jobs"
	"stockledger-backend/internal/logger"
	"stockledger-backend/internal/notifier"
	"stockledger-backend/internal/repository/postgres"
	"stockledger-backend/internal/scheduler"
	"stockledger-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'low-stock-sweep', 'purge-stale-alerts', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Stock Ledger Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Services
	thresholdNotifier, closeNotifier, err := notifier.FromConfig(context.Background(), cfg.Notifier, store.StockAlertRepository)
	if err != nil {
		logger.Error("Failed to initialize notifier", "error", err)
		log.Fatalf("Failed to initialize notifier: %v", err)
	}
	defer closeNotifier()

	jobServices := &jobs.Services{
		Notifier: thresholdNotifier,
		Alerts:   service.NewStockAlertService(store.StockAlertRepository),
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(store.ItemRepository, jobServices, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		logger.Error("Failed to initialize scheduler", "error", err)
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "low-stock-sweep":
		jobRunner.LowStockSweep()
	case "purge-stale-alerts":
		jobRunner.PurgeStaleAlerts()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - low-stock-sweep\n")
		fmt.Printf("  - purge-stale-alerts\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}
