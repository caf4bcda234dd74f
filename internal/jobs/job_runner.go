package jobs

import (
	"time"

	"stockledger-backend/internal/config"
	"stockledger-backend/internal/logger"
	"stockledger-backend/internal/repository"
	"stockledger-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	items    repository.ItemRepository
	services *Services
	config   *config.Config
	now      func() time.Time
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Notifier service.ThresholdNotifier
	Alerts   service.StockAlertService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(items repository.ItemRepository, services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		items:    items,
		services: services,
		config:   cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	log := logger.WithComponent(jobName)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Job panicked", "panic", r)
		}
	}()

	start := time.Now()
	log.Info("Starting job")
	jobFunc()
	log.Info("Job completed", "duration", time.Since(start))
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.LowStockSweep()
	jr.PurgeStaleAlerts()
}
