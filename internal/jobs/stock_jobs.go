package jobs

import (
	"context"
	"time"

	"stockledger-backend/internal/domain"
	"stockledger-backend/internal/logger"
)

// LowStockSweep re-checks every active item already at or below its minimum.
// It catches items whose post-commit check was lost, and items whose stock
// was lowered outside the ledger. The notifier's cooldown keeps it from
// repeating alerts raised by recent ledger operations.
func (jr *JobRunner) LowStockSweep() {
	jr.runWithRecovery("LowStockSweep", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		items, err := jr.items.ListLowStock(ctx)
		if err != nil {
			logger.Error("Failed to list low stock items", "error", err)
			return
		}

		notified := 0
		for _, item := range items {
			if err := jr.services.Notifier.NotifyIfBelowThreshold(ctx, item, domain.ReasonScheduledSweep); err != nil {
				logger.Error("Failed to notify low stock",
					"item_id", item.ID,
					"stock_level", item.StockLevel,
					"minimum_threshold", item.MinimumThreshold,
					"error", err)
				continue
			}
			notified++
		}

		logger.Info("Low stock sweep finished", "items_below_threshold", len(items), "checked", notified)
	})
}

// PurgeStaleAlerts removes inbox alerts older than the configured retention.
func (jr *JobRunner) PurgeStaleAlerts() {
	jr.runWithRecovery("PurgeStaleAlerts", func() {
		ctx := context.Background()

		days := jr.config.Notifier.AlertRetentionDays
		cutoff := jr.now().AddDate(0, 0, -days)

		n, err := jr.services.Alerts.PurgeOlderThan(ctx, cutoff)
		if err != nil {
			logger.Error("Failed to purge stale alerts", "cutoff", cutoff, "error", err)
			return
		}
		logger.Info("Purged stale alerts", "deleted", n, "retention_days", days)
	})
}
