// Package notifier delivers low-stock alerts raised after ledger commits and
// by the scheduled sweep.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockledger-backend/internal/domain"
	"stockledger-backend/internal/logger"

	"github.com/google/uuid"
)

// Channel is one delivery route for a stock alert.
type Channel interface {
	Name() string
	Send(ctx context.Context, alert domain.StockAlert) error
}

// Cooldown suppresses repeat alerts for the same item. Acquire returns false
// while an earlier alert for the item is still cooling down.
type Cooldown interface {
	Acquire(ctx context.Context, itemID int32) (bool, error)
}

type ThresholdNotifier struct {
	cooldown Cooldown
	channels []Channel
	newID    func() string
	now      func() time.Time
}

func NewThresholdNotifier(cooldown Cooldown, channels ...Channel) *ThresholdNotifier {
	if cooldown == nil {
		cooldown = NoopCooldown{}
	}
	return &ThresholdNotifier{
		cooldown: cooldown,
		channels: channels,
		newID:    uuid.NewString,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// NotifyIfBelowThreshold sends an alert to every channel when the item is at
// or below its minimum. Channel failures are joined; one failing channel does
// not stop the others.
func (n *ThresholdNotifier) NotifyIfBelowThreshold(ctx context.Context, item domain.Item, reason string) error {
	if !item.AtOrBelowThreshold() {
		return nil
	}

	ok, err := n.cooldown.Acquire(ctx, item.ID)
	if err != nil {
		// A broken cooldown store must not hide a stock-out.
		logger.Warn("Alert cooldown unavailable, sending anyway", "itemID", item.ID, "error", err)
		ok = true
	}
	if !ok {
		logger.Debug("Stock alert suppressed by cooldown", "itemID", item.ID, "reason", reason)
		return nil
	}

	alert := domain.StockAlert{
		CorrelationID:    n.newID(),
		ItemID:           item.ID,
		ItemName:         item.Name,
		StockLevel:       item.StockLevel,
		MinimumThreshold: item.MinimumThreshold,
		Reason:           reason,
		CreatedAt:        n.now(),
	}
	logger.StockAlert(item.ID, item.Name, item.StockLevel, item.MinimumThreshold, "reason", reason, "correlationID", alert.CorrelationID)

	var errs []error
	for _, ch := range n.channels {
		logger.ExternalServiceCall(ch.Name(), "Send", "itemID", item.ID, "correlationID", alert.CorrelationID)
		err := ch.Send(ctx, alert)
		logger.ExternalServiceResult(ch.Name(), "Send", err, "itemID", item.ID, "correlationID", alert.CorrelationID)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func subject(alert domain.StockAlert) string {
	return fmt.Sprintf("Low stock: %s (%d left, minimum %d)", alert.ItemName, alert.StockLevel, alert.MinimumThreshold)
}

func body(alert domain.StockAlert) string {
	return fmt.Sprintf("Item %q (#%d) is at %d units, at or below its minimum threshold of %d.\nTrigger: %s\nReference: %s",
		alert.ItemName, alert.ItemID, alert.StockLevel, alert.MinimumThreshold, alert.Reason, alert.CorrelationID)
}
