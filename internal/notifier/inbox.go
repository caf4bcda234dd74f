package notifier

import (
	"context"

	"stockledger-backend/internal/domain"
	"stockledger-backend/internal/repository"
)

// InboxChannel records alerts in the stock_alerts table so operators can list
// and acknowledge them.
type InboxChannel struct {
	repo repository.StockAlertRepository
}

func NewInboxChannel(repo repository.StockAlertRepository) *InboxChannel {
	return &InboxChannel{repo: repo}
}

func (c *InboxChannel) Name() string { return "inbox" }

func (c *InboxChannel) Send(ctx context.Context, alert domain.StockAlert) error {
	return c.repo.Create(ctx, &alert)
}
