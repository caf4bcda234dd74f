package service

import (
	"context"
	"time"

	"stockledger-backend/internal/domain"
)

// AllocationService is the ledger core. Every mutation runs in one database
// transaction that covers the allocation row and the item's stock level.
type AllocationService interface {
	Issue(ctx context.Context, req domain.IssueRequest) (*domain.Allocation, error)
	Amend(ctx context.Context, allocationID int32, changes domain.AllocationChanges) (*domain.Allocation, error)
	// Delete returns the number of allocations removed, 0 or 1.
	Delete(ctx context.Context, allocationID int32) (int64, error)
	MarkExhausted(ctx context.Context, allocationID int32, reason *string) (*domain.Allocation, error)
}

type AllocationQueryService interface {
	List(ctx context.Context, filter domain.AllocationFilter) ([]domain.AllocationView, int32, error)
	Get(ctx context.Context, allocationID int32) (*domain.AllocationView, error)
}

type StockAlertService interface {
	ListAlerts(ctx context.Context, page, pageSize int32) ([]domain.StockAlert, int32, error)
	Acknowledge(ctx context.Context, alertID int32) error
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ThresholdNotifier decides whether an item snapshot warrants a low-stock
// alert and delivers it. Callers never let its error affect their own result.
type ThresholdNotifier interface {
	NotifyIfBelowThreshold(ctx context.Context, item domain.Item, reason string) error
}
