package repository

import (
	"context"
	"time"

	"stockledger-backend/internal/domain"
)

// ItemRepository is the ledger's view of the item catalog.
type ItemRepository interface {
	GetByID(ctx context.Context, id int32) (*domain.Item, error)
	// ApplyStockDelta atomically adds delta to the item's stock level and
	// returns the updated item. It fails with *domain.InsufficientStockError
	// instead of committing a negative level.
	ApplyStockDelta(ctx context.Context, id int32, delta int32) (*domain.Item, error)
	ListLowStock(ctx context.Context) ([]domain.Item, error)
	Upsert(ctx context.Context, item *domain.Item) error
}

type AllocationRepository interface {
	Create(ctx context.Context, a *domain.Allocation) error
	GetByID(ctx context.Context, id int32) (*domain.Allocation, error)
	// GetForUpdate loads the allocation and locks its row until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int32) (*domain.Allocation, error)
	Update(ctx context.Context, a *domain.Allocation) error
	Delete(ctx context.Context, id int32) (int64, error)

	GetView(ctx context.Context, id int32) (*domain.AllocationView, error)
	List(ctx context.Context, filter domain.AllocationFilter) ([]domain.AllocationView, int32, error)
}

type StockAlertRepository interface {
	Create(ctx context.Context, alert *domain.StockAlert) error
	List(ctx context.Context, limit, offset int32) ([]domain.StockAlert, int32, error)
	Acknowledge(ctx context.Context, id int32) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// TxRepositories are bound to one database transaction.
type TxRepositories struct {
	Items       ItemRepository
	Allocations AllocationRepository
}

// Transactor runs fn inside a single database transaction. The transaction
// commits only if fn returns nil; any error or panic rolls it back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error
}
