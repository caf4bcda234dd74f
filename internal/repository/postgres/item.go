package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stockledger-backend/internal/domain"
	"stockledger-backend/internal/logger"
	"stockledger-backend/internal/repository"

	"github.com/lib/pq"
)

const checkViolation = "23514"

const itemColumns = `id, name, usage_type, is_active, stock_level, minimum_threshold, created_at, updated_at`

type itemRepository struct {
	db DBTX
}

func NewItemRepository(db DBTX) repository.ItemRepository {
	return &itemRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner, it *domain.Item) error {
	return row.Scan(&it.ID, &it.Name, &it.UsageType, &it.IsActive, &it.StockLevel, &it.MinimumThreshold, &it.CreatedAt, &it.UpdatedAt)
}

func (r *itemRepository) GetByID(ctx context.Context, id int32) (*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	logger.DatabaseCall("SELECT", "items", "itemID", id)

	it := &domain.Item{}
	err := scanItem(r.db.QueryRowContext(ctx, query, id), it)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err, "itemID", id)
		return nil, fmt.Errorf("getting item %d: %w", id, err)
	}
	logger.DatabaseResult("SELECT", 1, nil, "itemID", id)
	return it, nil
}

// ApplyStockDelta relies on the row lock taken by UPDATE: concurrent callers
// against the same item queue behind each other and re-evaluate the guard
// against the committed level.
func (r *itemRepository) ApplyStockDelta(ctx context.Context, id int32, delta int32) (*domain.Item, error) {
	logger.EnterMethod("itemRepository.ApplyStockDelta", "itemID", id, "delta", delta)

	query := `UPDATE items SET stock_level = stock_level + $1, updated_at = $2
	          WHERE id = $3 AND stock_level + $1 >= 0
	          RETURNING ` + itemColumns
	logger.DatabaseCall("UPDATE", "items.stock_level", "itemID", id, "delta", delta)

	it := &domain.Item{}
	err := scanItem(r.db.QueryRowContext(ctx, query, delta, time.Now().UTC(), id), it)
	if err == nil {
		logger.DatabaseResult("UPDATE", 1, nil, "itemID", id, "stockLevel", it.StockLevel)
		logger.ExitMethod("itemRepository.ApplyStockDelta", "itemID", id, "stockLevel", it.StockLevel)
		return it, nil
	}

	var pqErr *pq.Error
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = r.explainRejectedDelta(ctx, id, delta)
	case errors.As(err, &pqErr) && pqErr.Code == checkViolation:
		err = fmt.Errorf("stock level check for item %d: %w", id, domain.ErrConflict)
	default:
		logger.DatabaseResult("UPDATE", 0, err, "itemID", id)
		err = fmt.Errorf("applying stock delta to item %d: %w", id, err)
	}
	logger.ExitMethodWithError("itemRepository.ApplyStockDelta", err, "itemID", id)
	return nil, err
}

// explainRejectedDelta tells a missing item apart from a shortfall after the
// guarded UPDATE matched no row.
func (r *itemRepository) explainRejectedDelta(ctx context.Context, id int32, delta int32) error {
	var name string
	var stock int32
	err := r.db.QueryRowContext(ctx, `SELECT name, stock_level FROM items WHERE id = $1`, id).Scan(&name, &stock)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrItemNotFound
	}
	if err != nil {
		return fmt.Errorf("reading stock level of item %d: %w", id, err)
	}
	return &domain.InsufficientStockError{
		ItemID:    id,
		ItemName:  name,
		Available: stock,
		Requested: -delta,
	}
}

func (r *itemRepository) ListLowStock(ctx context.Context) ([]domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items
	          WHERE is_active = TRUE AND stock_level <= minimum_threshold
	          ORDER BY id`
	logger.DatabaseCall("SELECT", "items low stock")

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, fmt.Errorf("listing low stock items: %w", err)
	}
	defer rows.Close()

	items := []domain.Item{}
	for rows.Next() {
		var it domain.Item
		if err := scanItem(rows, &it); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}
	logger.DatabaseResult("SELECT", int64(len(items)), nil)
	return items, nil
}

// Upsert writes catalog fields keyed by item name. Only catalog seeding uses
// it; ledger operations never overwrite stock_level.
func (r *itemRepository) Upsert(ctx context.Context, it *domain.Item) error {
	query := `INSERT INTO items (name, usage_type, is_active, stock_level, minimum_threshold, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $6)
	          ON CONFLICT (name) DO UPDATE SET
	              usage_type = EXCLUDED.usage_type,
	              is_active = EXCLUDED.is_active,
	              stock_level = EXCLUDED.stock_level,
	              minimum_threshold = EXCLUDED.minimum_threshold,
	              updated_at = EXCLUDED.updated_at
	          RETURNING id, created_at, updated_at`
	logger.DatabaseCall("UPSERT", "items", "name", it.Name)

	err := r.db.QueryRowContext(ctx, query, it.Name, it.UsageType, it.IsActive, it.StockLevel, it.MinimumThreshold, time.Now().UTC()).
		Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
	logger.DatabaseResult("UPSERT", 1, err, "name", it.Name)
	if err != nil {
		return fmt.Errorf("upserting item %q: %w", it.Name, err)
	}
	return nil
}
