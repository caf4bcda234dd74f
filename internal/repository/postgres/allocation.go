package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"stockledger-backend/internal/domain"
	"stockledger-backend/internal/logger"
	"stockledger-backend/internal/repository"

	"github.com/lib/pq"
)

const allocationColumns = `a.id, a.item_id, a.quantity, a.issued_at, a.is_active, a.is_exhausted,
	a.exhaustion_reason, a.exhausted_at, a.note, a.created_at, a.updated_at`

const allocationViewColumns = allocationColumns + `, i.id, i.name, i.minimum_threshold, i.stock_level`

type allocationRepository struct {
	db DBTX
}

func NewAllocationRepository(db DBTX) repository.AllocationRepository {
	return &allocationRepository{db: db}
}

func allocationDest(a *domain.Allocation) []any {
	return []any{&a.ID, &a.ItemID, &a.Quantity, &a.IssuedAt, &a.IsActive, &a.IsExhausted,
		&a.ExhaustionReason, &a.ExhaustedAt, &a.Note, &a.CreatedAt, &a.UpdatedAt}
}

func scanAllocationView(row rowScanner, v *domain.AllocationView) error {
	dest := append(allocationDest(&v.Allocation), &v.Item.ID, &v.Item.Name, &v.Item.MinimumThreshold, &v.Item.StockLevel)
	return row.Scan(dest...)
}

func (r *allocationRepository) Create(ctx context.Context, a *domain.Allocation) error {
	logger.EnterMethod("allocationRepository.Create", "itemID", a.ItemID, "quantity", a.Quantity)

	query := `INSERT INTO allocations (item_id, quantity, issued_at, is_active, is_exhausted, exhaustion_reason, exhausted_at, note, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	          RETURNING id, created_at, updated_at`
	logger.DatabaseCall("INSERT", "allocations", "itemID", a.ItemID)

	err := r.db.QueryRowContext(ctx, query,
		a.ItemID, a.Quantity, a.IssuedAt, a.IsActive, a.IsExhausted, a.ExhaustionReason, a.ExhaustedAt, a.Note, time.Now().UTC(),
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "allocationID", a.ID)

	if err != nil {
		logger.ExitMethodWithError("allocationRepository.Create", err, "itemID", a.ItemID)
		return fmt.Errorf("inserting allocation: %w", err)
	}
	logger.ExitMethod("allocationRepository.Create", "allocationID", a.ID)
	return nil
}

func (r *allocationRepository) GetByID(ctx context.Context, id int32) (*domain.Allocation, error) {
	return r.get(ctx, id, "")
}

func (r *allocationRepository) GetForUpdate(ctx context.Context, id int32) (*domain.Allocation, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *allocationRepository) get(ctx context.Context, id int32, lock string) (*domain.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations a WHERE a.id = $1` + lock
	logger.DatabaseCall("SELECT", "allocations", "allocationID", id, "locking", lock != "")

	a := &domain.Allocation{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(allocationDest(a)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAllocationNotFound
	}
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err, "allocationID", id)
		return nil, fmt.Errorf("getting allocation %d: %w", id, err)
	}
	logger.DatabaseResult("SELECT", 1, nil, "allocationID", id)
	return a, nil
}

// Update persists every mutable field. item_id is never written.
func (r *allocationRepository) Update(ctx context.Context, a *domain.Allocation) error {
	logger.EnterMethod("allocationRepository.Update", "allocationID", a.ID)

	query := `UPDATE allocations SET
	              quantity = $1,
	              is_active = $2,
	              is_exhausted = $3,
	              exhaustion_reason = $4,
	              exhausted_at = $5,
	              note = $6,
	              updated_at = $7
	          WHERE id = $8
	          RETURNING updated_at`
	logger.DatabaseCall("UPDATE", "allocations", "allocationID", a.ID)

	err := r.db.QueryRowContext(ctx, query,
		a.Quantity, a.IsActive, a.IsExhausted, a.ExhaustionReason, a.ExhaustedAt, a.Note, time.Now().UTC(), a.ID,
	).Scan(&a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		logger.ExitMethodWithError("allocationRepository.Update", domain.ErrAllocationNotFound, "allocationID", a.ID)
		return domain.ErrAllocationNotFound
	}
	logger.DatabaseResult("UPDATE", 1, err, "allocationID", a.ID)
	if err != nil {
		logger.ExitMethodWithError("allocationRepository.Update", err, "allocationID", a.ID)
		return fmt.Errorf("updating allocation %d: %w", a.ID, err)
	}
	logger.ExitMethod("allocationRepository.Update", "allocationID", a.ID)
	return nil
}

func (r *allocationRepository) Delete(ctx context.Context, id int32) (int64, error) {
	logger.DatabaseCall("DELETE", "allocations", "allocationID", id)
	result, err := r.db.ExecContext(ctx, `DELETE FROM allocations WHERE id = $1`, id)
	if err != nil {
		logger.DatabaseResult("DELETE", 0, err, "allocationID", id)
		return 0, fmt.Errorf("deleting allocation %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting allocation %d: %w", id, err)
	}
	logger.DatabaseResult("DELETE", n, nil, "allocationID", id)
	return n, nil
}

func (r *allocationRepository) GetView(ctx context.Context, id int32) (*domain.AllocationView, error) {
	query := `SELECT ` + allocationViewColumns + `
	          FROM allocations a JOIN items i ON i.id = a.item_id
	          WHERE a.id = $1`
	logger.DatabaseCall("SELECT", "allocations JOIN items", "allocationID", id)

	v := &domain.AllocationView{}
	err := scanAllocationView(r.db.QueryRowContext(ctx, query, id), v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAllocationNotFound
	}
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err, "allocationID", id)
		return nil, fmt.Errorf("getting allocation view %d: %w", id, err)
	}
	logger.DatabaseResult("SELECT", 1, nil, "allocationID", id)
	return v, nil
}

func (r *allocationRepository) List(ctx context.Context, filter domain.AllocationFilter) ([]domain.AllocationView, int32, error) {
	logger.EnterMethod("allocationRepository.List", "itemIDs", filter.ItemIDs, "page", filter.Page, "pageSize", filter.PageSize)
	filter.Normalize()

	var conds []string
	var args []any
	argIdx := 1

	if len(filter.ItemIDs) > 0 {
		conds = append(conds, fmt.Sprintf("a.item_id = ANY($%d)", argIdx))
		args = append(args, pq.Array(filter.ItemIDs))
		argIdx++
	}
	if filter.IsActive != nil {
		conds = append(conds, fmt.Sprintf("a.is_active = $%d", argIdx))
		args = append(args, *filter.IsActive)
		argIdx++
	}
	if filter.IsExhausted != nil {
		conds = append(conds, fmt.Sprintf("a.is_exhausted = $%d", argIdx))
		args = append(args, *filter.IsExhausted)
		argIdx++
	}
	if filter.IssuedFrom != nil {
		conds = append(conds, fmt.Sprintf("a.issued_at >= $%d", argIdx))
		args = append(args, *filter.IssuedFrom)
		argIdx++
	}
	if filter.IssuedTo != nil {
		conds = append(conds, fmt.Sprintf("a.issued_at < $%d", argIdx))
		args = append(args, *filter.IssuedTo)
		argIdx++
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var count int32
	countQuery := `SELECT count(*) FROM allocations a` + where
	logger.DatabaseCall("SELECT", "count allocations")
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		logger.ExitMethodWithError("allocationRepository.List", err)
		return nil, 0, fmt.Errorf("counting allocations: %w", err)
	}

	query := `SELECT ` + allocationViewColumns + `
	          FROM allocations a JOIN items i ON i.id = a.item_id` + where +
		fmt.Sprintf(" ORDER BY a.issued_at DESC, a.id DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, filter.PageSize, filter.Offset())

	logger.DatabaseCall("SELECT", "allocations JOIN items")
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.ExitMethodWithError("allocationRepository.List", err)
		return nil, 0, fmt.Errorf("listing allocations: %w", err)
	}
	defer rows.Close()

	views := []domain.AllocationView{}
	for rows.Next() {
		var v domain.AllocationView
		if err := scanAllocationView(rows, &v); err != nil {
			logger.ExitMethodWithError("allocationRepository.List", err)
			return nil, 0, fmt.Errorf("scanning allocation: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating allocations: %w", err)
	}

	logger.ExitMethod("allocationRepository.List", "count", len(views), "total", count)
	return views, count, nil
}
