package postgres

import (
	"context"
	"fmt"
	"time"

	"stockledger-backend/internal/domain"
	"stockledger-backend/internal/logger"
	"stockledger-backend/internal/repository"
)

type stockAlertRepository struct {
	db DBTX
}

func NewStockAlertRepository(db DBTX) repository.StockAlertRepository {
	return &stockAlertRepository{db: db}
}

func (r *stockAlertRepository) Create(ctx context.Context, n *domain.StockAlert) error {
	logger.EnterMethod("stockAlertRepository.Create", "itemID", n.ItemID, "reason", n.Reason)

	query := `INSERT INTO stock_alerts (correlation_id, item_id, item_name, stock_level, minimum_threshold, reason, is_acknowledged, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	logger.DatabaseCall("INSERT", "stock_alerts", "itemID", n.ItemID, "correlationID", n.CorrelationID)

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	err := r.db.QueryRowContext(ctx, query, n.CorrelationID, n.ItemID, n.ItemName, n.StockLevel, n.MinimumThreshold, n.Reason, n.IsAcknowledged, n.CreatedAt).Scan(&n.ID)
	logger.DatabaseResult("INSERT", 1, err, "alertID", n.ID)

	if err != nil {
		logger.ExitMethodWithError("stockAlertRepository.Create", err, "itemID", n.ItemID)
		return fmt.Errorf("inserting stock alert: %w", err)
	}
	logger.ExitMethod("stockAlertRepository.Create", "alertID", n.ID)
	return nil
}

func (r *stockAlertRepository) List(ctx context.Context, limit, offset int32) ([]domain.StockAlert, int32, error) {
	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM stock_alerts`).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("counting stock alerts: %w", err)
	}

	query := `SELECT id, correlation_id, item_id, item_name, stock_level, minimum_threshold, reason, is_acknowledged, acknowledged_at, created_at
	          FROM stock_alerts ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing stock alerts: %w", err)
	}
	defer rows.Close()

	alerts := []domain.StockAlert{}
	for rows.Next() {
		var n domain.StockAlert
		if err := rows.Scan(&n.ID, &n.CorrelationID, &n.ItemID, &n.ItemName, &n.StockLevel, &n.MinimumThreshold, &n.Reason, &n.IsAcknowledged, &n.AcknowledgedAt, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning stock alert: %w", err)
		}
		alerts = append(alerts, n)
	}
	return alerts, count, rows.Err()
}

func (r *stockAlertRepository) Acknowledge(ctx context.Context, id int32) error {
	query := `UPDATE stock_alerts SET is_acknowledged = TRUE, acknowledged_at = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("acknowledging stock alert %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrStockAlertNotFound
	}
	return nil
}

func (r *stockAlertRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	logger.DatabaseCall("DELETE", "stock_alerts", "cutoff", cutoff)
	result, err := r.db.ExecContext(ctx, `DELETE FROM stock_alerts WHERE created_at < $1`, cutoff)
	if err != nil {
		logger.DatabaseResult("DELETE", 0, err)
		return 0, fmt.Errorf("purging stock alerts: %w", err)
	}
	n, err := result.RowsAffected()
	logger.DatabaseResult("DELETE", n, err)
	return n, err
}
