package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"stockledger-backend/internal/logger"
	"stockledger-backend/internal/repository"

	_ "github.com/lib/pq"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories can run
// standalone or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	repository.ItemRepository
	repository.AllocationRepository
	repository.StockAlertRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                   db,
		ItemRepository:       NewItemRepository(db),
		AllocationRepository: NewAllocationRepository(db),
		StockAlertRepository: NewStockAlertRepository(db),
	}
}

// WithinTx implements repository.Transactor.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepositories) error) error {
	logger.DatabaseCall("BEGIN", "transaction")
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		logger.DatabaseResult("BEGIN", 0, err)
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	repos := repository.TxRepositories{
		Items:       NewItemRepository(tx),
		Allocations: NewAllocationRepository(tx),
	}
	if err := fn(ctx, repos); err != nil {
		logger.Debug("Rolling back transaction", "error", err)
		return err
	}

	if err := tx.Commit(); err != nil {
		logger.DatabaseResult("COMMIT", 0, err)
		return fmt.Errorf("committing transaction: %w", err)
	}
	logger.DatabaseResult("COMMIT", 0, nil)
	return nil
}
