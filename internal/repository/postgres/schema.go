package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS items (
    id                SERIAL PRIMARY KEY,
    name              TEXT NOT NULL UNIQUE,
    usage_type        TEXT NOT NULL DEFAULT 'INTERNAL' CHECK (usage_type IN ('INTERNAL', 'DIRECT_SALE', 'OTHER')),
    is_active         BOOLEAN NOT NULL DEFAULT TRUE,
    stock_level       INTEGER NOT NULL DEFAULT 0 CHECK (stock_level >= 0),
    minimum_threshold INTEGER NOT NULL DEFAULT 0 CHECK (minimum_threshold >= 0),
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS allocations (
    id                SERIAL PRIMARY KEY,
    item_id           INTEGER NOT NULL REFERENCES items(id) ON DELETE NO ACTION,
    quantity          INTEGER NOT NULL CHECK (quantity > 0),
    issued_at         TIMESTAMPTZ NOT NULL,
    is_active         BOOLEAN NOT NULL DEFAULT TRUE,
    is_exhausted      BOOLEAN NOT NULL DEFAULT FALSE,
    exhaustion_reason TEXT,
    exhausted_at      TIMESTAMPTZ,
    note              TEXT,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_allocations_item ON allocations(item_id);
CREATE INDEX IF NOT EXISTS idx_allocations_issued ON allocations(issued_at DESC, id DESC);

CREATE TABLE IF NOT EXISTS stock_alerts (
    id                SERIAL PRIMARY KEY,
    correlation_id    TEXT NOT NULL UNIQUE,
    item_id           INTEGER NOT NULL,
    item_name         TEXT NOT NULL,
    stock_level       INTEGER NOT NULL,
    minimum_threshold INTEGER NOT NULL,
    reason            TEXT NOT NULL,
    is_acknowledged   BOOLEAN NOT NULL DEFAULT FALSE,
    acknowledged_at   TIMESTAMPTZ,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_stock_alerts_created ON stock_alerts(created_at DESC);
`

// EnsureSchema creates the ledger tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
