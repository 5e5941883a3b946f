package postgres

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS cafe_activity_log (
		id                BIGSERIAL PRIMARY KEY,
		recorded_at       TIMESTAMPTZ NOT NULL,
		total_customers   INTEGER NOT NULL,
		waiting_customers INTEGER NOT NULL,
		waiting_teas      INTEGER NOT NULL,
		waiting_coffees   INTEGER NOT NULL,
		brewing_teas      INTEGER NOT NULL,
		brewing_coffees   INTEGER NOT NULL,
		tray_teas         INTEGER NOT NULL,
		tray_coffees      INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS cafe_workers (
		name          TEXT PRIMARY KEY,
		kind          TEXT NOT NULL,
		status        TEXT NOT NULL,
		items_brewed  INTEGER NOT NULL DEFAULT 0,
		items_dropped INTEGER NOT NULL DEFAULT 0,
		last_seen     TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema creates the tables the repositories need in one transaction.
func EnsureSchema(ctx context.Context, db DB) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, stmt := range schema {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return tx.Commit(ctx)
}
