package repository

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS parse_history (
		id            TEXT PRIMARY KEY,
		source        TEXT NOT NULL,
		content_hash  TEXT NOT NULL,
		status        TEXT NOT NULL,
		format        TEXT NOT NULL,
		record_count  INTEGER NOT NULL DEFAULT 0,
		records       TEXT NOT NULL DEFAULT '[]',
		error_message TEXT NOT NULL DEFAULT '',
		warnings      TEXT NOT NULL DEFAULT '[]',
		processed_at  BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS parse_history_hash_idx ON parse_history (content_hash)`,
	`CREATE INDEX IF NOT EXISTS parse_history_processed_idx ON parse_history (processed_at)`,
}

// Migrate creates the history table and its indexes when missing.
func Migrate(ctx context.Context, db *DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
