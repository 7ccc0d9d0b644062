package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB holds the database connection
var DB *sql.DB

var schema = []string{`
	CREATE TABLE IF NOT EXISTS loyalty_runs (
		id                UUID PRIMARY KEY,
		doc_type          TEXT NOT NULL,
		doc_id            TEXT NOT NULL,
		reason            TEXT NOT NULL,
		updated           BOOLEAN NOT NULL DEFAULT FALSE,
		changed_positions INTEGER NOT NULL DEFAULT 0,
		discount_sum      BIGINT NOT NULL DEFAULT 0,
		dry_run           BOOLEAN NOT NULL DEFAULT FALSE,
		error             TEXT,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS loyalty_runs_doc_idx ON loyalty_runs (doc_id, created_at DESC)`,
}

// InitDB opens the database connection for dsn and checks it with a ping
func InitDB(ctx context.Context, dsn string) error {
	var err error
	DB, err = sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := DB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// EnsureSchema creates the journal table when it does not exist yet
func EnsureSchema(ctx context.Context) error {
	if DB == nil {
		return fmt.Errorf("database is not initialized")
	}
	for _, stmt := range schema {
		if _, err := DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// CloseDB closes the database connection
func CloseDB() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
