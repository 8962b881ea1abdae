package repository

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS solve_runs (
		id             TEXT PRIMARY KEY,
		status         TEXT NOT NULL,
		policy         TEXT NOT NULL,
		attempts       INTEGER NOT NULL DEFAULT 0,
		seed           BIGINT NOT NULL DEFAULT 0,
		seed_explicit  BOOLEAN NOT NULL DEFAULT FALSE,
		duration_ms    BIGINT NOT NULL DEFAULT 0,
		total_sessions INTEGER NOT NULL DEFAULT 0,
		total_groups   INTEGER NOT NULL DEFAULT 0,
		total_teachers INTEGER NOT NULL DEFAULT 0,
		assigned_count INTEGER NOT NULL DEFAULT 0,
		unfilled_count INTEGER NOT NULL DEFAULT 0,
		error          TEXT,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_solve_runs_status_created
		ON solve_runs (status, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS solve_assignments (
		run_id     TEXT NOT NULL REFERENCES solve_runs(id) ON DELETE CASCADE,
		teacher    TEXT NOT NULL,
		group_name TEXT NOT NULL,
		PRIMARY KEY (run_id, group_name, teacher)
	)`,
}

// Migrate runs all schema migrations.
func Migrate(db *sqlx.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
