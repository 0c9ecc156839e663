package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const runHistorySchema = `
CREATE TABLE IF NOT EXISTS transformation_runs (
    id            UUID PRIMARY KEY,
    design_type   TEXT NOT NULL,
    design_style  TEXT NOT NULL DEFAULT '',
    source_key    TEXT NOT NULL,
    job_id        TEXT NOT NULL DEFAULT '',
    success       BOOLEAN NOT NULL,
    error_message TEXT NOT NULL DEFAULT '',
    output_count  INT NOT NULL DEFAULT 0,
    saved_count   INT NOT NULL DEFAULT 0,
    elapsed_ms    BIGINT NOT NULL DEFAULT 0,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_transformation_runs_created_at
    ON transformation_runs (created_at DESC);
`

// EnsureSchema creates the run history table when it does not exist yet.
// The service owns this table alone, so an idempotent bootstrap beats a
// migration tool here.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, runHistorySchema); err != nil {
		return fmt.Errorf("db: ensure schema: %w", err)
	}
	return nil
}
