package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransformationRun is one recorded orchestration run.
type TransformationRun struct {
	ID           string
	DesignType   string
	DesignStyle  string
	SourceKey    string
	JobID        string
	Success      bool
	ErrorMessage string
	OutputCount  int
	SavedCount   int
	ElapsedMS    int64
	CreatedAt    time.Time
}

// RunRepositoryPG stores run history in PostgreSQL.
type RunRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewRunRepository creates a run repository backed by PostgreSQL.
func NewRunRepository(pool *pgxpool.Pool) *RunRepositoryPG {
	return &RunRepositoryPG{pool: pool}
}

// Create inserts a new run record, assigning an id when absent.
func (r *RunRepositoryPG) Create(ctx context.Context, run *TransformationRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	query := `
INSERT INTO transformation_runs (id, design_type, design_style, source_key, job_id, success, error_message, output_count, saved_count, elapsed_ms)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`
	_, err := r.pool.Exec(ctx, query,
		run.ID,
		run.DesignType,
		run.DesignStyle,
		run.SourceKey,
		run.JobID,
		run.Success,
		run.ErrorMessage,
		run.OutputCount,
		run.SavedCount,
		run.ElapsedMS,
	)
	return err
}

// ListRecent returns the newest runs, newest first.
func (r *RunRepositoryPG) ListRecent(ctx context.Context, limit int) ([]TransformationRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
SELECT id, design_type, design_style, source_key, job_id, success, error_message, output_count, saved_count, elapsed_ms, created_at
FROM transformation_runs
ORDER BY created_at DESC
LIMIT $1;
`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []TransformationRun
	for rows.Next() {
		var run TransformationRun
		if err := rows.Scan(
			&run.ID,
			&run.DesignType,
			&run.DesignStyle,
			&run.SourceKey,
			&run.JobID,
			&run.Success,
			&run.ErrorMessage,
			&run.OutputCount,
			&run.SavedCount,
			&run.ElapsedMS,
			&run.CreatedAt,
		); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
