package snapshots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var ErrRunNotFound = errors.New("snapshot run not found")

// Run is one snapshot refresh run.
type Run struct {
	ID         string     `json:"run_id"`
	Providers  []string   `json:"providers"`
	Regions    []string   `json:"regions"`
	Status     string     `json:"status"`
	RowsAWS    int        `json:"rows_aws"`
	RowsAzure  int        `json:"rows_azure"`
	Detail     string     `json:"detail,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// RunLog records snapshot runs in Postgres.
type RunLog struct {
	db *sql.DB
}

func NewRunLog(db *sql.DB) *RunLog {
	return &RunLog{db: db}
}

func (l *RunLog) CreateRun(ctx context.Context, providers, regions []string) (*Run, error) {
	run := &Run{
		ID:        uuid.New().String(),
		Providers: providers,
		Regions:   regions,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}

	const q = `
INSERT INTO snapshot_runs (id, providers, regions, status, started_at)
VALUES ($1, $2, $3, $4, $5)
;`
	_, err := l.db.ExecContext(ctx, q,
		run.ID, strings.Join(providers, ","), strings.Join(regions, ","),
		run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert snapshot run: %w", err)
	}
	return run, nil
}

func (l *RunLog) MarkCompleted(ctx context.Context, id string, rowsAWS, rowsAzure int) error {
	const q = `
UPDATE snapshot_runs
SET status = $2, rows_aws = $3, rows_azure = $4, finished_at = now()
WHERE id = $1
;`
	_, err := l.db.ExecContext(ctx, q, id, StatusCompleted, rowsAWS, rowsAzure)
	if err != nil {
		return fmt.Errorf("mark run completed: %w", err)
	}
	return nil
}

func (l *RunLog) MarkFailed(ctx context.Context, id, detail string) error {
	const q = `
UPDATE snapshot_runs
SET status = $2, detail = $3, finished_at = now()
WHERE id = $1
;`
	_, err := l.db.ExecContext(ctx, q, id, StatusFailed, detail)
	if err != nil {
		return fmt.Errorf("mark run failed: %w", err)
	}
	return nil
}

func (l *RunLog) GetRun(ctx context.Context, id string) (*Run, error) {
	// The column is a UUID; a malformed id would surface as a cast error
	// instead of a clean miss.
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrRunNotFound
	}

	const q = `
SELECT id, providers, regions, status, rows_aws, rows_azure, coalesce(detail, ''), started_at, finished_at
FROM snapshot_runs
WHERE id = $1
;`
	var (
		run                Run
		providers, regions string
		finishedAt         sql.NullTime
	)
	err := l.db.QueryRowContext(ctx, q, id).Scan(
		&run.ID, &providers, &regions, &run.Status,
		&run.RowsAWS, &run.RowsAzure, &run.Detail, &run.StartedAt, &finishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot run: %w", err)
	}

	run.Providers = splitCSV(providers)
	run.Regions = splitCSV(regions)
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
