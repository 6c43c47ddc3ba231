// Package history records deployment runs in Postgres so the status
// and history commands can report what was pushed to which environment
// and when.
package history

import (
	"context"
	"fmt"
	"os/user"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"mermdv/database"
)

// Run is one deployment attempt.
type Run struct {
	ID           string
	DiagramFile  string
	Solution     string
	Environment  string
	StartedAt    time.Time
	FinishedAt   *time.Time
	Status       string // running, success, failed
	ErrorMessage string
	ExecutedBy   string
}

// OperationRecord is one metadata creation inside a run.
type OperationRecord struct {
	ID           int
	RunID        string
	Type         string
	Target       string
	Status       string
	ErrorMessage string
	ExecutedAt   time.Time
}

type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to the history database.
func NewStore() (*Store, error) {
	pool, err := database.GetPool()
	if err != nil {
		return nil, fmt.Errorf("failed to get history database pool: %v", err)
	}
	return &Store{pool: pool}, nil
}

// EnsureTables creates the history tables if they do not exist.
func (s *Store) EnsureTables(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS deployment_runs (
		id UUID PRIMARY KEY,
		diagram_file TEXT NOT NULL,
		solution TEXT NOT NULL,
		environment TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL DEFAULT now(),
		finished_at TIMESTAMP,
		status TEXT NOT NULL DEFAULT 'running',
		error_message TEXT,
		executed_by TEXT
	);
	`)
	if err != nil {
		return fmt.Errorf("failed to create deployment_runs table: %v", err)
	}

	_, err = s.pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS deployment_operations (
		id SERIAL PRIMARY KEY,
		run_id UUID NOT NULL REFERENCES deployment_runs(id),
		op_type TEXT NOT NULL,
		target TEXT NOT NULL,
		status TEXT NOT NULL,
		error_message TEXT,
		executed_at TIMESTAMP NOT NULL DEFAULT now()
	);
	`)
	if err != nil {
		return fmt.Errorf("failed to create deployment_operations table: %v", err)
	}

	return nil
}

// StartRun inserts a new running record and returns its id.
func (s *Store) StartRun(ctx context.Context, diagramFile, solution, environment string) (string, error) {
	id := uuid.NewString()

	executedBy := "unknown"
	if u, err := user.Current(); err == nil {
		executedBy = u.Username
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO deployment_runs (id, diagram_file, solution, environment, executed_by)
		VALUES ($1, $2, $3, $4, $5)`,
		id, diagramFile, solution, environment, executedBy,
	)
	if err != nil {
		return "", fmt.Errorf("failed to record deployment run: %v", err)
	}
	return id, nil
}

// RecordOperation appends one operation outcome to a run.
func (s *Store) RecordOperation(ctx context.Context, runID, opType, target, status, errorMessage string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO deployment_operations (run_id, op_type, target, status, error_message)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))`,
		runID, opType, target, status, errorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to record operation: %v", err)
	}
	return nil
}

// FinishRun closes a run with its final status.
func (s *Store) FinishRun(ctx context.Context, runID, status, errorMessage string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE deployment_runs
		SET status = $2, error_message = NULLIF($3, ''), finished_at = now()
		WHERE id = $1`,
		runID, status, errorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to finish deployment run: %v", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, diagram_file, solution, environment, started_at, finished_at,
		       status, COALESCE(error_message, ''), COALESCE(executed_by, '')
		FROM deployment_runs
		ORDER BY started_at DESC
		LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query deployment runs: %v", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.DiagramFile, &r.Solution, &r.Environment,
			&r.StartedAt, &r.FinishedAt, &r.Status, &r.ErrorMessage, &r.ExecutedBy); err != nil {
			return nil, fmt.Errorf("failed to scan deployment run: %v", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunOperations returns the operations of one run in execution order.
func (s *Store) RunOperations(ctx context.Context, runID string) ([]OperationRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, run_id, op_type, target, status, COALESCE(error_message, ''), executed_at
		FROM deployment_operations
		WHERE run_id = $1
		ORDER BY id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %v", err)
	}
	defer rows.Close()

	var ops []OperationRecord
	for rows.Next() {
		var op OperationRecord
		if err := rows.Scan(&op.ID, &op.RunID, &op.Type, &op.Target,
			&op.Status, &op.ErrorMessage, &op.ExecutedAt); err != nil {
			return nil, fmt.Errorf("failed to scan operation: %v", err)
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}
