package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.IngestRunStore = (*RunStore)(nil)

const runColumns = `id, status, doc_dir, model, dimension, stats, error, started_at, completed_at`

// RunStore implements driven.IngestRunStore using PostgreSQL
type RunStore struct {
	db *DB
}

// NewRunStore creates a new RunStore
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// Save creates or updates a run
func (s *RunStore) Save(ctx context.Context, run *domain.IngestRun) error {
	statsJSON, err := json.Marshal(run.Stats)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO ingest_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			dimension = EXCLUDED.dimension,
			stats = EXCLUDED.stats,
			error = EXCLUDED.error,
			completed_at = EXCLUDED.completed_at
	`

	_, err = s.db.ExecContext(ctx, query,
		run.ID,
		string(run.Status),
		run.DocDir,
		run.Model,
		run.Dimension,
		statsJSON,
		run.Error,
		run.StartedAt,
		NullTime(run.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID
func (s *RunStore) Get(ctx context.Context, id string) (*domain.IngestRun, error) {
	query := `SELECT ` + runColumns + ` FROM ingest_runs WHERE id = $1`

	run, err := scanRun(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// List retrieves the most recent runs, newest first
func (s *RunStore) List(ctx context.Context, limit int) ([]*domain.IngestRun, error) {
	query := `SELECT ` + runColumns + ` FROM ingest_runs ORDER BY started_at DESC LIMIT $1`
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*domain.IngestRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// Latest retrieves the most recent run, or nil if none exist
func (s *RunStore) Latest(ctx context.Context) (*domain.IngestRun, error) {
	runs, err := s.List(ctx, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return runs[0], nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.IngestRun, error) {
	var run domain.IngestRun
	var status string
	var statsJSON []byte
	var completedAt sql.NullTime

	err := row.Scan(
		&run.ID,
		&status,
		&run.DocDir,
		&run.Model,
		&run.Dimension,
		&statsJSON,
		&run.Error,
		&run.StartedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	run.Status = domain.IngestStatus(status)
	run.CompletedAt = TimePtr(completedAt)
	if len(statsJSON) > 0 {
		if err := json.Unmarshal(statsJSON, &run.Stats); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run stats: %w", err)
		}
	}
	return &run, nil
}
