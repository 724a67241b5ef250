package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// IngestRunStore persists the history of ingestion runs
type IngestRunStore interface {
	// Save creates or updates a run
	Save(ctx context.Context, run *domain.IngestRun) error

	// Get retrieves a run by ID
	Get(ctx context.Context, id string) (*domain.IngestRun, error)

	// List retrieves the most recent runs, newest first
	List(ctx context.Context, limit int) ([]*domain.IngestRun, error)

	// Latest retrieves the most recent run, or nil if none exist
	Latest(ctx context.Context) (*domain.IngestRun, error)
}
