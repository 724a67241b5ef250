package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// IngestionService builds the index from a document directory
type IngestionService interface {
	// Ingest rebuilds the index from every supported document under dir and
	// atomically replaces the live index. An empty dir uses the configured default.
	Ingest(ctx context.Context, dir string) (*domain.IngestResult, error)

	// LoadExisting loads a previously saved index at startup.
	// Returns false, nil when no index exists yet.
	LoadExisting(ctx context.Context) (bool, error)

	// Status reports the live index and the most recent run
	Status(ctx context.Context) (*domain.IndexStatus, error)

	// ListRuns returns recent ingestion runs, newest first
	ListRuns(ctx context.Context, limit int) ([]*domain.IngestRun, error)
}
