package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// DocumentSource lists and reads the documents of a corpus
type DocumentSource interface {
	// List returns the supported document paths under dir, relative to dir, in a stable order
	List(ctx context.Context, dir string) ([]string, error)

	// Read extracts the text of one document
	Read(ctx context.Context, dir, path string) (*domain.Document, error)
}
