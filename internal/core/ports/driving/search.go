package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// SearchService retrieves the passages most similar to a query
type SearchService interface {
	// Retrieve embeds the query, searches the live index and drops candidates
	// scoring below opts.MinScore. Returns domain.ErrIndexNotReady when no
	// index has been built or loaded.
	Retrieve(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error)
}
