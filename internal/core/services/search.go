package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/runtime"
)

// Ensure searchService implements SearchService
var _ driving.SearchService = (*searchService)(nil)

// searchService implements the SearchService interface
type searchService struct {
	services *runtime.Services // Live index and embedding service
	embedder *Embedder
	defaults domain.SearchOptions
	logger   *slog.Logger
}

// NewSearchService creates a new SearchService.
// defaults.Limit is used when a request does not set one.
func NewSearchService(services *runtime.Services, embedder *Embedder, defaults domain.SearchOptions, logger *slog.Logger) driving.SearchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &searchService{
		services: services,
		embedder: embedder,
		defaults: defaults.Normalise(),
		logger:   logger,
	}
}

// Retrieve embeds the query, takes the top-k entries of the live index and
// drops those scoring below opts.MinScore.
func (s *searchService) Retrieve(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	start := time.Now()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}

	if opts.Limit <= 0 {
		opts.Limit = s.defaults.Limit
	}
	opts = opts.Normalise()

	// The previous index keeps serving while a rebuild runs; only a missing
	// or empty index is "not ready".
	idx := s.services.Index()
	if idx == nil || idx.Len() == 0 {
		return nil, domain.ErrIndexNotReady
	}

	if model := s.embedder.Model(); model != "" && idx.Model() != "" && model != idx.Model() {
		return nil, fmt.Errorf("%w: index built with %q, queries embedded with %q",
			domain.ErrEmbeddingModelMismatch, idx.Model(), model)
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	candidates, err := idx.Search(vector, opts.Limit)
	if err != nil {
		return nil, err
	}

	results := make([]*domain.RankedChunk, 0, len(candidates))
	for _, c := range candidates {
		if c.Score >= opts.MinScore {
			results = append(results, c)
		}
	}

	s.logger.Debug("retrieved passages",
		"k", opts.Limit,
		"min_score", opts.MinScore,
		"candidates", len(candidates),
		"results", len(results),
	)

	return &domain.SearchResult{
		Query:      query,
		Results:    results,
		Candidates: len(candidates),
		TotalCount: idx.Len(),
		MinScore:   opts.MinScore,
		Took:       time.Since(start),
	}, nil
}
