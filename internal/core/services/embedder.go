package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/runtime"
)

const embedderService = "embedding"

// Embedder turns texts into unit-length vectors through the live embedding service.
// Inputs are sent in batches of at most batchSize texts.
type Embedder struct {
	services  *runtime.Services
	batchSize int
}

// NewEmbedder creates an Embedder. A non-positive batchSize uses the default.
func NewEmbedder(services *runtime.Services, batchSize int) *Embedder {
	if batchSize <= 0 {
		batchSize = domain.DefaultEmbeddingSettings().BatchSize
	}
	return &Embedder{services: services, batchSize: batchSize}
}

// BatchSize returns the maximum number of texts sent per call
func (e *Embedder) BatchSize() int {
	return e.batchSize
}

// Batches returns how many service calls embedding n texts takes
func (e *Embedder) Batches(n int) int {
	return (n + e.batchSize - 1) / e.batchSize
}

// Model returns the model of the live embedding service, or "" if none is configured
func (e *Embedder) Model() string {
	if svc := e.services.EmbeddingService(); svc != nil {
		return svc.Model()
	}
	return ""
}

// Embed returns one L2-normalised vector per text, in input order.
// An empty input returns an empty result without calling the service.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	svc := e.services.EmbeddingService()
	if svc == nil {
		return nil, domain.NewServiceCallError(embedderService, "embed", errors.New("no embedding service configured"))
	}

	out := make([][]float32, 0, len(texts))
	dim := 0
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		batch := texts[start:end]

		vectors, err := svc.Embed(ctx, batch)
		if err != nil {
			return nil, asServiceError(embedderService, "embed", err)
		}
		if len(vectors) != len(batch) {
			return nil, domain.NewServiceCallError(embedderService, "embed",
				fmt.Errorf("returned %d vectors for %d texts", len(vectors), len(batch)))
		}

		for i, v := range vectors {
			if dim == 0 {
				dim = len(v)
			}
			if len(v) == 0 || len(v) != dim {
				return nil, domain.NewServiceCallError(embedderService, "embed",
					fmt.Errorf("%w: vector %d has dimension %d, expected %d", domain.ErrDimensionMismatch, start+i, len(v), dim))
			}
			unit, err := normalise(v)
			if err != nil {
				return nil, domain.NewServiceCallError(embedderService, "embed",
					fmt.Errorf("vector %d: %w", start+i, err))
			}
			out = append(out, unit)
		}
	}
	return out, nil
}

// EmbedQuery embeds a single query as a one-item batch
func (e *Embedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// normalise returns a copy of v scaled to unit Euclidean length
func normalise(v []float32) ([]float32, error) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, errors.New("vector has no direction")
	}

	unit := make([]float32, len(v))
	for i, x := range v {
		unit[i] = float32(float64(x) / norm)
	}
	return unit, nil
}

// asServiceError keeps adapter ServiceCallErrors intact and wraps anything else
func asServiceError(service, op string, err error) error {
	var sce *domain.ServiceCallError
	if errors.As(err, &sce) {
		return err
	}
	return domain.NewServiceCallError(service, op, err)
}
