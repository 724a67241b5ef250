package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/ollama/ollama/api"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure OllamaEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*OllamaEmbedding)(nil)

// OllamaEmbedding implements EmbeddingService against a self-hosted Ollama daemon.
// The dimension is unknown until the first successful call.
type OllamaEmbedding struct {
	client     *api.Client
	httpClient *http.Client
	model      string
	dimensions atomic.Int64
	caller     *caller
}

// NewOllamaEmbedding creates a new Ollama embedding service
func NewOllamaEmbedding(settings domain.EmbeddingSettings, policy domain.CallPolicy) (*OllamaEmbedding, error) {
	if settings.Model == "" {
		return nil, fmt.Errorf("%w: Ollama embedding model is required", domain.ErrConfiguration)
	}
	client, httpClient, err := newOllamaClient(settings.BaseURL)
	if err != nil {
		return nil, err
	}

	e := &OllamaEmbedding{
		client:     client,
		httpClient: httpClient,
		model:      settings.Model,
		caller:     newCaller(serviceEmbedding, policy),
	}
	e.dimensions.Store(int64(settings.Dimensions))
	return e, nil
}

// Embed generates embeddings for multiple texts in one request
func (e *OllamaEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var resp *api.EmbedResponse
	err := e.caller.do(ctx, "embed", func(ctx context.Context) error {
		var err error
		resp, err = e.client.Embed(ctx, &api.EmbedRequest{
			Model: e.model,
			Input: texts,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, &domain.ServiceCallError{
			Service: serviceEmbedding,
			Op:      "embed",
			Err:     fmt.Errorf("returned %d embeddings for %d inputs", len(resp.Embeddings), len(texts)),
		}
	}
	if len(resp.Embeddings[0]) == 0 {
		return nil, &domain.ServiceCallError{Service: serviceEmbedding, Op: "embed", Err: errors.New("empty embedding")}
	}

	e.dimensions.Store(int64(len(resp.Embeddings[0])))
	return resp.Embeddings, nil
}

// EmbedQuery generates an embedding for a search query
func (e *OllamaEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	embeddings, err := e.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// Dimensions returns the embedding dimension size
func (e *OllamaEmbedding) Dimensions() int {
	return int(e.dimensions.Load())
}

// Model returns the model name being used
func (e *OllamaEmbedding) Model() string {
	return e.model
}

// HealthCheck verifies the daemon is reachable
func (e *OllamaEmbedding) HealthCheck(ctx context.Context) error {
	return e.caller.do(ctx, "heartbeat", e.client.Heartbeat)
}

// Close releases idle connections
func (e *OllamaEmbedding) Close() error {
	e.httpClient.CloseIdleConnections()
	return nil
}
