package ai

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"

	openai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure OpenAIEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*OpenAIEmbedding)(nil)

const defaultOpenAIEmbeddingModel = "text-embedding-3-small"

// Model dimensions for OpenAI embedding models
var openAIModelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// OpenAIEmbedding implements EmbeddingService using OpenAI's embedding API
type OpenAIEmbedding struct {
	client     *openai.Client
	httpClient *http.Client
	model      string
	baseURL    string
	requested  int // explicit dimensions sent with each request, 0 for the model default
	dimensions atomic.Int64
	caller     *caller
}

// NewOpenAIEmbedding creates a new OpenAI embedding service
func NewOpenAIEmbedding(settings domain.EmbeddingSettings, policy domain.CallPolicy) (*OpenAIEmbedding, error) {
	if settings.APIKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is required", domain.ErrConfiguration)
	}

	model := settings.Model
	if model == "" {
		model = defaultOpenAIEmbeddingModel
	}

	httpClient := &http.Client{}
	cfg := openai.DefaultConfig(settings.APIKey)
	if settings.BaseURL != "" {
		cfg.BaseURL = settings.BaseURL
	}
	cfg.HTTPClient = httpClient

	e := &OpenAIEmbedding{
		client:     openai.NewClientWithConfig(cfg),
		httpClient: httpClient,
		model:      model,
		baseURL:    cfg.BaseURL,
		requested:  settings.Dimensions,
		caller:     newCaller(serviceEmbedding, policy),
	}

	switch {
	case settings.Dimensions > 0:
		e.dimensions.Store(int64(settings.Dimensions))
	default:
		e.dimensions.Store(int64(openAIModelDimensions[model]))
	}
	return e, nil
}

// Embed generates embeddings for multiple texts
func (e *OpenAIEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var resp openai.EmbeddingResponse
	err := e.caller.do(ctx, "embed", func(ctx context.Context) error {
		var err error
		resp, err = e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input:      texts,
			Model:      openai.EmbeddingModel(e.model),
			Dimensions: e.requested,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	// The API may return data out of order; place each vector by its index.
	embeddings := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(embeddings) || embeddings[d.Index] != nil {
			return nil, e.malformed(fmt.Errorf("unexpected embedding index %d", d.Index))
		}
		embeddings[d.Index] = d.Embedding
	}
	for i, v := range embeddings {
		if v == nil {
			return nil, e.malformed(fmt.Errorf("returned %d embeddings for %d inputs (missing index %d)", len(resp.Data), len(texts), i))
		}
	}

	e.dimensions.Store(int64(len(embeddings[0])))
	return embeddings, nil
}

// EmbedQuery generates an embedding for a search query
func (e *OpenAIEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	embeddings, err := e.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// Dimensions returns the embedding dimension size
func (e *OpenAIEmbedding) Dimensions() int {
	return int(e.dimensions.Load())
}

// Model returns the model name being used
func (e *OpenAIEmbedding) Model() string {
	return e.model
}

// HealthCheck verifies the embedding service is available
func (e *OpenAIEmbedding) HealthCheck(ctx context.Context) error {
	_, err := e.EmbedQuery(ctx, "health check")
	return err
}

// Close releases resources held by the embedding service
func (e *OpenAIEmbedding) Close() error {
	e.httpClient.CloseIdleConnections()
	return nil
}

func (e *OpenAIEmbedding) malformed(err error) error {
	return &domain.ServiceCallError{Service: serviceEmbedding, Op: "embed", Err: err}
}
