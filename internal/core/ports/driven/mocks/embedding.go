package mocks

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*MockEmbeddingService)(nil)

// stopwords are dropped so unrelated texts share no dimensions
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "how": true, "in": true,
	"is": true, "it": true, "of": true, "on": true, "or": true, "the": true,
	"to": true, "up": true, "was": true, "what": true, "when": true, "which": true,
	"who": true, "with": true, "per": true, "do": true, "does": true, "much": true,
}

// MockEmbeddingService is a mock implementation of EmbeddingService for testing.
// Embeddings are signed bag-of-words token hashes, so texts sharing words score
// high and texts sharing none score near zero.
type MockEmbeddingService struct {
	mu         sync.Mutex
	dimensions int
	model      string
	failNext   bool
	calls      int
	batches    []int

	// EmbedFn overrides the generated embeddings when set
	EmbedFn func(texts []string) ([][]float32, error)
}

// NewMockEmbeddingService creates a new MockEmbeddingService
func NewMockEmbeddingService() *MockEmbeddingService {
	return &MockEmbeddingService{
		dimensions: 1024,
		model:      "mock-embedding-model",
	}
}

func (m *MockEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.batches = append(m.batches, len(texts))
	if m.failNext {
		m.failNext = false
		return nil, context.DeadlineExceeded
	}
	if m.EmbedFn != nil {
		return m.EmbedFn(texts)
	}

	result := make([][]float32, len(texts))
	for i, text := range texts {
		result[i] = m.generateEmbedding(text)
	}
	return result, nil
}

func (m *MockEmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := m.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (m *MockEmbeddingService) Dimensions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dimensions
}

func (m *MockEmbeddingService) Model() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model
}

func (m *MockEmbeddingService) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *MockEmbeddingService) Close() error {
	return nil
}

// generateEmbedding hashes each content token into a signed bucket.
// Texts without content tokens get a single constant bucket so the vector is never zero.
func (m *MockEmbeddingService) generateEmbedding(text string) []float32 {
	embedding := make([]float32, m.dimensions)
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		embedding[0] = 1
		return embedding
	}
	for _, tok := range tokens {
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()
		bucket := int(sum % uint64(m.dimensions))
		if (sum>>32)&1 == 1 {
			embedding[bucket]--
		} else {
			embedding[bucket]++
		}
	}
	return embedding
}

// Tokenize lowercases text, splits on non-alphanumerics and drops stopwords
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if !stopwords[f] {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Helper methods for testing

func (m *MockEmbeddingService) SetFailNext(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = fail
}

func (m *MockEmbeddingService) SetDimensions(dim int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dimensions = dim
}

func (m *MockEmbeddingService) SetModel(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.model = model
}

// Calls returns the number of Embed calls, including query embeddings
func (m *MockEmbeddingService) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Batches returns the size of each Embed call in order
func (m *MockEmbeddingService) Batches() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.batches...)
}
