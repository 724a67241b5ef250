// Package index implements the flat inner-product vector index and its
// on-disk snapshot format.
package index

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// unitTolerance bounds how far a stored vector's norm may drift from 1.
const unitTolerance = 1e-3

// Verify interface compliance
var _ driven.IndexStore = (*Store)(nil)

// Store is an exact, brute-force inner-product index over unit vectors.
// Entry IDs are positions assigned from 0 in insertion order; record i
// always describes vector i. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	model   string
	dim     int
	vectors []float32 // len(records) * dim, row-major
	records []domain.MetadataRecord
}

// New creates an empty store for vectors produced by model.
// The dimension is fixed by the first Append.
func New(model string) *Store {
	return &Store{model: model}
}

// Append adds vectors and their records and returns the ID of the first new entry.
// The batch is validated in full before anything is added.
func (s *Store) Append(vectors [][]float32, records []domain.MetadataRecord) (int, error) {
	if len(vectors) != len(records) {
		return 0, fmt.Errorf("%w: %d vectors, %d metadata records", domain.ErrIndexConsistency, len(vectors), len(records))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	first := len(s.records)
	if len(vectors) == 0 {
		return first, nil
	}

	dim := s.dim
	if dim == 0 {
		dim = len(vectors[0])
		if dim == 0 {
			return 0, fmt.Errorf("%w: zero-length vector", domain.ErrDimensionMismatch)
		}
	}

	for i, v := range vectors {
		if len(v) != dim {
			return 0, fmt.Errorf("%w: vector %d has dimension %d, index has %d", domain.ErrDimensionMismatch, i, len(v), dim)
		}
		if !finite(v) {
			return 0, fmt.Errorf("%w: vector %d has a non-finite component", domain.ErrInvalidInput, i)
		}
		if norm := Norm(v); math.Abs(norm-1) > unitTolerance {
			return 0, fmt.Errorf("%w: vector %d has norm %.4f, expected unit length", domain.ErrInvalidInput, i, norm)
		}
		if err := records[i].Validate(); err != nil {
			return 0, err
		}
	}

	s.dim = dim
	s.vectors = slices.Grow(s.vectors, len(vectors)*dim)
	for _, v := range vectors {
		s.vectors = append(s.vectors, v...)
	}
	s.records = append(s.records, records...)
	return first, nil
}

// Search returns the min(k, Len) entries with the highest inner product with
// query, best first. Equal scores are ordered by lower ID.
func (s *Store) Search(query []float32, k int) ([]*domain.RankedChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.records)
	if n == 0 {
		return nil, domain.ErrIndexNotReady
	}
	if len(query) != s.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d", domain.ErrDimensionMismatch, len(query), s.dim)
	}
	if !finite(query) {
		return nil, fmt.Errorf("%w: query has a non-finite component", domain.ErrInvalidInput)
	}

	type hit struct {
		id    int
		score float64
	}
	hits := make([]hit, n)
	for id := 0; id < n; id++ {
		hits[id] = hit{id: id, score: Dot(query, s.vectors[id*s.dim:(id+1)*s.dim])}
	}
	slices.SortFunc(hits, func(a, b hit) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return a.id - b.id
		}
	})

	k = min(k, n)
	out := make([]*domain.RankedChunk, k)
	for i := 0; i < k; i++ {
		out[i] = &domain.RankedChunk{
			ID:     hits[i].id,
			Score:  hits[i].score,
			Record: s.records[hits[i].id],
		}
	}
	return out, nil
}

// Record returns the metadata record of entry id.
func (s *Store) Record(id int) (domain.MetadataRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id < 0 || id >= len(s.records) {
		return domain.MetadataRecord{}, fmt.Errorf("%w: entry %d", domain.ErrNotFound, id)
	}
	return s.records[id], nil
}

// Vector returns a copy of the vector of entry id.
func (s *Store) Vector(id int) ([]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id < 0 || id >= len(s.records) {
		return nil, fmt.Errorf("%w: entry %d", domain.ErrNotFound, id)
	}
	return slices.Clone(s.vectors[id*s.dim : (id+1)*s.dim]), nil
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Dimension returns the vector dimension, or 0 while the store is empty.
func (s *Store) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dim
}

// Model returns the embedding model that produced the vectors.
func (s *Store) Model() string {
	return s.model
}

// Dot returns the inner product of a and b, accumulated in float64.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func finite(v []float32) bool {
	for _, x := range v {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return false
		}
	}
	return true
}

// Norm returns the Euclidean length of v.
func Norm(v []float32) float64 {
	return math.Sqrt(Dot(v, v))
}
