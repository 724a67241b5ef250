package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

var _ driven.IngestRunStore = (*MockIngestRunStore)(nil)

// MockIngestRunStore is an in-memory IngestRunStore for testing
type MockIngestRunStore struct {
	mu   sync.RWMutex
	runs map[string]*domain.IngestRun

	SaveFn func(run *domain.IngestRun) error
}

// NewMockIngestRunStore creates a new MockIngestRunStore
func NewMockIngestRunStore() *MockIngestRunStore {
	return &MockIngestRunStore{
		runs: make(map[string]*domain.IngestRun),
	}
}

func (m *MockIngestRunStore) Save(ctx context.Context, run *domain.IngestRun) error {
	if m.SaveFn != nil {
		return m.SaveFn(run)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *run
	m.runs[run.ID] = &cp
	return nil
}

func (m *MockIngestRunStore) Get(ctx context.Context, id string) (*domain.IngestRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *run
	return &cp, nil
}

func (m *MockIngestRunStore) List(ctx context.Context, limit int) ([]*domain.IngestRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.IngestRun, 0, len(m.runs))
	for _, run := range m.runs {
		cp := *run
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockIngestRunStore) Latest(ctx context.Context) (*domain.IngestRun, error) {
	runs, err := m.List(ctx, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return runs[0], nil
}
