package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.IngestRunStore = (*RunStore)(nil)

// DefaultRunRetention is the number of runs kept when none is given
const DefaultRunRetention = 100

// RunStore keeps the most recent ingestion runs in memory.
type RunStore struct {
	mu     sync.RWMutex
	runs   map[string]*domain.IngestRun
	retain int
}

// NewRunStore creates a RunStore holding at most retain runs.
// retain <= 0 uses DefaultRunRetention.
func NewRunStore(retain int) *RunStore {
	if retain <= 0 {
		retain = DefaultRunRetention
	}
	return &RunStore{
		runs:   make(map[string]*domain.IngestRun),
		retain: retain,
	}
}

func (s *RunStore) Save(ctx context.Context, run *domain.IngestRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *run
	s.runs[run.ID] = &cp

	if len(s.runs) > s.retain {
		for _, old := range s.sorted()[s.retain:] {
			delete(s.runs, old.ID)
		}
	}
	return nil
}

func (s *RunStore) Get(ctx context.Context, id string) (*domain.IngestRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *run
	return &cp, nil
}

func (s *RunStore) List(ctx context.Context, limit int) ([]*domain.IngestRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := s.sorted()
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	result := make([]*domain.IngestRun, len(sorted))
	for i, run := range sorted {
		cp := *run
		result[i] = &cp
	}
	return result, nil
}

func (s *RunStore) Latest(ctx context.Context) (*domain.IngestRun, error) {
	runs, err := s.List(ctx, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return runs[0], nil
}

// sorted returns the stored runs newest first. Callers hold the lock.
func (s *RunStore) sorted() []*domain.IngestRun {
	runs := make([]*domain.IngestRun, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].ID > runs[j].ID
		}
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	return runs
}
