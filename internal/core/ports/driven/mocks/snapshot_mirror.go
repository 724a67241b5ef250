package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

var _ driven.SnapshotMirror = (*MockSnapshotMirror)(nil)

// MockSnapshotMirror records published run IDs
type MockSnapshotMirror struct {
	mu        sync.Mutex
	published []string

	PublishFn func(indexRoot, runID string) error
	RestoreFn func(indexRoot string) (bool, error)
}

// NewMockSnapshotMirror creates a new MockSnapshotMirror
func NewMockSnapshotMirror() *MockSnapshotMirror {
	return &MockSnapshotMirror{}
}

func (m *MockSnapshotMirror) Publish(ctx context.Context, indexRoot, runID string) error {
	if m.PublishFn != nil {
		if err := m.PublishFn(indexRoot, runID); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, runID)
	return nil
}

func (m *MockSnapshotMirror) Restore(ctx context.Context, indexRoot string) (bool, error) {
	if m.RestoreFn != nil {
		return m.RestoreFn(indexRoot)
	}
	return false, nil
}

func (m *MockSnapshotMirror) Ping(ctx context.Context) error {
	return nil
}

// Published returns the run IDs passed to Publish
func (m *MockSnapshotMirror) Published() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.published...)
}
