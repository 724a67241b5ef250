package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

var _ driven.DocumentSource = (*MockDocumentSource)(nil)

// MockDocumentSource serves documents from memory, keyed by path
type MockDocumentSource struct {
	mu   sync.RWMutex
	docs map[string]*domain.Document

	ListFn func(dir string) ([]string, error)
	ReadFn func(path string) (*domain.Document, error)
}

// NewMockDocumentSource creates a new MockDocumentSource
func NewMockDocumentSource() *MockDocumentSource {
	return &MockDocumentSource{
		docs: make(map[string]*domain.Document),
	}
}

// Add registers a plain-text document
func (m *MockDocumentSource) Add(path, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[path] = &domain.Document{Path: path, MimeType: "text/plain", Text: text}
}

func (m *MockDocumentSource) List(ctx context.Context, dir string) ([]string, error) {
	if m.ListFn != nil {
		return m.ListFn(dir)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.docs))
	for p := range m.docs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func (m *MockDocumentSource) Read(ctx context.Context, dir, path string) (*domain.Document, error) {
	if m.ReadFn != nil {
		return m.ReadFn(path)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}
