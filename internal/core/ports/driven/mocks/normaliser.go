package mocks

import (
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Verify interface compliance
var (
	_ driven.Normaliser         = (*MockNormaliser)(nil)
	_ driven.NormaliserRegistry = (*MockNormaliserRegistry)(nil)
)

// MockNormaliser applies a fixed transform to one MIME type.
type MockNormaliser struct {
	MimeType  string
	Transform func(content string) string
}

func (m *MockNormaliser) Normalise(content string, mimeType string) string {
	if m.Transform == nil {
		return content
	}
	return m.Transform(content)
}

func (m *MockNormaliser) SupportedTypes() []string {
	return []string{m.MimeType}
}

func (m *MockNormaliser) Priority() int {
	return 50
}

// MockNormaliserRegistry is an exact-match NormaliserRegistry that records
// every MIME type it is asked for. Unknown types get no normaliser.
type MockNormaliserRegistry struct {
	mu      sync.Mutex
	byType  map[string]driven.Normaliser
	lookups []string
}

// NewMockNormaliserRegistry creates an empty registry.
func NewMockNormaliserRegistry() *MockNormaliserRegistry {
	return &MockNormaliserRegistry{byType: make(map[string]driven.Normaliser)}
}

// Handle registers transform for mimeType.
func (m *MockNormaliserRegistry) Handle(mimeType string, transform func(string) string) {
	m.Register(&MockNormaliser{MimeType: mimeType, Transform: transform})
}

func (m *MockNormaliserRegistry) Get(mimeType string) driven.Normaliser {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups = append(m.lookups, mimeType)
	return m.byType[mimeType]
}

func (m *MockNormaliserRegistry) GetAll(mimeType string) []driven.Normaliser {
	if n := m.Get(mimeType); n != nil {
		return []driven.Normaliser{n}
	}
	return nil
}

func (m *MockNormaliserRegistry) Register(normaliser driven.Normaliser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range normaliser.SupportedTypes() {
		m.byType[t] = normaliser
	}
}

func (m *MockNormaliserRegistry) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.byType))
	for t := range m.byType {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Lookups returns the MIME types passed to Get, in call order.
func (m *MockNormaliserRegistry) Lookups() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lookups...)
}
