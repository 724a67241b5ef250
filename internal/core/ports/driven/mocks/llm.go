package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

var _ driven.LLMService = (*MockLLMService)(nil)

// MockLLMService is a mock implementation of LLMService for testing.
// Without CompleteFn it replies with a fixed answer.
type MockLLMService struct {
	mu       sync.Mutex
	model    string
	requests []driven.ChatRequest

	CompleteFn func(req driven.ChatRequest) (string, error)
	PingFn     func() error
}

// NewMockLLMService creates a new MockLLMService
func NewMockLLMService() *MockLLMService {
	return &MockLLMService{model: "mock-chat-model"}
}

func (m *MockLLMService) Complete(ctx context.Context, req driven.ChatRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	fn := m.CompleteFn
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if fn != nil {
		return fn(req)
	}
	return "mock answer [1]", nil
}

func (m *MockLLMService) Model() string {
	return m.model
}

func (m *MockLLMService) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn()
	}
	return nil
}

func (m *MockLLMService) Close() error {
	return nil
}

// Calls returns the number of Complete calls
func (m *MockLLMService) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastRequest returns the most recent request, or nil
func (m *MockLLMService) LastRequest() *driven.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	req := m.requests[len(m.requests)-1]
	return &req
}
