package driven

import (
	"context"
)

// ChatRole is the author of a chat message
type ChatRole string

const (
	ChatRoleSystem    ChatRole = "system"
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one message of a chat completion request
type ChatMessage struct {
	Role    ChatRole
	Content string
}

// ChatRequest is a single, non-streaming chat completion request
type ChatRequest struct {
	Messages    []ChatMessage
	Temperature float32
}

// LLMService provides chat completion for answer generation
type LLMService interface {
	// Complete sends the messages and returns the assistant's full reply
	Complete(ctx context.Context, req ChatRequest) (string, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the LLM service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the LLM service
	Close() error
}
