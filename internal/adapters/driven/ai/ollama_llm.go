package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure OllamaLLM implements LLMService
var _ driven.LLMService = (*OllamaLLM)(nil)

// OllamaLLM implements LLMService using Ollama's chat endpoint
type OllamaLLM struct {
	client      *api.Client
	httpClient  *http.Client
	model       string
	temperature float32
	caller      *caller
}

// NewOllamaLLM creates a new Ollama chat service
func NewOllamaLLM(settings domain.LLMSettings, policy domain.CallPolicy) (*OllamaLLM, error) {
	if settings.Model == "" {
		return nil, fmt.Errorf("%w: Ollama chat model is required", domain.ErrConfiguration)
	}
	client, httpClient, err := newOllamaClient(settings.BaseURL)
	if err != nil {
		return nil, err
	}
	return &OllamaLLM{
		client:      client,
		httpClient:  httpClient,
		model:       settings.Model,
		temperature: settings.Temperature,
		caller:      newCaller(serviceLLM, policy),
	}, nil
}

// Complete runs a non-streaming chat and returns the assistant's reply
func (l *OllamaLLM) Complete(ctx context.Context, req driven.ChatRequest) (string, error) {
	messages := make([]api.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, api.Message{Role: string(m.Role), Content: m.Content})
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = l.temperature
	}
	stream := false

	var reply strings.Builder
	err := l.caller.do(ctx, "complete", func(ctx context.Context) error {
		reply.Reset()
		return l.client.Chat(ctx, &api.ChatRequest{
			Model:    l.model,
			Messages: messages,
			Stream:   &stream,
			Options:  map[string]interface{}{"temperature": temperature},
		}, func(resp api.ChatResponse) error {
			reply.WriteString(resp.Message.Content)
			return nil
		})
	})
	if err != nil {
		return "", err
	}
	return reply.String(), nil
}

// Model returns the model name being used
func (l *OllamaLLM) Model() string {
	return l.model
}

// Ping verifies the daemon is reachable
func (l *OllamaLLM) Ping(ctx context.Context) error {
	return l.caller.do(ctx, "heartbeat", l.client.Heartbeat)
}

// Close releases idle connections
func (l *OllamaLLM) Close() error {
	l.httpClient.CloseIdleConnections()
	return nil
}
