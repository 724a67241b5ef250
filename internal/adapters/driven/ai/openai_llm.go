package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure OpenAILLM implements LLMService
var _ driven.LLMService = (*OpenAILLM)(nil)

const defaultOpenAIChatModel = "gpt-4o-mini"

// OpenAILLM implements LLMService using the chat completions API
type OpenAILLM struct {
	client      *openai.Client
	httpClient  *http.Client
	model       string
	temperature float32
	caller      *caller
}

// NewOpenAILLM creates a new OpenAI chat service
func NewOpenAILLM(settings domain.LLMSettings, policy domain.CallPolicy) (*OpenAILLM, error) {
	if settings.APIKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is required", domain.ErrConfiguration)
	}

	model := settings.Model
	if model == "" {
		model = defaultOpenAIChatModel
	}

	httpClient := &http.Client{}
	cfg := openai.DefaultConfig(settings.APIKey)
	if settings.BaseURL != "" {
		cfg.BaseURL = settings.BaseURL
	}
	cfg.HTTPClient = httpClient

	return &OpenAILLM{
		client:      openai.NewClientWithConfig(cfg),
		httpClient:  httpClient,
		model:       model,
		temperature: settings.Temperature,
		caller:      newCaller(serviceLLM, policy),
	}, nil
}

// Complete sends the conversation and returns the first choice's content.
// A zero request temperature falls back to the configured one.
func (l *OpenAILLM) Complete(ctx context.Context, req driven.ChatRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = l.temperature
	}
	// go-openai drops a zero temperature from the payload, which the API
	// reads as its default of 1.
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	var resp openai.ChatCompletionResponse
	err := l.caller.do(ctx, "complete", func(ctx context.Context) error {
		var err error
		resp, err = l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       l.model,
			Messages:    messages,
			Temperature: temperature,
		})
		return err
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", &domain.ServiceCallError{Service: serviceLLM, Op: "complete", Err: errors.New("no choices returned")}
	}
	return resp.Choices[0].Message.Content, nil
}

// Model returns the model name being used
func (l *OpenAILLM) Model() string {
	return l.model
}

// Ping verifies the configured model is reachable
func (l *OpenAILLM) Ping(ctx context.Context) error {
	return l.caller.do(ctx, "ping", func(ctx context.Context) error {
		_, err := l.client.GetModel(ctx, l.model)
		return err
	})
}

// Close releases idle connections
func (l *OpenAILLM) Close() error {
	l.httpClient.CloseIdleConnections()
	return nil
}
