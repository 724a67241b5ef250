package domain

import (
	"errors"
	"testing"
)

func TestDefaultEmbeddingSettings(t *testing.T) {
	s := DefaultEmbeddingSettings()

	if s.Provider != AIProviderOpenAI {
		t.Errorf("expected provider openai, got %s", s.Provider)
	}
	if s.Model != "text-embedding-3-small" {
		t.Errorf("expected model text-embedding-3-small, got %s", s.Model)
	}
	if s.BatchSize != 64 {
		t.Errorf("expected batch size 64, got %d", s.BatchSize)
	}
}

func TestDefaultLLMSettings(t *testing.T) {
	s := DefaultLLMSettings()

	if s.Model != "gpt-4o-mini" {
		t.Errorf("expected model gpt-4o-mini, got %s", s.Model)
	}
	if s.Temperature != 0.2 {
		t.Errorf("expected temperature 0.2, got %f", s.Temperature)
	}
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		want     bool
	}{
		{"empty", EmbeddingSettings{}, false},
		{"openai without key", EmbeddingSettings{Provider: AIProviderOpenAI, Model: "m"}, false},
		{"openai with key", EmbeddingSettings{Provider: AIProviderOpenAI, Model: "m", APIKey: "sk"}, true},
		{"ollama without key", EmbeddingSettings{Provider: AIProviderOllama, Model: "nomic-embed-text"}, true},
		{"missing model", EmbeddingSettings{Provider: AIProviderOllama}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.settings.IsConfigured(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings LLMSettings
		want     bool
	}{
		{"empty", LLMSettings{}, false},
		{"openai without key", LLMSettings{Provider: AIProviderOpenAI, Model: "gpt-4o-mini"}, false},
		{"openai with key", LLMSettings{Provider: AIProviderOpenAI, Model: "gpt-4o-mini", APIKey: "sk"}, true},
		{"ollama", LLMSettings{Provider: AIProviderOllama, Model: "llama3.2"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.settings.IsConfigured(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestAIProvider_IsValid(t *testing.T) {
	if !AIProviderOpenAI.IsValid() || !AIProviderOllama.IsValid() {
		t.Error("expected openai and ollama to be valid")
	}
	if AIProvider("cohere").IsValid() {
		t.Error("expected cohere to be invalid")
	}
}

func TestAISettings_Validate(t *testing.T) {
	valid := AISettings{
		Embedding: DefaultEmbeddingSettings(),
		LLM:       DefaultLLMSettings(),
		Policy:    DefaultCallPolicy(),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	badProvider := valid
	badProvider.LLM.Provider = "anthropic"
	if err := badProvider.Validate(); !errors.Is(err, ErrInvalidProvider) {
		t.Errorf("expected ErrInvalidProvider, got %v", err)
	}

	badBatch := valid
	badBatch.Embedding.BatchSize = 0
	if err := badBatch.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	badTemp := valid
	badTemp.LLM.Temperature = 3
	if err := badTemp.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
