package domain

import (
	"fmt"
	"time"
)

// AIProvider identifies the AI/embedding provider
type AIProvider string

const (
	AIProviderOpenAI AIProvider = "openai"
	AIProviderOllama AIProvider = "ollama"
)

// EmbeddingSettings configures the embedding service
type EmbeddingSettings struct {
	Provider   AIProvider `json:"provider"`
	Model      string     `json:"model"`
	APIKey     string     `json:"-"` // Never serialize to JSON
	BaseURL    string     `json:"base_url,omitempty"`
	Dimensions int        `json:"dimensions,omitempty"` // 0 means the model default
	BatchSize  int        `json:"batch_size"`
}

// DefaultEmbeddingSettings returns the default embedding configuration
func DefaultEmbeddingSettings() EmbeddingSettings {
	return EmbeddingSettings{
		Provider:  AIProviderOpenAI,
		Model:     "text-embedding-3-small",
		BatchSize: 64,
	}
}

// IsConfigured returns true if embedding settings are properly configured
func (e *EmbeddingSettings) IsConfigured() bool {
	if e.Provider == "" || e.Model == "" {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings configures the chat service
type LLMSettings struct {
	Provider    AIProvider `json:"provider"`
	Model       string     `json:"model"`
	APIKey      string     `json:"-"` // Never serialize to JSON
	BaseURL     string     `json:"base_url,omitempty"`
	Temperature float32    `json:"temperature"`
}

// DefaultLLMSettings returns the default chat configuration
func DefaultLLMSettings() LLMSettings {
	return LLMSettings{
		Provider:    AIProviderOpenAI,
		Model:       "gpt-4o-mini",
		Temperature: 0.2,
	}
}

// IsConfigured returns true if LLM settings are properly configured
func (l *LLMSettings) IsConfigured() bool {
	if l.Provider == "" || l.Model == "" {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RequiresAPIKey returns true if this provider requires an API key
func (p AIProvider) RequiresAPIKey() bool {
	switch p {
	case AIProviderOllama:
		return false // Self-hosted, no API key needed
	default:
		return true
	}
}

// IsValid returns true if this is a known provider
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderOllama:
		return true
	default:
		return false
	}
}

// CallPolicy bounds every call to an external service
type CallPolicy struct {
	Timeout    time.Duration `json:"timeout"`
	MaxRetries int           `json:"max_retries"`
	RatePerSec float64       `json:"rate_per_sec"` // 0 disables rate limiting
}

// DefaultCallPolicy returns the default external call policy
func DefaultCallPolicy() CallPolicy {
	return CallPolicy{
		Timeout:    60 * time.Second,
		MaxRetries: 3,
		RatePerSec: 5,
	}
}

// AISettings holds embedding and chat service configuration
type AISettings struct {
	Embedding EmbeddingSettings `json:"embedding"`
	LLM       LLMSettings       `json:"llm"`
	Policy    CallPolicy        `json:"policy"`
}

// Validate checks if AISettings are valid
func (s *AISettings) Validate() error {
	if !s.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: embedding provider %q", ErrInvalidProvider, s.Embedding.Provider)
	}
	if !s.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: llm provider %q", ErrInvalidProvider, s.LLM.Provider)
	}
	if s.Embedding.BatchSize <= 0 {
		return fmt.Errorf("%w: embedding batch size must be positive", ErrInvalidInput)
	}
	if s.LLM.Temperature < 0 || s.LLM.Temperature > 2 {
		return fmt.Errorf("%w: temperature %.2f out of range [0, 2]", ErrInvalidInput, s.LLM.Temperature)
	}
	return nil
}
