package ai

import (
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Factory implements AIServiceFactory
var _ driven.AIServiceFactory = (*Factory)(nil)

// Factory creates AI services based on configuration.
// Every service it creates shares the same call policy.
type Factory struct {
	policy domain.CallPolicy
}

// NewFactory creates a new AI service factory
func NewFactory(policy domain.CallPolicy) *Factory {
	return &Factory{policy: policy}
}

// CreateEmbeddingService creates an embedding service from settings
func (f *Factory) CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		svc, err := NewOpenAIEmbedding(*settings, f.policy)
		if err != nil {
			return nil, err
		}
		return svc, nil
	case domain.AIProviderOllama:
		svc, err := NewOllamaEmbedding(*settings, f.policy)
		if err != nil {
			return nil, err
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
}

// CreateLLMService creates an LLM service from settings
func (f *Factory) CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		svc, err := NewOpenAILLM(*settings, f.policy)
		if err != nil {
			return nil, err
		}
		return svc, nil
	case domain.AIProviderOllama:
		svc, err := NewOllamaLLM(*settings, f.policy)
		if err != nil {
			return nil, err
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
}
