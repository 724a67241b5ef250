package ai

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

const defaultOllamaURL = "http://localhost:11434"

// newOllamaClient builds an api.Client for baseURL, defaulting to the local daemon.
func newOllamaClient(baseURL string) (*api.Client, *http.Client, error) {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, nil, fmt.Errorf("%w: invalid Ollama URL %q", domain.ErrConfiguration, baseURL)
	}
	httpClient := &http.Client{}
	return api.NewClient(u, httpClient), httpClient, nil
}
