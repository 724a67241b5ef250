package domain

import (
	"fmt"
	"sync"
)

// IndexState is the lifecycle state of the pipeline's index
type IndexState string

const (
	IndexStateEmpty     IndexState = "empty"     // No index built or loaded; queries are rejected
	IndexStateIngesting IndexState = "ingesting" // A rebuild is running; the previous index, if any, keeps serving
	IndexStateReady     IndexState = "ready"     // A consistent index is loaded
)

// RuntimeConfig tracks the index lifecycle and which services are available.
// Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	LockBackend string // "redis", "postgres" or "memory"

	state IndexState
	// state to return to if the running ingestion fails
	previous IndexState

	// Dynamic capability flags (updated when AI services change)
	embeddingAvailable bool
	llmAvailable       bool
}

// NewRuntimeConfig creates a new RuntimeConfig in the EMPTY state
func NewRuntimeConfig(lockBackend string) *RuntimeConfig {
	return &RuntimeConfig{
		LockBackend: lockBackend,
		state:       IndexStateEmpty,
	}
}

// State returns the current index state
func (c *RuntimeConfig) State() IndexState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsReady reports whether queries may be served
func (c *RuntimeConfig) IsReady() bool {
	return c.State() == IndexStateReady
}

// BeginIngest moves EMPTY or READY to INGESTING.
func (c *RuntimeConfig) BeginIngest() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == IndexStateIngesting {
		return ErrIngestionInProgress
	}
	c.previous = c.state
	c.state = IndexStateIngesting
	return nil
}

// CompleteIngest moves INGESTING to READY.
func (c *RuntimeConfig) CompleteIngest() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != IndexStateIngesting {
		return fmt.Errorf("%w: complete ingest from state %s", ErrInvalidInput, c.state)
	}
	c.state = IndexStateReady
	return nil
}

// AbortIngest returns INGESTING to the state it was entered from.
func (c *RuntimeConfig) AbortIngest() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == IndexStateIngesting {
		c.state = c.previous
	}
}

// MarkLoaded moves EMPTY to READY after a persisted index was loaded at startup.
func (c *RuntimeConfig) MarkLoaded() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != IndexStateEmpty {
		return fmt.Errorf("%w: load index from state %s", ErrInvalidInput, c.state)
	}
	c.state = IndexStateReady
	return nil
}

// EmbeddingAvailable returns whether embedding service is available
func (c *RuntimeConfig) EmbeddingAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.embeddingAvailable
}

// LLMAvailable returns whether LLM service is available
func (c *RuntimeConfig) LLMAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.llmAvailable
}

// SetEmbeddingAvailable updates the embedding availability flag
func (c *RuntimeConfig) SetEmbeddingAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.embeddingAvailable = available
}

// SetLLMAvailable updates the LLM availability flag
func (c *RuntimeConfig) SetLLMAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.llmAvailable = available
}

// CanRetrieve returns true if a query can be embedded and searched
func (c *RuntimeConfig) CanRetrieve() bool {
	return c.IsReady() && c.EmbeddingAvailable()
}

// CanAnswer returns true if retrieved passages can be turned into an answer
func (c *RuntimeConfig) CanAnswer() bool {
	return c.CanRetrieve() && c.LLMAvailable()
}
