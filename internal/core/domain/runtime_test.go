package domain

import (
	"errors"
	"sync"
	"testing"
)

func TestNewRuntimeConfig(t *testing.T) {
	config := NewRuntimeConfig("memory")

	if config == nil {
		t.Fatal("expected non-nil config")
	}
	if config.LockBackend != "memory" {
		t.Errorf("expected memory, got %s", config.LockBackend)
	}
	if config.State() != IndexStateEmpty {
		t.Errorf("expected empty state, got %s", config.State())
	}
	if config.IsReady() {
		t.Error("expected config not to be ready initially")
	}
}

func TestRuntimeConfig_IngestLifecycle(t *testing.T) {
	config := NewRuntimeConfig("memory")

	if err := config.BeginIngest(); err != nil {
		t.Fatalf("BeginIngest failed: %v", err)
	}
	if config.State() != IndexStateIngesting {
		t.Errorf("expected ingesting, got %s", config.State())
	}

	// Second writer is rejected
	if err := config.BeginIngest(); !errors.Is(err, ErrIngestionInProgress) {
		t.Errorf("expected ErrIngestionInProgress, got %v", err)
	}

	if err := config.CompleteIngest(); err != nil {
		t.Fatalf("CompleteIngest failed: %v", err)
	}
	if !config.IsReady() {
		t.Errorf("expected ready, got %s", config.State())
	}

	// READY -> INGESTING -> READY
	if err := config.BeginIngest(); err != nil {
		t.Fatalf("BeginIngest from ready failed: %v", err)
	}
	if err := config.CompleteIngest(); err != nil {
		t.Fatalf("CompleteIngest failed: %v", err)
	}
	if !config.IsReady() {
		t.Errorf("expected ready, got %s", config.State())
	}
}

func TestRuntimeConfig_AbortIngestRestoresPreviousState(t *testing.T) {
	tests := []struct {
		name  string
		ready bool
		want  IndexState
	}{
		{"from empty", false, IndexStateEmpty},
		{"from ready", true, IndexStateReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewRuntimeConfig("memory")
			if tt.ready {
				if err := config.MarkLoaded(); err != nil {
					t.Fatalf("MarkLoaded failed: %v", err)
				}
			}
			if err := config.BeginIngest(); err != nil {
				t.Fatalf("BeginIngest failed: %v", err)
			}

			config.AbortIngest()

			if config.State() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, config.State())
			}
		})
	}
}

func TestRuntimeConfig_CompleteWithoutBegin(t *testing.T) {
	config := NewRuntimeConfig("memory")

	if err := config.CompleteIngest(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if config.State() != IndexStateEmpty {
		t.Errorf("expected state unchanged, got %s", config.State())
	}
}

func TestRuntimeConfig_MarkLoadedOnlyFromEmpty(t *testing.T) {
	config := NewRuntimeConfig("memory")
	_ = config.BeginIngest()

	if err := config.MarkLoaded(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRuntimeConfig_Capabilities(t *testing.T) {
	config := NewRuntimeConfig("memory")

	config.SetEmbeddingAvailable(true)
	config.SetLLMAvailable(true)
	if config.CanRetrieve() {
		t.Error("expected CanRetrieve to be false before the index is ready")
	}

	_ = config.MarkLoaded()
	if !config.CanRetrieve() {
		t.Error("expected CanRetrieve to be true")
	}
	if !config.CanAnswer() {
		t.Error("expected CanAnswer to be true")
	}

	config.SetLLMAvailable(false)
	if config.CanAnswer() {
		t.Error("expected CanAnswer to be false without LLM")
	}
}

func TestRuntimeConfig_ConcurrentBegin(t *testing.T) {
	config := NewRuntimeConfig("memory")

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if config.BeginIngest() == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Errorf("expected exactly one ingestion to begin, got %d", winners)
	}
}
