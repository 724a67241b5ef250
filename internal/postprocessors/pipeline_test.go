package postprocessors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

func TestNewPipeline(t *testing.T) {
	p := NewPipeline()
	if p == nil {
		t.Fatal("expected non-nil pipeline")
	}
	if len(p.processors) != 0 {
		t.Errorf("expected empty processors, got %d", len(p.processors))
	}
}

func TestPipeline_Add(t *testing.T) {
	p := NewPipeline()

	p.Add(NewDeduplicator(DefaultDeduplicatorConfig()))
	p.Add(NewWhitespaceNormalizer())
	p.Add(mustChunker(t, 100, 10))

	p.Process("x")
	names := p.List()
	want := []string{"chunker", "whitespace-normalizer", "deduplicator"}
	if len(names) != len(want) {
		t.Fatalf("expected %d processors, got %d", len(want), len(names))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], names[i])
		}
	}
}

func TestPipeline_Process_EmptyContent(t *testing.T) {
	p := DefaultPipeline()

	if chunks := p.Process(""); len(chunks) != 0 {
		t.Errorf("expected 0 chunks, got %d", len(chunks))
	}
}

func TestPipeline_Process_SmallContent(t *testing.T) {
	p := DefaultPipeline()

	chunks := p.Process("Hello, world!")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Content != "Hello, world!" {
		t.Errorf("expected content 'Hello, world!', got %q", chunks[0].Content)
	}
	if chunks[0].EndOffset != 13 {
		t.Errorf("expected end offset 13, got %d", chunks[0].EndOffset)
	}
}

func TestPipeline_Process_LargeContent(t *testing.T) {
	p := NewPipeline()
	p.Add(mustChunker(t, 100, 20))

	content := strings.Repeat("This is a test sentence. ", 20) // 500 runes
	chunks := p.Process(content)

	// step 80: windows start at 0, 80, ..., 400
	if len(chunks) != 6 {
		t.Fatalf("expected 6 chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		if cur.StartOffset != prev.EndOffset-20 {
			t.Errorf("chunk %d: expected 20-rune overlap, start %d previous end %d", i, cur.StartOffset, prev.EndOffset)
		}
	}
}

func TestDefaultPipeline(t *testing.T) {
	p := DefaultPipeline()
	names := p.List()
	if len(names) != 1 || names[0] != "chunker" {
		t.Errorf("expected [chunker], got %v", names)
	}
}

func TestDefaultChunkConfig(t *testing.T) {
	config := DefaultChunkConfig()

	if config.MaxChunkSize != 1000 {
		t.Errorf("expected MaxChunkSize 1000, got %d", config.MaxChunkSize)
	}
	if config.Overlap != 200 {
		t.Errorf("expected Overlap 200, got %d", config.Overlap)
	}
}

func TestNewConfiguredPipeline(t *testing.T) {
	p, err := NewConfiguredPipeline(Options{
		Chunk:       ChunkConfig{MaxChunkSize: 50, Overlap: 10},
		Deduplicate: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	names := p.List()
	if len(names) != 2 {
		t.Errorf("expected chunker and deduplicator, got %v", names)
	}

	p, err = NewConfiguredPipeline(Options{
		Chunk:       ChunkConfig{MaxChunkSize: 50, Overlap: 10},
		Deduplicate: true,
		Whitespace:  true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"chunker", "whitespace-normalizer", "deduplicator"}
	if names := p.List(); strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, names)
	}

	// Whitespace-only windows are dropped once the normalizer is on
	chunks := p.Process("hello" + strings.Repeat(" ", 120))
	if len(chunks) != 1 || chunks[0].Content != "hello" {
		t.Errorf("expected a single trimmed chunk, got %+v", chunks)
	}

	if _, err := NewConfiguredPipeline(Options{Chunk: ChunkConfig{MaxChunkSize: 10, Overlap: 10}}); err == nil {
		t.Error("expected invalid chunk config to be rejected")
	}
}

func TestPipeline_IntegrationFullPipeline(t *testing.T) {
	p, err := NewConfiguredPipeline(Options{
		Chunk:       ChunkConfig{MaxChunkSize: 60, Overlap: 0},
		Deduplicate: true,
		Whitespace:  true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	block := fmt.Sprintf("%-60s", "Expense reports are due within thirty days of travel end.")
	content := block + block + "  This paragraph has   extra    whitespace   to normalise."

	chunks := p.Process(content)

	if len(chunks) != 2 {
		t.Fatalf("expected duplicate window to be removed leaving 2 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if strings.Contains(chunk.Content, "  ") {
			t.Errorf("chunk %d contains repeated spaces: %q", i, chunk.Content)
		}
	}
	if chunks[1].Position != 2 {
		t.Errorf("expected surviving chunk to keep position 2, got %d", chunks[1].Position)
	}
}

// Verify interface compliance
func TestInterfaceCompliance(t *testing.T) {
	var _ driven.PostProcessorPipeline = (*Pipeline)(nil)
	var _ driven.PostProcessor = (*Chunker)(nil)
	var _ driven.PostProcessor = (*Deduplicator)(nil)
	var _ driven.PostProcessor = (*WhitespaceNormalizer)(nil)
}
