package postprocessors

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

func mustChunker(t *testing.T, size, overlap int) *Chunker {
	t.Helper()
	c, err := NewChunker(ChunkConfig{MaxChunkSize: size, Overlap: overlap})
	if err != nil {
		t.Fatalf("NewChunker(%d, %d) failed: %v", size, overlap, err)
	}
	return c
}

func collect(c *Chunker, text string) []driven.Chunk {
	var out []driven.Chunk
	for chunk := range c.Chunks(text) {
		out = append(out, chunk)
	}
	return out
}

func TestChunkConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  ChunkConfig
		wantErr bool
	}{
		{"default", DefaultChunkConfig(), false},
		{"no overlap", ChunkConfig{MaxChunkSize: 10, Overlap: 0}, false},
		{"max overlap", ChunkConfig{MaxChunkSize: 10, Overlap: 9}, false},
		{"zero size", ChunkConfig{MaxChunkSize: 0, Overlap: 0}, true},
		{"negative overlap", ChunkConfig{MaxChunkSize: 10, Overlap: -1}, true},
		{"overlap equals size", ChunkConfig{MaxChunkSize: 10, Overlap: 10}, true},
		{"overlap exceeds size", ChunkConfig{MaxChunkSize: 10, Overlap: 20}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr && !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNewChunker_RejectsInvalidConfig(t *testing.T) {
	if _, err := NewChunker(ChunkConfig{MaxChunkSize: 5, Overlap: 5}); err == nil {
		t.Error("expected error for overlap >= size")
	}
}

func TestChunker_EmptyAndWhitespace(t *testing.T) {
	c := mustChunker(t, 10, 2)

	for _, text := range []string{"", " ", "\n\t  \n"} {
		if got := collect(c, text); len(got) != 0 {
			t.Errorf("expected no chunks for %q, got %d", text, len(got))
		}
	}
}

func TestChunker_ShortDocumentSingleChunk(t *testing.T) {
	c := mustChunker(t, 100, 20)

	got := collect(c, "short text")
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got))
	}
	if got[0].Content != "short text" {
		t.Errorf("expected whole text, got %q", got[0].Content)
	}
	if got[0].StartOffset != 0 || got[0].EndOffset != 10 {
		t.Errorf("unexpected offsets [%d, %d)", got[0].StartOffset, got[0].EndOffset)
	}
}

func TestChunker_ExactWindowLength(t *testing.T) {
	c := mustChunker(t, 10, 3)

	got := collect(c, "0123456789")
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk for text equal to window, got %d", len(got))
	}
}

func TestChunker_WindowsAndOverlap(t *testing.T) {
	c := mustChunker(t, 4, 1)

	got := collect(c, "abcdefghij")
	want := []string{"abcd", "defg", "ghij"}

	if len(got) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Content != w {
			t.Errorf("chunk %d: expected %q, got %q", i, w, got[i].Content)
		}
		if got[i].Position != i {
			t.Errorf("chunk %d: expected position %d, got %d", i, i, got[i].Position)
		}
	}
}

func TestChunker_ShortTail(t *testing.T) {
	c := mustChunker(t, 4, 1)

	got := collect(c, "abcdefgh")
	want := []string{"abcd", "defg", "gh"}

	if len(got) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Content != w {
			t.Errorf("chunk %d: expected %q, got %q", i, w, got[i].Content)
		}
	}
}

func TestChunker_OverlapProperty(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 60)
	configs := []ChunkConfig{{100, 0}, {100, 20}, {250, 249}, {1000, 200}, {7, 3}}

	for _, cfg := range configs {
		c := mustChunker(t, cfg.MaxChunkSize, cfg.Overlap)
		chunks := collect(c, text)

		for i, chunk := range chunks {
			n := utf8.RuneCountInString(chunk.Content)
			if n > cfg.MaxChunkSize {
				t.Fatalf("%+v chunk %d: length %d exceeds window", cfg, i, n)
			}
			if i < len(chunks)-1 && n != cfg.MaxChunkSize {
				t.Fatalf("%+v chunk %d: non-final chunk has length %d", cfg, i, n)
			}
			if i == 0 {
				continue
			}
			prev := []rune(chunks[i-1].Content)
			cur := []rune(chunk.Content)
			if cfg.Overlap > 0 && string(prev[len(prev)-cfg.Overlap:]) != string(cur[:cfg.Overlap]) {
				t.Fatalf("%+v chunk %d: overlap mismatch", cfg, i)
			}
			if chunk.StartOffset != chunks[i-1].EndOffset-cfg.Overlap {
				t.Fatalf("%+v chunk %d: start %d, previous end %d", cfg, i, chunk.StartOffset, chunks[i-1].EndOffset)
			}
		}

		last := chunks[len(chunks)-1]
		if last.EndOffset != utf8.RuneCountInString(text) {
			t.Errorf("%+v: last chunk ends at %d, text has %d runes", cfg, last.EndOffset, utf8.RuneCountInString(text))
		}
	}
}

func TestChunker_ReconstructsText(t *testing.T) {
	text := "Line one.\n\nLine two has more words in it.\nLine three."
	c := mustChunker(t, 8, 3)

	var b strings.Builder
	for chunk := range c.Chunks(text) {
		runes := []rune(chunk.Content)
		if chunk.Position == 0 {
			b.WriteString(string(runes))
		} else {
			b.WriteString(string(runes[3:]))
		}
	}
	if b.String() != text {
		t.Errorf("expected reconstruction %q, got %q", text, b.String())
	}
}

func TestChunker_Deterministic(t *testing.T) {
	text := strings.Repeat("déjà vu 日本語 ", 50)
	c := mustChunker(t, 33, 7)

	first := collect(c, text)
	second := collect(c, text)

	if len(first) != len(second) {
		t.Fatalf("expected identical chunk counts, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestChunker_MultiByteRunes(t *testing.T) {
	c := mustChunker(t, 2, 0)

	got := collect(c, "日本語")
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(got))
	}
	if got[0].Content != "日本" || got[1].Content != "語" {
		t.Errorf("expected rune windows, got %q and %q", got[0].Content, got[1].Content)
	}
	if !utf8.ValidString(got[0].Content) || !utf8.ValidString(got[1].Content) {
		t.Error("expected chunks to be valid UTF-8")
	}
}

func TestChunker_EarlyBreak(t *testing.T) {
	c := mustChunker(t, 2, 0)

	n := 0
	for range c.Chunks("abcdefghij") {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("expected to stop after 2 chunks, got %d", n)
	}
}

func TestChunker_ProcessAppliesBaseOffset(t *testing.T) {
	c := mustChunker(t, 3, 0)

	got := c.Process([]driven.Chunk{
		{Content: "abcdef", StartOffset: 10, Metadata: map[string]string{"k": "v"}},
	})

	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(got))
	}
	if got[1].StartOffset != 13 || got[1].EndOffset != 16 {
		t.Errorf("expected offsets [13, 16), got [%d, %d)", got[1].StartOffset, got[1].EndOffset)
	}
	if got[1].Metadata["k"] != "v" {
		t.Error("expected metadata to be carried")
	}
}

func TestChunker_NameAndOrder(t *testing.T) {
	c := mustChunker(t, 10, 0)
	if c.Name() != "chunker" {
		t.Errorf("expected name 'chunker', got %s", c.Name())
	}
	if c.Order() != 0 {
		t.Errorf("expected order 0, got %d", c.Order())
	}
}
