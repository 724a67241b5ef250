package postprocessors

import (
	"fmt"
	"iter"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// ChunkConfig configures the chunk window. Sizes are in runes.
type ChunkConfig struct {
	// MaxChunkSize is the window length
	MaxChunkSize int

	// Overlap is the number of runes shared by consecutive windows
	Overlap int
}

// DefaultChunkConfig returns sensible defaults.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChunkSize: 1000,
		Overlap:      200,
	}
}

// Validate requires MaxChunkSize > 0 and 0 <= Overlap < MaxChunkSize.
func (c ChunkConfig) Validate() error {
	if c.MaxChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidInput, c.MaxChunkSize)
	}
	if c.Overlap < 0 || c.Overlap >= c.MaxChunkSize {
		return fmt.Errorf("%w: chunk overlap must be in [0, %d), got %d", domain.ErrInvalidInput, c.MaxChunkSize, c.Overlap)
	}
	return nil
}

// Chunker splits text into fixed-size, overlapping rune windows.
// It does not look for sentence or paragraph boundaries.
// This is the first processor in the pipeline (Order = 0).
type Chunker struct {
	config ChunkConfig
}

// Verify interface compliance
var _ driven.PostProcessor = (*Chunker)(nil)

// NewChunker creates a new chunker with the given config.
func NewChunker(config ChunkConfig) (*Chunker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{config: config}, nil
}

// Config returns the chunk window configuration.
func (c *Chunker) Config() ChunkConfig {
	return c.config
}

// Chunks returns the windows of text as a lazy sequence. Each range over the
// sequence starts again from the beginning of text.
//
// Consecutive windows share exactly Overlap runes; the last window may be
// shorter. Text no longer than one window yields a single chunk, and empty or
// whitespace-only text yields none.
func (c *Chunker) Chunks(text string) iter.Seq[driven.Chunk] {
	return func(yield func(driven.Chunk) bool) {
		if strings.TrimSpace(text) == "" {
			return
		}

		runes := []rune(text)
		step := c.config.MaxChunkSize - c.config.Overlap

		for pos, start := 0, 0; ; pos, start = pos+1, start+step {
			end := min(start+c.config.MaxChunkSize, len(runes))
			chunk := driven.Chunk{
				Content:     string(runes[start:end]),
				Position:    pos,
				StartOffset: start,
				EndOffset:   end,
			}
			if !yield(chunk) || end == len(runes) {
				return
			}
		}
	}
}

// Process splits each input chunk into windows, numbering positions across the batch.
func (c *Chunker) Process(chunks []driven.Chunk) []driven.Chunk {
	var result []driven.Chunk
	position := 0

	for _, in := range chunks {
		for chunk := range c.Chunks(in.Content) {
			chunk.Position = position
			chunk.StartOffset += in.StartOffset
			chunk.EndOffset += in.StartOffset
			chunk.Metadata = in.Metadata
			result = append(result, chunk)
			position++
		}
	}

	return result
}

// Name returns the processor name.
func (c *Chunker) Name() string {
	return "chunker"
}

// Order returns 0 - chunker should be first.
func (c *Chunker) Order() int {
	return 0
}
