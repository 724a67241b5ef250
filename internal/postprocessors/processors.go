package postprocessors

import (
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// DeduplicatorConfig configures the deduplicator.
type DeduplicatorConfig struct {
	// MinDuplicateLength is the minimum chunk length to check for duplicates
	MinDuplicateLength int
}

// DefaultDeduplicatorConfig returns sensible defaults.
func DefaultDeduplicatorConfig() DeduplicatorConfig {
	return DeduplicatorConfig{
		MinDuplicateLength: 50,
	}
}

// Deduplicator drops chunks whose text repeats an earlier chunk of the same document.
// Surviving chunks keep their original Position.
type Deduplicator struct {
	config DeduplicatorConfig
}

// Verify interface compliance
var _ driven.PostProcessor = (*Deduplicator)(nil)

// NewDeduplicator creates a new deduplicator with the given config.
func NewDeduplicator(config DeduplicatorConfig) *Deduplicator {
	return &Deduplicator{config: config}
}

// Process removes duplicate chunks.
func (d *Deduplicator) Process(chunks []driven.Chunk) []driven.Chunk {
	if len(chunks) <= 1 {
		return chunks
	}

	seen := make(map[string]struct{}, len(chunks))
	result := make([]driven.Chunk, 0, len(chunks))

	for _, chunk := range chunks {
		if len(chunk.Content) < d.config.MinDuplicateLength {
			result = append(result, chunk)
			continue
		}

		key := strings.ToLower(strings.Join(strings.Fields(chunk.Content), " "))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, chunk)
	}

	return result
}

// Name returns the processor name.
func (d *Deduplicator) Name() string {
	return "deduplicator"
}

// Order returns 10 - deduplicator runs after chunker.
func (d *Deduplicator) Order() int {
	return 10
}

// WhitespaceNormalizer collapses runs of spaces and blank lines inside chunks
// and drops chunks left empty. Offsets still refer to the unnormalised text.
type WhitespaceNormalizer struct{}

// Verify interface compliance
var _ driven.PostProcessor = (*WhitespaceNormalizer)(nil)

// NewWhitespaceNormalizer creates a new whitespace normalizer.
func NewWhitespaceNormalizer() *WhitespaceNormalizer {
	return &WhitespaceNormalizer{}
}

// Process normalizes whitespace in chunks.
func (w *WhitespaceNormalizer) Process(chunks []driven.Chunk) []driven.Chunk {
	result := make([]driven.Chunk, 0, len(chunks))

	for _, chunk := range chunks {
		content := strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(chunk.Content)

		lines := strings.Split(content, "\n")
		for i, line := range lines {
			lines[i] = strings.Join(strings.Fields(line), " ")
		}
		content = strings.Join(lines, "\n")

		for strings.Contains(content, "\n\n\n") {
			content = strings.ReplaceAll(content, "\n\n\n", "\n\n")
		}
		content = strings.TrimSpace(content)

		if content != "" {
			chunk.Content = content
			result = append(result, chunk)
		}
	}

	return result
}

// Name returns the processor name.
func (w *WhitespaceNormalizer) Name() string {
	return "whitespace-normalizer"
}

// Order returns 5 - runs between chunker and deduplicator.
func (w *WhitespaceNormalizer) Order() int {
	return 5
}
