package postprocessors

import (
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline implements PostProcessorPipeline.
// It chains multiple post-processors in order, starting with a Chunker.
type Pipeline struct {
	mu         sync.RWMutex
	processors []driven.PostProcessor
	sorted     bool
}

// NewPipeline creates a new post-processor pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{
		processors: make([]driven.PostProcessor, 0),
	}
}

// Add adds a processor to the pipeline.
// Processors are sorted by Order() before processing.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processors = append(p.processors, processor)
	p.sorted = false
}

// Process applies all processors in order to the normalised document text.
func (p *Pipeline) Process(content string) []driven.Chunk {
	p.mu.Lock()
	if !p.sorted {
		sort.SliceStable(p.processors, func(i, j int) bool {
			return p.processors[i].Order() < p.processors[j].Order()
		})
		p.sorted = true
	}
	processors := make([]driven.PostProcessor, len(p.processors))
	copy(processors, p.processors)
	p.mu.Unlock()

	chunks := []driven.Chunk{
		{
			Content:     content,
			Position:    0,
			StartOffset: 0,
			EndOffset:   utf8.RuneCountInString(content),
		},
	}

	for _, proc := range processors {
		chunks = proc.Process(chunks)
	}

	return chunks
}

// List returns processor names in order.
func (p *Pipeline) List() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}

// DefaultPipeline creates a pipeline with the default chunker only.
func DefaultPipeline() *Pipeline {
	p := NewPipeline()
	c, _ := NewChunker(DefaultChunkConfig())
	p.Add(c)
	return p
}

// Options selects the processors of a configured pipeline.
type Options struct {
	Chunk       ChunkConfig
	Deduplicate bool
	Whitespace  bool
}

// NewConfiguredPipeline builds a pipeline from options, validating the chunk window.
func NewConfiguredPipeline(opts Options) (*Pipeline, error) {
	c, err := NewChunker(opts.Chunk)
	if err != nil {
		return nil, err
	}

	p := NewPipeline()
	p.Add(c)
	if opts.Whitespace {
		p.Add(NewWhitespaceNormalizer())
	}
	if opts.Deduplicate {
		p.Add(NewDeduplicator(DefaultDeduplicatorConfig()))
	}
	return p, nil
}
