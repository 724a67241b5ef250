package driven

import (
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// IndexStore holds vectors and their metadata records under positional IDs.
// Vector i and record i always describe the same chunk.
type IndexStore interface {
	// Append adds vectors and their records, returning the ID of the first new entry.
	// The batch is applied whole or not at all.
	Append(vectors [][]float32, records []domain.MetadataRecord) (int, error)

	// Search returns the k highest inner-product entries, best first.
	Search(query []float32, k int) ([]*domain.RankedChunk, error)

	// Len returns the number of entries
	Len() int

	// Dimension returns the vector dimension, or 0 while empty
	Dimension() int

	// Model returns the embedding model that produced the vectors
	Model() string
}
