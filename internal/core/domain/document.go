package domain

import (
	"fmt"
	"strings"
)

// Document is a source file after text extraction. It lives only until it is chunked.
type Document struct {
	Path     string `json:"path"` // Path relative to the document directory
	MimeType string `json:"mime_type"`
	Text     string `json:"text"`
}

// Chunk is a bounded substring of a document, the unit of embedding and retrieval.
// Offsets are rune offsets into the normalised document text.
type Chunk struct {
	SourcePath  string `json:"source_path"`
	Index       int    `json:"chunk_index"` // Ordinal within the source document
	Text        string `json:"text"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
}

// Record returns the metadata record persisted alongside the chunk's vector.
func (c *Chunk) Record() MetadataRecord {
	return MetadataRecord{
		SourcePath: c.SourcePath,
		ChunkIndex: c.Index,
		Text:       c.Text,
	}
}

// MetadataRecord is the fixed, ordered record paired with an index entry.
// Record i describes vector i.
type MetadataRecord struct {
	SourcePath string `json:"source_path"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
}

// Validate checks the record's fields. Used when records are appended and loaded.
func (r *MetadataRecord) Validate() error {
	if strings.TrimSpace(r.SourcePath) == "" {
		return fmt.Errorf("%w: record has empty source_path", ErrInvalidInput)
	}
	if r.ChunkIndex < 0 {
		return fmt.Errorf("%w: record has negative chunk_index %d", ErrInvalidInput, r.ChunkIndex)
	}
	if r.Text == "" {
		return fmt.Errorf("%w: record for %s#%d has empty text", ErrInvalidInput, r.SourcePath, r.ChunkIndex)
	}
	return nil
}
