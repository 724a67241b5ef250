package domain

import (
	"errors"
	"testing"
)

func TestChunk_Record(t *testing.T) {
	chunk := &Chunk{
		SourcePath:  "policies/travel.md",
		Index:       3,
		Text:        "Meals are reimbursed up to 50 EUR per day.",
		StartOffset: 2400,
		EndOffset:   2442,
	}

	rec := chunk.Record()
	if rec.SourcePath != "policies/travel.md" {
		t.Errorf("expected source path policies/travel.md, got %s", rec.SourcePath)
	}
	if rec.ChunkIndex != 3 {
		t.Errorf("expected chunk index 3, got %d", rec.ChunkIndex)
	}
	if rec.Text != chunk.Text {
		t.Errorf("expected text to be carried verbatim, got %q", rec.Text)
	}
}

func TestMetadataRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		record  MetadataRecord
		wantErr bool
	}{
		{"valid", MetadataRecord{SourcePath: "a.txt", ChunkIndex: 0, Text: "hello"}, false},
		{"empty source", MetadataRecord{SourcePath: "  ", ChunkIndex: 0, Text: "hello"}, true},
		{"negative index", MetadataRecord{SourcePath: "a.txt", ChunkIndex: -1, Text: "hello"}, true},
		{"empty text", MetadataRecord{SourcePath: "a.txt", ChunkIndex: 2, Text: ""}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
