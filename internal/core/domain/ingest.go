package domain

import "time"

// IngestStatus represents the state of an ingestion run
type IngestStatus string

const (
	IngestStatusRunning   IngestStatus = "running"
	IngestStatusCompleted IngestStatus = "completed"
	IngestStatusFailed    IngestStatus = "failed"
)

// IngestStats holds statistics for an ingestion run
type IngestStats struct {
	DocumentsFound   int `json:"documents_found"`
	DocumentsIndexed int `json:"documents_indexed"` // Documents contributing at least one chunk
	DocumentsSkipped int `json:"documents_skipped"` // Unreadable or unsupported files
	ChunksIndexed    int `json:"chunks_indexed"`
	EmbeddingBatches int `json:"embedding_batches"`
}

// IngestRun is the persisted record of one ingestion
type IngestRun struct {
	ID          string       `json:"id"`
	Status      IngestStatus `json:"status"`
	DocDir      string       `json:"doc_dir"`
	Model       string       `json:"model"`
	Dimension   int          `json:"dimension"`
	Stats       IngestStats  `json:"stats"`
	Error       string       `json:"error,omitempty"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// Duration returns how long the run took, or zero while it is running
func (r *IngestRun) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// IngestResult represents the outcome of an ingestion
type IngestResult struct {
	RunID    string      `json:"run_id"`
	Success  bool        `json:"success"`
	Stats    IngestStats `json:"stats"`
	Error    string      `json:"error,omitempty"`
	Duration float64     `json:"duration_seconds"`
}

// IndexStatus summarises the live index
type IndexStatus struct {
	State     IndexState `json:"state"`
	Entries   int        `json:"entries"`
	Dimension int        `json:"dimension"`
	Model     string     `json:"model,omitempty"`
	LastRun   *IngestRun `json:"last_run,omitempty"`
}
