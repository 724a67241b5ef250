package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration indicates a missing or malformed setting. Fatal at startup.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidProvider indicates an unknown AI provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates the AI service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrIndexNotReady indicates a query arrived before any index was built or loaded
	ErrIndexNotReady = errors.New("index not built: run ingestion first")

	// ErrIndexConsistency indicates the vector file and the metadata log disagree
	ErrIndexConsistency = errors.New("index consistency violated")

	// ErrDimensionMismatch indicates a vector does not match the index dimension
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingModelMismatch indicates the query embedder differs from the one that built the index
	ErrEmbeddingModelMismatch = errors.New("embedding model mismatch")

	// ErrIngestionInProgress indicates another ingestion holds the writer lock
	ErrIngestionInProgress = errors.New("ingestion already in progress")

	// ErrNoDocuments indicates ingestion produced no chunks to index
	ErrNoDocuments = errors.New("no documents to index")
)

// ServiceCallError reports a failed call to an external embedding or chat service.
// It never carries credentials.
type ServiceCallError struct {
	Service    string // "embedding" or "llm"
	Op         string
	StatusCode int // 0 when no HTTP response was received
	Retryable  bool
	Err        error
}

func (e *ServiceCallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s failed (status %d): %v", e.Service, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Service, e.Op, e.Err)
}

func (e *ServiceCallError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrServiceUnavailable) match any service call failure.
func (e *ServiceCallError) Is(target error) bool {
	return target == ErrServiceUnavailable
}

// NewServiceCallError wraps err as a failure of op against service.
func NewServiceCallError(service, op string, err error) *ServiceCallError {
	return &ServiceCallError{Service: service, Op: op, Err: err}
}
