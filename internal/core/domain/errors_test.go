package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrInvalidInput", ErrInvalidInput, "invalid input"},
		{"ErrConfiguration", ErrConfiguration, "configuration error"},
		{"ErrInvalidProvider", ErrInvalidProvider, "invalid provider"},
		{"ErrServiceUnavailable", ErrServiceUnavailable, "service unavailable"},
		{"ErrIndexNotReady", ErrIndexNotReady, "index not built: run ingestion first"},
		{"ErrIndexConsistency", ErrIndexConsistency, "index consistency violated"},
		{"ErrDimensionMismatch", ErrDimensionMismatch, "embedding dimension mismatch"},
		{"ErrEmbeddingModelMismatch", ErrEmbeddingModelMismatch, "embedding model mismatch"},
		{"ErrIngestionInProgress", ErrIngestionInProgress, "ingestion already in progress"},
		{"ErrNoDocuments", ErrNoDocuments, "no documents to index"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, tt.err.Error())
			}
		})
	}
}

func TestErrorsAreDistinct(t *testing.T) {
	allErrors := []error{
		ErrNotFound,
		ErrInvalidInput,
		ErrConfiguration,
		ErrInvalidProvider,
		ErrServiceUnavailable,
		ErrIndexNotReady,
		ErrIndexConsistency,
		ErrDimensionMismatch,
		ErrEmbeddingModelMismatch,
		ErrIngestionInProgress,
		ErrNoDocuments,
	}

	for i, err1 := range allErrors {
		for j, err2 := range allErrors {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("errors should be distinct: %v and %v", err1, err2)
			}
		}
	}
}

func TestErrorsIs_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("load snapshot: %w", ErrIndexConsistency)
	if !errors.Is(wrapped, ErrIndexConsistency) {
		t.Error("expected wrapped error to match ErrIndexConsistency")
	}
	if errors.Is(wrapped, ErrIndexNotReady) {
		t.Error("wrapped consistency error should not match ErrIndexNotReady")
	}
}

func TestServiceCallError(t *testing.T) {
	err := NewServiceCallError("embedding", "embed", context.DeadlineExceeded)

	if !errors.Is(err, ErrServiceUnavailable) {
		t.Error("expected service call error to match ErrServiceUnavailable")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected service call error to unwrap to the cause")
	}
	if err.Error() != "embedding embed failed: context deadline exceeded" {
		t.Errorf("unexpected message %q", err.Error())
	}

	var sce *ServiceCallError
	if !errors.As(fmt.Errorf("query: %w", err), &sce) {
		t.Fatal("expected errors.As to find ServiceCallError")
	}
	if sce.Service != "embedding" {
		t.Errorf("expected service embedding, got %s", sce.Service)
	}
}

func TestServiceCallError_StatusCode(t *testing.T) {
	err := &ServiceCallError{Service: "llm", Op: "chat", StatusCode: 429, Retryable: true, Err: errors.New("rate limited")}

	if !strings.Contains(err.Error(), "status 429") {
		t.Errorf("expected status code in message, got %q", err.Error())
	}
}
