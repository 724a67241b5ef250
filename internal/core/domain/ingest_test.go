package domain

import (
	"testing"
	"time"
)

func TestIngestStatusConstants(t *testing.T) {
	if IngestStatusRunning != "running" {
		t.Errorf("expected IngestStatusRunning = 'running', got %s", IngestStatusRunning)
	}
	if IngestStatusCompleted != "completed" {
		t.Errorf("expected IngestStatusCompleted = 'completed', got %s", IngestStatusCompleted)
	}
	if IngestStatusFailed != "failed" {
		t.Errorf("expected IngestStatusFailed = 'failed', got %s", IngestStatusFailed)
	}
}

func TestIngestRun_Duration(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	run := &IngestRun{ID: "run-1", Status: IngestStatusRunning, StartedAt: start}

	if run.Duration() != 0 {
		t.Errorf("expected zero duration while running, got %v", run.Duration())
	}

	done := start.Add(90 * time.Second)
	run.CompletedAt = &done
	if run.Duration() != 90*time.Second {
		t.Errorf("expected 90s, got %v", run.Duration())
	}
}
