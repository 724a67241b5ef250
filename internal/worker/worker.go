package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Worker rebuilds the index on a fixed interval.
// Several instances may run it; the ingest lock lets one of them win each tick.
type Worker struct {
	ingestion driving.IngestionService
	logger    *slog.Logger

	// Configuration
	interval   time.Duration
	runOnStart bool

	// Internal state
	mu       sync.RWMutex
	running  bool
	lastRun  time.Time
	lastErr  error
	runs     int
	stopCh   chan struct{}
	doneCh   chan struct{}
	tickerFn func(d time.Duration) (<-chan time.Time, func())
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	Ingestion  driving.IngestionService
	Logger     *slog.Logger
	Interval   time.Duration // Time between rebuilds; must be positive
	RunOnStart bool          // Rebuild immediately instead of waiting one interval
}

// NewWorker creates a new re-ingestion worker.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Hour
	}

	return &Worker{
		ingestion:  cfg.Ingestion,
		logger:     logger,
		interval:   interval,
		runOnStart: cfg.RunOnStart,
		tickerFn: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}
}

// Start begins the worker loop.
// It runs until Stop is called or context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	stop := make(chan struct{})
	done := make(chan struct{})
	w.stopCh = stop
	w.doneCh = done
	w.mu.Unlock()

	w.logger.Info("reindex worker starting",
		"interval", w.interval,
		"run_on_start", w.runOnStart,
	)

	go func() {
		defer func() {
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			close(done)
		}()
		w.loop(ctx, stop)
	}()

	return nil
}

// Stop gracefully stops the worker, waiting for a running ingestion to finish.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	if w.stopCh != nil {
		close(w.stopCh)
		w.stopCh = nil
	}
	done := w.doneCh
	w.mu.Unlock()

	<-done

	w.logger.Info("reindex worker stopped")
}

// Wait blocks until the worker stops. It returns at once if the worker was never started.
func (w *Worker) Wait() {
	w.mu.RLock()
	done := w.doneCh
	w.mu.RUnlock()
	if done != nil {
		<-done
	}
}

func (w *Worker) loop(ctx context.Context, stop <-chan struct{}) {
	ticks, stopTicker := w.tickerFn(w.interval)
	defer stopTicker()

	if w.runOnStart {
		w.runOnce(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reindex worker context cancelled")
			return
		case <-stop:
			return
		case <-ticks:
			w.runOnce(ctx)
		}
	}
}

// runOnce performs one rebuild. Failures are logged; the live index is untouched.
func (w *Worker) runOnce(ctx context.Context) {
	start := time.Now()
	result, err := w.ingestion.Ingest(ctx, "")

	w.mu.Lock()
	w.lastRun = start
	w.lastErr = err
	w.runs++
	w.mu.Unlock()

	switch {
	case err == nil:
		w.logger.Info("scheduled reindex completed",
			"run_id", result.RunID,
			"chunks", result.Stats.ChunksIndexed,
			"duration", time.Since(start),
		)
	case errors.Is(err, domain.ErrIngestionInProgress):
		w.logger.Info("scheduled reindex skipped: ingestion already running")
	case errors.Is(err, context.Canceled):
		w.logger.Info("scheduled reindex cancelled")
	default:
		w.logger.Error("scheduled reindex failed",
			"duration", time.Since(start),
			"error", err,
		)
	}
}

// Health returns health status of the worker.
type Health struct {
	Running   bool      `json:"running"`
	Runs      int       `json:"runs"`
	LastRun   time.Time `json:"last_run,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

// Health returns the health status of the worker.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	defer w.mu.RUnlock()

	health := Health{
		Running: w.running,
		Runs:    w.runs,
		LastRun: w.lastRun,
	}
	if w.lastErr != nil {
		health.LastError = w.lastErr.Error()
	}
	return health
}
