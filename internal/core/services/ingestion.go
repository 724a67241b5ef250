package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/index"
	"github.com/custodia-labs/sercha-rag/internal/runtime"
)

// Ensure IngestionService implements the driving port
var _ driving.IngestionService = (*IngestionService)(nil)

const (
	ingestLockName     = "ingest"
	defaultIngestTTL   = 30 * time.Minute
	defaultRunsListLen = 20
)

// IngestionService rebuilds the index from a document directory.
// Each run follows the same flow:
//  1. Take the ingest writer lock
//  2. Move the index state to INGESTING
//  3. List and read documents
//  4. Normalise → chunk each document
//  5. Embed every chunk into a fresh store
//  6. Save the snapshot and swap CURRENT atomically
//  7. Swap the live index and move to READY
//
// A failure at any step leaves the previous index live and on disk.
type IngestionService struct {
	source      driven.DocumentSource
	normalisers driven.NormaliserRegistry
	pipeline    driven.PostProcessorPipeline
	embedder    *Embedder
	lock        driven.DistributedLock
	runs        driven.IngestRunStore
	mirror      driven.SnapshotMirror
	services    *runtime.Services
	indexDir    string
	docDir      string
	lockTTL     time.Duration
	logger      *slog.Logger
}

// IngestionConfig holds dependencies for IngestionService.
type IngestionConfig struct {
	Source      driven.DocumentSource
	Normalisers driven.NormaliserRegistry
	Pipeline    driven.PostProcessorPipeline
	Embedder    *Embedder
	Lock        driven.DistributedLock
	Runs        driven.IngestRunStore
	Mirror      driven.SnapshotMirror // Optional
	Services    *runtime.Services
	IndexDir    string
	DocDir      string
	LockTTL     time.Duration
	Logger      *slog.Logger
}

// NewIngestionService creates a new ingestion service.
func NewIngestionService(cfg IngestionConfig) *IngestionService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = defaultIngestTTL
	}

	return &IngestionService{
		source:      cfg.Source,
		normalisers: cfg.Normalisers,
		pipeline:    cfg.Pipeline,
		embedder:    cfg.Embedder,
		lock:        cfg.Lock,
		runs:        cfg.Runs,
		mirror:      cfg.Mirror,
		services:    cfg.Services,
		indexDir:    cfg.IndexDir,
		docDir:      cfg.DocDir,
		lockTTL:     ttl,
		logger:      logger,
	}
}

// Ingest rebuilds the index from every supported document under dir.
// This is the main entry point for the ingestion pipeline.
func (o *IngestionService) Ingest(ctx context.Context, dir string) (*domain.IngestResult, error) {
	if dir == "" {
		dir = o.docDir
	}
	startTime := time.Now()

	// Step 1: Writer lock
	acquired, err := o.lock.Acquire(ctx, ingestLockName, o.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire ingest lock: %w", err)
	}
	if !acquired {
		o.logger.Warn("ingest lock held elsewhere", "doc_dir", dir)
		return nil, domain.ErrIngestionInProgress
	}
	defer func() {
		if err := o.lock.Release(context.WithoutCancel(ctx), ingestLockName); err != nil {
			o.logger.Warn("failed to release ingest lock", "error", err)
		}
	}()

	// Step 2: State transition
	config := o.services.Config()
	if err := config.BeginIngest(); err != nil {
		return nil, err
	}

	run := &domain.IngestRun{
		ID:        uuid.NewString(),
		Status:    domain.IngestStatusRunning,
		DocDir:    dir,
		Model:     o.embedder.Model(),
		StartedAt: startTime,
	}
	o.saveRun(ctx, run)

	o.logger.Info("starting ingestion", "run_id", run.ID, "doc_dir", dir, "model", run.Model)

	// Steps 3-5: Build a fresh store
	store, err := o.build(ctx, dir, &run.Stats)
	if err != nil {
		return o.failIngest(ctx, run, err)
	}

	// Step 6: Persist
	if err := index.Save(o.indexDir, store, run.ID); err != nil {
		if !errors.Is(err, index.ErrPruneFailed) {
			return o.failIngest(ctx, run, fmt.Errorf("failed to save index: %w", err))
		}
		// The new snapshot is live on disk; serve it too.
		o.logger.Warn("failed to prune old snapshots", "run_id", run.ID, "error", err)
	}

	// Step 7: Go live
	o.services.SwapIndex(store)
	if err := config.CompleteIngest(); err != nil {
		return o.failIngest(ctx, run, err)
	}

	completedAt := time.Now()
	run.Status = domain.IngestStatusCompleted
	run.Dimension = store.Dimension()
	run.CompletedAt = &completedAt
	o.saveRun(ctx, run)

	if o.mirror != nil {
		if err := o.mirror.Publish(ctx, o.indexDir, run.ID); err != nil {
			o.logger.Warn("failed to publish snapshot", "run_id", run.ID, "error", err)
		}
	}

	duration := time.Since(startTime).Seconds()

	o.logger.Info("ingestion completed",
		"run_id", run.ID,
		"duration_seconds", duration,
		"documents_found", run.Stats.DocumentsFound,
		"documents_indexed", run.Stats.DocumentsIndexed,
		"documents_skipped", run.Stats.DocumentsSkipped,
		"chunks_indexed", run.Stats.ChunksIndexed,
		"embedding_batches", run.Stats.EmbeddingBatches,
	)

	return &domain.IngestResult{
		RunID:    run.ID,
		Success:  true,
		Stats:    run.Stats,
		Duration: duration,
	}, nil
}

// build reads, normalises, chunks and embeds every document into a new store.
func (o *IngestionService) build(ctx context.Context, dir string, stats *domain.IngestStats) (*index.Store, error) {
	paths, err := o.source.List(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	stats.DocumentsFound = len(paths)

	var texts []string
	var records []domain.MetadataRecord

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := o.source.Read(ctx, dir, path)
		if err != nil {
			o.logger.Warn("skipping unreadable document", "path", path, "error", err)
			stats.DocumentsSkipped++
			continue
		}

		content := doc.Text
		if normaliser := o.normalisers.Get(doc.MimeType); normaliser != nil {
			content = normaliser.Normalise(content, doc.MimeType)
		}

		pieces := o.pipeline.Process(content)
		if len(pieces) == 0 {
			o.logger.Debug("document produced no chunks", "path", doc.Path)
			continue
		}
		stats.DocumentsIndexed++

		for _, piece := range pieces {
			chunk := domain.Chunk{
				SourcePath:  doc.Path,
				Index:       piece.Position,
				Text:        piece.Content,
				StartOffset: piece.StartOffset,
				EndOffset:   piece.EndOffset,
			}
			texts = append(texts, chunk.Text)
			records = append(records, chunk.Record())
		}
	}

	if len(texts) == 0 {
		return nil, fmt.Errorf("%w in %s", domain.ErrNoDocuments, dir)
	}

	vectors, err := o.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	stats.EmbeddingBatches = o.embedder.Batches(len(texts))

	store := index.New(o.embedder.Model())
	if _, err := store.Append(vectors, records); err != nil {
		return nil, err
	}
	stats.ChunksIndexed = store.Len()

	return store, nil
}

// failIngest restores the previous state and records the failed run.
func (o *IngestionService) failIngest(ctx context.Context, run *domain.IngestRun, err error) (*domain.IngestResult, error) {
	o.services.Config().AbortIngest()

	completedAt := time.Now()
	run.Status = domain.IngestStatusFailed
	run.Error = err.Error()
	run.CompletedAt = &completedAt
	o.saveRun(context.WithoutCancel(ctx), run)

	duration := run.Duration().Seconds()
	o.logger.Error("ingestion failed", "run_id", run.ID, "duration_seconds", duration, "error", err)

	return &domain.IngestResult{
		RunID:    run.ID,
		Success:  false,
		Stats:    run.Stats,
		Error:    err.Error(),
		Duration: duration,
	}, err
}

func (o *IngestionService) saveRun(ctx context.Context, run *domain.IngestRun) {
	if o.runs == nil {
		return
	}
	if err := o.runs.Save(ctx, run); err != nil {
		o.logger.Warn("failed to record ingestion run", "run_id", run.ID, "error", err)
	}
}

// LoadExisting loads the snapshot named by CURRENT, restoring it from the
// mirror first when nothing is on local disk. A corrupt snapshot is fatal.
func (o *IngestionService) LoadExisting(ctx context.Context) (bool, error) {
	exists, err := index.Exists(o.indexDir)
	if err != nil {
		return false, err
	}

	if !exists && o.mirror != nil {
		restored, err := o.mirror.Restore(ctx, o.indexDir)
		if err != nil {
			o.logger.Warn("failed to restore snapshot from mirror", "error", err)
		} else if restored {
			o.logger.Info("restored snapshot from mirror", "index_dir", o.indexDir)
			exists = true
		}
	}
	if !exists {
		return false, nil
	}

	store, id, err := index.Load(o.indexDir)
	if err != nil {
		return false, err
	}

	if model := o.embedder.Model(); model != "" && model != store.Model() {
		o.logger.Warn("index was built with a different embedding model; queries will be rejected until re-ingestion",
			"index_model", store.Model(),
			"embedding_model", model,
		)
	}

	o.services.SwapIndex(store)
	if err := o.services.Config().MarkLoaded(); err != nil {
		return false, err
	}

	o.logger.Info("index loaded", "snapshot", id, "entries", store.Len(), "dimension", store.Dimension())
	return true, nil
}

// Status reports the live index and the most recent run
func (o *IngestionService) Status(ctx context.Context) (*domain.IndexStatus, error) {
	status := &domain.IndexStatus{State: o.services.Config().State()}

	if idx := o.services.Index(); idx != nil {
		status.Entries = idx.Len()
		status.Dimension = idx.Dimension()
		status.Model = idx.Model()
	}

	if o.runs != nil {
		last, err := o.runs.Latest(ctx)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("failed to get latest run: %w", err)
		}
		status.LastRun = last
	}
	return status, nil
}

// ListRuns returns recent ingestion runs, newest first
func (o *IngestionService) ListRuns(ctx context.Context, limit int) ([]*domain.IngestRun, error) {
	if o.runs == nil {
		return []*domain.IngestRun{}, nil
	}
	if limit <= 0 {
		limit = defaultRunsListLen
	}
	return o.runs.List(ctx, limit)
}
