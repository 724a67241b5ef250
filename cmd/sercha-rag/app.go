package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/filesystem"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/memory"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/objectstore"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/sercha-rag/internal/adapters/driven/redis"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/http"
	"github.com/custodia-labs/sercha-rag/internal/config"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors"
	"github.com/custodia-labs/sercha-rag/internal/runtime"
)

// app holds the wired services shared by every command
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	runtime   *runtime.Services
	ingestion driving.IngestionService
	search    driving.SearchService
	answers   driving.AnswerService

	// Infrastructure checked by /ready
	pingers map[string]http.Pinger

	closers []func() error
}

// newApp connects the configured backends and builds the pipeline services.
// The persisted index, if any, is loaded before it returns.
func newApp(ctx context.Context, cfg *config.Config, withAI bool, logger *slog.Logger) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		pingers: make(map[string]http.Pinger),
	}
	if err := a.wire(ctx, withAI); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context, withAI bool) error {
	cfg := a.cfg

	// ===== Initialize Redis (optional) =====
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("%w: REDIS_URL: %v", domain.ErrConfiguration, err)
		}
		redisClient = redis.NewClient(opts)
		a.closers = append(a.closers, redisClient.Close)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Println("Redis connected")
	}

	// ===== Initialize PostgreSQL (optional) =====
	var db *postgres.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = postgres.Connect(ctx, postgres.DefaultConfig(cfg.DatabaseURL))
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := db.InitSchema(ctx); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
		log.Println("PostgreSQL connected and schema initialized")
	}

	// ===== Ingest lock (Redis if available, then PostgreSQL advisory locks, then in-process) =====
	var lock driven.DistributedLock
	lockBackend := "memory"
	switch {
	case redisClient != nil:
		lock = redisadapter.NewLock(redisClient, redisadapter.DefaultKeyPrefix)
		lockBackend = "redis"
	case db != nil:
		lock = postgres.NewAdvisoryLock(db)
		lockBackend = "postgres"
	default:
		lock = memory.NewLock()
	}
	log.Printf("Using %s ingest lock", lockBackend)

	// ===== Run history (PostgreSQL if available, then Redis, then in-process) =====
	var runs driven.IngestRunStore
	switch {
	case db != nil:
		runs = postgres.NewRunStore(db)
		a.pingers["postgres"] = db
	case redisClient != nil:
		runs = redisadapter.NewRunStore(redisClient, redisadapter.DefaultKeyPrefix, redisadapter.DefaultRunRetention)
	default:
		runs = memory.NewRunStore(memory.DefaultRunRetention)
	}
	if redisClient != nil {
		a.pingers["redis"] = lock
	}

	// ===== Snapshot mirror (optional) =====
	var mirror driven.SnapshotMirror
	if cfg.Snapshot.Enabled() {
		store, err := objectstore.NewS3Store(objectstore.Config{
			Endpoint:  cfg.Snapshot.Endpoint,
			Bucket:    cfg.Snapshot.Bucket,
			AccessKey: cfg.Snapshot.AccessKey,
			SecretKey: cfg.Snapshot.SecretKey,
			Region:    cfg.Snapshot.Region,
			UseSSL:    cfg.Snapshot.UseSSL,
		})
		if err != nil {
			return err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to prepare snapshot bucket: %w", err)
		}
		m := objectstore.NewMirror(store, cfg.Snapshot.Prefix, a.logger)
		mirror = m
		a.pingers["snapshot_mirror"] = m
		log.Printf("Snapshot mirror enabled (bucket=%s)", cfg.Snapshot.Bucket)
	}

	// Runtime configuration
	runtimeConfig := domain.NewRuntimeConfig(lockBackend)
	a.runtime = runtime.NewServices(runtimeConfig)
	a.closers = append(a.closers, a.runtime.Close)

	// ===== AI services =====
	if withAI {
		factory := ai.NewFactory(cfg.AI.Policy)
		embedding, err := factory.CreateEmbeddingService(&cfg.AI.Embedding)
		if err != nil {
			return fmt.Errorf("failed to create embedding service: %w", err)
		}
		llm, err := factory.CreateLLMService(&cfg.AI.LLM)
		if err != nil {
			_ = closeIfSet(embedding)
			return fmt.Errorf("failed to create chat service: %w", err)
		}

		// Fail fast on bad credentials or unreachable endpoints
		checkCtx, cancel := context.WithTimeout(ctx, cfg.AI.Policy.Timeout)
		defer cancel()
		if err := a.runtime.ValidateAndSetEmbedding(checkCtx, embedding); err != nil {
			if llm != nil {
				_ = llm.Close()
			}
			return fmt.Errorf("embedding service unreachable: %w", err)
		}
		if err := a.runtime.ValidateAndSetLLM(checkCtx, llm); err != nil {
			return fmt.Errorf("chat service unreachable: %w", err)
		}
		log.Printf("AI services ready (embedding: %s, chat: %s)", cfg.AI.Embedding.Model, cfg.AI.LLM.Model)
	}

	// ===== Pipeline =====
	pipeline, err := postprocessors.NewConfiguredPipeline(postprocessors.Options{
		Chunk: postprocessors.ChunkConfig{
			MaxChunkSize: cfg.ChunkSize,
			Overlap:      cfg.ChunkOverlap,
		},
		Deduplicate: cfg.ChunkDeduplicate,
		Whitespace:  cfg.ChunkWhitespace,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	embedder := services.NewEmbedder(a.runtime, cfg.AI.Embedding.BatchSize)
	ingestion := services.NewIngestionService(services.IngestionConfig{
		Source:      filesystem.NewSource(filesystem.DefaultMaxFileBytes),
		Normalisers: normalisers.DefaultRegistry(),
		Pipeline:    pipeline,
		Embedder:    embedder,
		Lock:        lock,
		Runs:        runs,
		Mirror:      mirror,
		Services:    a.runtime,
		IndexDir:    cfg.IndexDir,
		DocDir:      cfg.DocDir,
		Logger:      a.logger,
	})
	a.ingestion = ingestion
	a.search = services.NewSearchService(a.runtime, embedder, cfg.SearchOptions(), a.logger)
	a.answers = services.NewAnswerService(a.runtime, a.search, services.AnswerConfig{
		Fallback:    cfg.FallbackAnswer,
		Temperature: cfg.AI.LLM.Temperature,
	}, a.logger)

	// A corrupt index is fatal; a missing one leaves the pipeline EMPTY
	loaded, err := ingestion.LoadExisting(ctx)
	if err != nil {
		return fmt.Errorf("failed to load index from %s: %w", cfg.IndexDir, err)
	}
	if !loaded {
		log.Printf("No index found in %s; run ingestion first", cfg.IndexDir)
	}

	a.logger.Info("pipeline configured", "config", cfg, "state", runtimeConfig.State())
	return nil
}

// Close releases every backend connection in reverse order. Safe to call twice.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			fmt.Fprintf(os.Stderr, "close: %v\n", err)
		}
	}
	a.closers = nil
}

func closeIfSet(svc driven.EmbeddingService) error {
	if svc == nil {
		return nil
	}
	return svc.Close()
}
