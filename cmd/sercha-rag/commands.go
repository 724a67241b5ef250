package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/http"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/worker"
)

// runServe runs the HTTP API until SIGINT or SIGTERM, with the optional
// reindex worker alongside it.
func runServe(ctx context.Context, a *app) error {
	if a.cfg.ReindexInterval > 0 {
		w := worker.NewWorker(worker.WorkerConfig{
			Ingestion: a.ingestion,
			Logger:    a.logger,
			Interval:  a.cfg.ReindexInterval,
		})
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()
		log.Printf("Reindex worker enabled (interval=%s)", a.cfg.ReindexInterval)
	}

	server := http.NewServer(http.Config{
		Host:           a.cfg.Host,
		Port:           a.cfg.Port,
		Version:        version,
		AllowedOrigins: a.cfg.AllowedOrigins,
		WriteTimeout:   a.cfg.WriteTimeout,
		Defaults:       a.cfg.SearchOptions(),
	}, http.Services{
		Ingestion: a.ingestion,
		Search:    a.search,
		Answers:   a.answers,
		Runtime:   a.runtime.Config(),
	}, a.pingers, a.logger)

	log.Printf("API server starting on %s:%d", a.cfg.Host, a.cfg.Port)
	return server.Start()
}

// runIngest rebuilds the index and prints the run summary
func runIngest(ctx context.Context, a *app, out *printer, dir string) error {
	if dir == "" {
		dir = a.cfg.DocDir
	}
	out.Info("Ingesting %s ...", dir)

	result, err := a.ingestion.Ingest(ctx, dir)
	if err != nil {
		if errors.Is(err, domain.ErrIngestionInProgress) {
			out.Warn("Another ingestion is running; try again when it finishes.")
		}
		return err
	}

	out.IngestResult(result)
	return nil
}

// runAsk answers one question from the loaded index
func runAsk(ctx context.Context, a *app, out *printer, question string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*a.cfg.AI.Policy.Timeout+10*time.Second)
	defer cancel()

	answer, err := a.answers.Ask(ctx, question, a.cfg.SearchOptions())
	if err != nil {
		return err
	}

	out.Answer(answer)
	return nil
}

// runStatus prints the live index summary and the most recent run
func runStatus(ctx context.Context, a *app, out *printer) error {
	status, err := a.ingestion.Status(ctx)
	if err != nil {
		return err
	}

	out.Status(status, a.cfg.IndexDir)
	return nil
}
