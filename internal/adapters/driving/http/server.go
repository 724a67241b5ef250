package http

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	// Services
	ingestion driving.IngestionService
	search    driving.SearchService
	answers   driving.AnswerService
	runtime   *domain.RuntimeConfig

	// Defaults applied when a request omits them
	defaults domain.SearchOptions

	// Infrastructure checked by /ready, keyed by name
	dependencies map[string]Pinger
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	AllowedOrigins []string

	// WriteTimeout bounds a whole request, including a synchronous ingestion
	WriteTimeout time.Duration

	// Defaults for search and ask requests
	Defaults domain.SearchOptions
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8080,
		Version:      "dev",
		WriteTimeout: 10 * time.Minute,
		Defaults:     domain.DefaultSearchOptions(),
	}
}

// Services groups the driving ports the API exposes
type Services struct {
	Ingestion driving.IngestionService
	Search    driving.SearchService
	Answers   driving.AnswerService
	Runtime   *domain.RuntimeConfig
}

// NewServer creates a new HTTP server. dependencies may be nil.
func NewServer(cfg Config, svc Services, dependencies map[string]Pinger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultConfig().WriteTimeout
	}
	if cfg.Defaults.Limit <= 0 {
		cfg.Defaults = domain.DefaultSearchOptions()
	}

	s := &Server{
		router:       http.NewServeMux(),
		version:      cfg.Version,
		logger:       logger,
		ingestion:    svc.Ingestion,
		search:       svc.Search,
		answers:      svc.Answers,
		runtime:      svc.Runtime,
		defaults:     cfg.Defaults,
		dependencies: dependencies,
	}

	s.setupRoutes()

	var handler http.Handler = s.router
	handler = NewCORSMiddleware(cfg.AllowedOrigins).Handler(handler)
	handler = NewLoggingMiddleware(logger).Handler(handler)
	handler = NewRecoveryMiddleware(logger).Handler(handler)
	handler = RequestID(handler)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health endpoints
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.HandleFunc("GET /swagger/doc.json", s.handleSwagger)

	// Index lifecycle
	s.router.HandleFunc("POST /api/v1/ingest", s.handleIngest)
	s.router.HandleFunc("GET /api/v1/ingest/runs", s.handleListRuns)
	s.router.HandleFunc("GET /api/v1/index", s.handleIndexStatus)

	// Queries
	s.router.HandleFunc("POST /api/v1/search", s.handleSearch)
	s.router.HandleFunc("POST /api/v1/ask", s.handleAsk)
}

// Handler returns the root handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server and blocks until SIGINT or SIGTERM, then shuts down gracefully
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
