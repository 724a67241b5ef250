package main

// @title           Sercha RAG API
// @version         1.0
// @description     Grounded question answering over a local document corpus. Sercha RAG retrieves the passages nearest to a question and answers strictly from them.

// @contact.name   Sercha OSS
// @contact.url    https://github.com/custodia-labs/sercha-rag/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/custodia-labs/sercha-rag/docs"
	"github.com/custodia-labs/sercha-rag/internal/config"
)

var version = "dev"

const usage = `usage: sercha-rag <command> [args]

commands:
  serve              run the HTTP API (default)
  ingest [dir]       rebuild the index from dir (default DOC_DIR)
  ask "<question>"   answer a question from the index
  status             show the index and the latest ingestion run
`

func main() {
	// Get run mode from command line arg, falling back to RUN_MODE
	mode := getEnv("RUN_MODE", "serve")
	args := os.Args[1:]
	if len(args) > 0 {
		mode, args = args[0], args[1:]
	}
	if mode == "help" || mode == "-h" || mode == "--help" {
		fmt.Print(usage)
		return
	}

	cfg, err := config.Load(getEnv("ENV_FILE", ".env"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	slog.SetDefault(logger)

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Status only reads state, so it runs without model credentials
	needAI := mode != "status"
	if needAI {
		if err := cfg.ValidateAI(); err != nil {
			log.Fatalf("Invalid configuration: %v", err)
		}
	}

	app, err := newApp(ctx, cfg, needAI, logger)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer app.Close()

	out := newPrinter(os.Stdout)

	switch mode {
	case "serve":
		err = runServe(ctx, app)
	case "ingest":
		dir := ""
		if len(args) > 0 {
			dir = args[0]
		}
		err = runIngest(ctx, app, out, dir)
	case "ask":
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		err = runAsk(ctx, app, out, question)
	case "status":
		err = runStatus(ctx, app, out)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", mode, usage)
		os.Exit(2)
	}

	if err != nil {
		out.Error(err)
		app.Close()
		os.Exit(1)
	}
}

// newLogger builds the slog handler selected by LOG_FORMAT and LOG_LEVEL
func newLogger(level, format string) (*slog.Logger, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler).With("version", version), nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
