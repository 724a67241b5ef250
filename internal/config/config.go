// Package config loads process configuration from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Config holds every setting of the pipeline and its surfaces.
type Config struct {
	AI domain.AISettings

	// Chunking
	ChunkSize        int
	ChunkOverlap     int
	ChunkDeduplicate bool
	ChunkWhitespace  bool

	// Retrieval and answering
	RetrievalK     int
	MinScore       float64
	FallbackAnswer string

	// Paths
	IndexDir string
	DocDir   string

	// HTTP server
	Host           string
	Port           int
	AllowedOrigins []string
	WriteTimeout   time.Duration

	// Periodic rebuild in serve mode; zero disables it
	ReindexInterval time.Duration

	// Optional backends
	RedisURL    string
	DatabaseURL string
	Snapshot    SnapshotConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// SnapshotConfig configures the optional S3-compatible snapshot mirror.
type SnapshotConfig struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	Prefix    string
	UseSSL    bool
}

// Enabled reports whether a mirror is configured.
func (s SnapshotConfig) Enabled() bool {
	return s.Endpoint != ""
}

// Load reads envFile if it exists, then builds the configuration from the
// environment. Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: read %s: %v", domain.ErrConfiguration, envFile, err)
		}
	}

	e := &env{}
	cfg := &Config{
		AI: domain.AISettings{
			Embedding: domain.EmbeddingSettings{
				Provider:   domain.AIProvider(strings.ToLower(e.getString("EMBEDDING_PROVIDER", "openai"))),
				Model:      e.getString("EMBEDDING_MODEL", "text-embedding-3-small"),
				APIKey:     e.getString("EMBEDDING_API_KEY", os.Getenv("OPENAI_API_KEY")),
				BaseURL:    e.getString("EMBEDDING_BASE_URL", ""),
				Dimensions: e.getInt("EMBEDDING_DIMENSIONS", 0),
				BatchSize:  e.getInt("EMBEDDING_BATCH_SIZE", 64),
			},
			LLM: domain.LLMSettings{
				Provider:    domain.AIProvider(strings.ToLower(e.getString("LLM_PROVIDER", "openai"))),
				Model:       e.getString("CHAT_MODEL", "gpt-4o-mini"),
				APIKey:      e.getString("LLM_API_KEY", os.Getenv("OPENAI_API_KEY")),
				BaseURL:     e.getString("LLM_BASE_URL", ""),
				Temperature: float32(e.getFloat("CHAT_TEMPERATURE", 0.2)),
			},
			Policy: domain.CallPolicy{
				Timeout:    time.Duration(e.getInt("SERVICE_TIMEOUT_SEC", 60)) * time.Second,
				MaxRetries: e.getInt("SERVICE_MAX_RETRIES", 3),
				RatePerSec: e.getFloat("SERVICE_RATE_LIMIT", 5),
			},
		},
		ChunkSize:        e.getInt("CHUNK_SIZE", 1000),
		ChunkOverlap:     e.getInt("CHUNK_OVERLAP", 200),
		ChunkDeduplicate: e.getBool("CHUNK_DEDUPLICATE", false),
		ChunkWhitespace:  e.getBool("CHUNK_COLLAPSE_WHITESPACE", false),
		RetrievalK:       e.getInt("RETRIEVAL_K", domain.DefaultRetrievalK),
		MinScore:         e.getFloat("MIN_SCORE", domain.DefaultMinScore),
		FallbackAnswer:   e.getString("FALLBACK_ANSWER", domain.DefaultFallbackAnswer),
		IndexDir:         e.getString("INDEX_DIR", "store"),
		DocDir:           e.getString("DOC_DIR", "data"),
		Host:             e.getString("HOST", "0.0.0.0"),
		Port:             e.getInt("PORT", 8080),
		AllowedOrigins:   e.getList("CORS_ALLOWED_ORIGINS"),
		WriteTimeout:     e.getDuration("HTTP_WRITE_TIMEOUT", 10*time.Minute),
		ReindexInterval:  e.getDuration("REINDEX_INTERVAL", 0),
		RedisURL:         e.getString("REDIS_URL", ""),
		DatabaseURL:      e.getString("DATABASE_URL", ""),
		Snapshot: SnapshotConfig{
			Endpoint:  e.getString("SNAPSHOT_ENDPOINT", ""),
			Bucket:    e.getString("SNAPSHOT_BUCKET", ""),
			AccessKey: e.getString("SNAPSHOT_ACCESS_KEY", ""),
			SecretKey: e.getString("SNAPSHOT_SECRET_KEY", ""),
			Region:    e.getString("SNAPSHOT_REGION", ""),
			Prefix:    e.getString("SNAPSHOT_PREFIX", "sercha-rag"),
			UseSSL:    e.getBool("SNAPSHOT_USE_SSL", true),
		},
		LogLevel:  strings.ToLower(e.getString("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(e.getString("LOG_FORMAT", "text")),
	}

	if err := errors.Join(e.errs...); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	return cfg, nil
}

// Validate checks settings needed by every command. Credentials are checked
// separately by ValidateAI so commands that never call a model can run without them.
func (c *Config) Validate() error {
	var errs []error
	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize))
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		errs = append(errs, fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", c.ChunkOverlap))
	}
	if c.RetrievalK < 1 || c.RetrievalK > domain.MaxRetrievalK {
		errs = append(errs, fmt.Errorf("RETRIEVAL_K must be in [1, %d], got %d", domain.MaxRetrievalK, c.RetrievalK))
	}
	if math.IsNaN(c.MinScore) || c.MinScore < -1 || c.MinScore > 1 {
		errs = append(errs, fmt.Errorf("MIN_SCORE must be in [-1, 1], got %g", c.MinScore))
	}
	if strings.TrimSpace(c.FallbackAnswer) == "" {
		errs = append(errs, errors.New("FALLBACK_ANSWER must not be empty"))
	}
	if c.IndexDir == "" {
		errs = append(errs, errors.New("INDEX_DIR must not be empty"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	if c.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("HTTP_WRITE_TIMEOUT must be positive, got %s", c.WriteTimeout))
	}
	if c.ReindexInterval < 0 {
		errs = append(errs, fmt.Errorf("REINDEX_INTERVAL must not be negative, got %s", c.ReindexInterval))
	}
	if c.Snapshot.Enabled() && c.Snapshot.Bucket == "" {
		errs = append(errs, errors.New("SNAPSHOT_BUCKET is required when SNAPSHOT_ENDPOINT is set"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	return nil
}

// ValidateAI checks provider settings and that credentials are present.
func (c *Config) ValidateAI() error {
	if err := c.AI.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	if c.AI.Policy.Timeout <= 0 {
		return fmt.Errorf("%w: SERVICE_TIMEOUT_SEC must be positive", domain.ErrConfiguration)
	}
	if c.AI.Policy.MaxRetries < 0 {
		return fmt.Errorf("%w: SERVICE_MAX_RETRIES must not be negative", domain.ErrConfiguration)
	}
	if !c.AI.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %s requires OPENAI_API_KEY", domain.ErrConfiguration, c.AI.Embedding.Provider)
	}
	if !c.AI.LLM.IsConfigured() {
		return fmt.Errorf("%w: chat provider %s requires OPENAI_API_KEY", domain.ErrConfiguration, c.AI.LLM.Provider)
	}
	return nil
}

// SearchOptions returns the configured retrieval defaults.
func (c *Config) SearchOptions() domain.SearchOptions {
	return domain.SearchOptions{Limit: c.RetrievalK, MinScore: c.MinScore}
}

// LogValue implements slog.LogValuer. Credentials are never logged.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("embedding_provider", string(c.AI.Embedding.Provider)),
		slog.String("embedding_model", c.AI.Embedding.Model),
		slog.String("chat_provider", string(c.AI.LLM.Provider)),
		slog.String("chat_model", c.AI.LLM.Model),
		slog.Int("chunk_size", c.ChunkSize),
		slog.Int("chunk_overlap", c.ChunkOverlap),
		slog.Int("k", c.RetrievalK),
		slog.Float64("min_score", c.MinScore),
		slog.String("index_dir", c.IndexDir),
		slog.String("doc_dir", c.DocDir),
		slog.Bool("redis", c.RedisURL != ""),
		slog.Bool("postgres", c.DatabaseURL != ""),
		slog.Bool("snapshot_mirror", c.Snapshot.Enabled()),
		slog.Duration("reindex_interval", c.ReindexInterval),
	)
}

// ParseLevel maps LOG_LEVEL to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", level)
	}
}

// env reads typed variables and collects parse errors instead of silently
// falling back to defaults.
type env struct {
	errs []error
}

func (e *env) getString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func (e *env) getInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not an integer", key, val))
		return defaultVal
	}
	return i
}

func (e *env) getFloat(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not a finite number", key, val))
		return defaultVal
	}
	return f
}

func (e *env) getBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not a boolean", key, val))
		return defaultVal
	}
}

func (e *env) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(strings.TrimSpace(val))
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not a duration", key, val))
		return defaultVal
	}
	return d
}

// getList splits a comma-separated variable, dropping empty items.
func (e *env) getList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
