package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.IngestRunStore = (*RunStore)(nil)

// DefaultRunRetention is the number of runs kept before the oldest are dropped
const DefaultRunRetention = 100

// RunStore implements driven.IngestRunStore using Redis.
// Each run is a JSON string; a sorted set scored by start time orders them.
type RunStore struct {
	client    redis.UniversalClient
	runPrefix string
	indexKey  string
	retain    int64
}

// NewRunStore creates a Redis-backed run store. An empty prefix uses
// DefaultKeyPrefix; retain <= 0 uses DefaultRunRetention.
func NewRunStore(client redis.UniversalClient, prefix string, retain int) *RunStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if retain <= 0 {
		retain = DefaultRunRetention
	}
	return &RunStore{
		client:    client,
		runPrefix: prefix + "run:",
		indexKey:  prefix + "runs",
		retain:    int64(retain),
	}
}

// Save writes the run and trims history beyond the retention limit
func (s *RunStore) Save(ctx context.Context, run *domain.IngestRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.runPrefix+run.ID, data, 0)
	pipe.ZAdd(ctx, s.indexKey, redis.Z{Score: float64(run.StartedAt.UnixNano()), Member: run.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return s.trim(ctx)
}

// trim drops the oldest runs beyond the retention limit
func (s *RunStore) trim(ctx context.Context) error {
	stale, err := s.client.ZRange(ctx, s.indexKey, 0, -s.retain-1).Result()
	if err != nil {
		return fmt.Errorf("failed to list stale runs: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	keys := make([]string, len(stale))
	members := make([]any, len(stale))
	for i, id := range stale {
		keys[i] = s.runPrefix + id
		members[i] = id
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, keys...)
	pipe.ZRem(ctx, s.indexKey, members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to trim runs: %w", err)
	}
	return nil
}

// Get retrieves a run by ID
func (s *RunStore) Get(ctx context.Context, id string) (*domain.IngestRun, error) {
	data, err := s.client.Get(ctx, s.runPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var run domain.IngestRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return &run, nil
}

// List returns up to limit runs, newest first
func (s *RunStore) List(ctx context.Context, limit int) ([]*domain.IngestRun, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	ids, err := s.client.ZRevRange(ctx, s.indexKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]*domain.IngestRun, 0, len(ids))
	for _, id := range ids {
		run, err := s.Get(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue // Trimmed between the two reads
		}
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// Latest returns the newest run, or nil if none exist
func (s *RunStore) Latest(ctx context.Context) (*domain.IngestRun, error) {
	runs, err := s.List(ctx, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return runs[0], nil
}
