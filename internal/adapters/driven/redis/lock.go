package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*Lock)(nil)

// DefaultKeyPrefix namespaces every key this package writes
const DefaultKeyPrefix = "sercha-rag:"

// Lock implements DistributedLock with SET NX PX. Each instance has an owner
// token; release and extend only touch keys still holding that token.
type Lock struct {
	client  redis.UniversalClient
	prefix  string
	ownerID string
}

// NewLock creates a Redis-backed lock. An empty prefix uses DefaultKeyPrefix.
func NewLock(client redis.UniversalClient, prefix string) *Lock {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Lock{
		client:  client,
		prefix:  prefix + "lock:",
		ownerID: newOwnerID(),
	}
}

// newOwnerID returns hostname:pid:random
func newOwnerID() string {
	hostname, _ := os.Hostname()
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), hex.EncodeToString(b))
}

func (l *Lock) key(name string) string {
	return l.prefix + name
}

// Acquire takes the lock if nobody holds it. A lock already held by this
// instance is not re-entrant.
func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key(name), l.ownerID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return ok, nil
}

// compareAndDelete deletes KEYS[1] only while it still holds ARGV[1]
var compareAndDelete = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Release drops the lock if this instance still owns it. A lock that expired
// or was taken over is left alone.
func (l *Lock) Release(ctx context.Context, name string) error {
	err := compareAndDelete.Run(ctx, l.client, []string{l.key(name)}, l.ownerID).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}

// compareAndExpire resets the TTL of KEYS[1] only while it still holds ARGV[1]
var compareAndExpire = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)

// Extend pushes the expiry of a lock this instance owns.
func (l *Lock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	n, err := compareAndExpire.Run(ctx, l.client, []string{l.key(name)}, l.ownerID, ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("extend lock %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("lock %s not held by this instance", name)
	}
	return nil
}

// Ping checks if the Redis backend is healthy.
func (l *Lock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// OwnerID identifies this instance in lock values
func (l *Lock) OwnerID() string {
	return l.ownerID
}
