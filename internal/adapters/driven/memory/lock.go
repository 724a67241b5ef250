// Package memory holds single-process implementations of the driven ports,
// used when no Redis or PostgreSQL backend is configured.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*Lock)(nil)

// Lock is a process-local DistributedLock with TTL expiry.
// It only serialises writers inside one process.
type Lock struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

// NewLock creates a new in-process lock
func NewLock() *Lock {
	return &Lock{
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if exp, ok := l.expires[name]; ok && l.now().Before(exp) {
		return false, nil
	}
	l.expires[name] = l.now().Add(ttl)
	return true, nil
}

func (l *Lock) Release(ctx context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.expires, name)
	return nil
}

func (l *Lock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	exp, ok := l.expires[name]
	if !ok || !l.now().Before(exp) {
		return fmt.Errorf("lock %s not held", name)
	}
	l.expires[name] = l.now().Add(ttl)
	return nil
}

func (l *Lock) Ping(ctx context.Context) error {
	return nil
}
