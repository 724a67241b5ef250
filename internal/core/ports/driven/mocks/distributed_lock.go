package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*MockDistributedLock)(nil)

// LockAcquisition records one successful Acquire call
type LockAcquisition struct {
	Name string
	TTL  time.Duration
}

// MockDistributedLock is an in-memory DistributedLock for testing.
// Locks can be marked as held by another process with HoldElsewhere,
// and backend failures injected with FailWith.
type MockDistributedLock struct {
	mu       sync.Mutex
	held     map[string]time.Time // name -> expiry
	foreign  map[string]bool
	acquired []LockAcquisition
	releases int
	err      error
}

// NewMockDistributedLock creates a new mock distributed lock.
func NewMockDistributedLock() *MockDistributedLock {
	return &MockDistributedLock{
		held:    make(map[string]time.Time),
		foreign: make(map[string]bool),
	}
}

// Acquire takes name unless it is held and unexpired.
func (m *MockDistributedLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return false, m.err
	}
	if expiry, ok := m.held[name]; ok && time.Now().Before(expiry) {
		return false, nil
	}
	m.held[name] = time.Now().Add(ttl)
	delete(m.foreign, name)
	m.acquired = append(m.acquired, LockAcquisition{Name: name, TTL: ttl})
	return true, nil
}

// Release drops name. Locks held elsewhere are left alone.
func (m *MockDistributedLock) Release(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.releases++
	if !m.foreign[name] {
		delete(m.held, name)
	}
	return nil
}

// Extend pushes back the expiry of a held lock.
func (m *MockDistributedLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	expiry, ok := m.held[name]
	if !ok || time.Now().After(expiry) || m.foreign[name] {
		return fmt.Errorf("lock %s not held", name)
	}
	m.held[name] = time.Now().Add(ttl)
	return nil
}

// Ping reports the injected backend error, if any.
func (m *MockDistributedLock) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// HoldElsewhere marks name as held by another process for ttl.
func (m *MockDistributedLock) HoldElsewhere(name string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held[name] = time.Now().Add(ttl)
	m.foreign[name] = true
}

// FailWith makes every call return err. A nil err restores normal behaviour.
func (m *MockDistributedLock) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// IsHeld reports whether name is currently held by anyone.
func (m *MockDistributedLock) IsHeld(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, ok := m.held[name]
	return ok && time.Now().Before(expiry)
}

// Acquisitions returns the successful Acquire calls in order.
func (m *MockDistributedLock) Acquisitions() []LockAcquisition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]LockAcquisition(nil), m.acquired...)
}

// Releases returns the number of Release calls.
func (m *MockDistributedLock) Releases() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releases
}
