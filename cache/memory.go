// Package cache provides caching implementations for resolved identities.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/xraph/rampart"
)

// Compile-time interface check.
var _ rampart.IdentityCache = (*Memory)(nil)

// Memory is an in-memory cache with TTL-based expiration.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

type entry struct {
	identity  *rampart.Identity
	expiresAt time.Time
}

// MemoryOption configures the memory cache.
type MemoryOption func(*Memory)

// WithTTL sets the cache entry time-to-live. It bounds how long a session
// deleted behind the engine's back keeps resolving.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = ttl }
}

// WithMaxSize sets the maximum number of cache entries.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) { m.maxSize = n }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory creates a new in-memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]*entry),
		ttl:     30 * time.Second,
		maxSize: 10000,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a cached identity.
func (m *Memory) Get(_ context.Context, token string) (*rampart.Identity, bool) {
	m.mu.RLock()
	e, ok := m.entries[token]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !m.now().Before(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, token)
		m.mu.Unlock()
		return nil, false
	}
	return e.identity, true
}

// Set stores an identity in the cache. The entry never outlives the
// session the identity was resolved from.
func (m *Memory) Set(_ context.Context, token string, identity *rampart.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[token]; !ok && len(m.entries) >= m.maxSize {
		m.evictExpired()
		if len(m.entries) >= m.maxSize {
			m.evictOne()
		}
	}

	expiresAt := m.now().Add(m.ttl)
	if end := identity.SessionExpiresAt(); !end.IsZero() && end.Before(expiresAt) {
		expiresAt = end
	}
	m.entries[token] = &entry{
		identity:  identity,
		expiresAt: expiresAt,
	}
}

// InvalidateToken removes the entry for a token.
func (m *Memory) InvalidateToken(_ context.Context, token string) {
	m.mu.Lock()
	delete(m.entries, token)
	m.mu.Unlock()
}

// InvalidateUser removes every entry resolving to the user.
func (m *Memory) InvalidateUser(_ context.Context, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, e := range m.entries {
		if e.identity.UserID() == userID {
			delete(m.entries, k)
		}
	}
}

// InvalidateAll empties the cache.
func (m *Memory) InvalidateAll(_ context.Context) {
	m.mu.Lock()
	clear(m.entries)
	m.mu.Unlock()
}

// Len returns the number of entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// evictExpired removes all expired entries. Must hold write lock.
func (m *Memory) evictExpired() {
	now := m.now()
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

// evictOne removes one arbitrary entry. Must hold write lock.
func (m *Memory) evictOne() {
	for k := range m.entries {
		delete(m.entries, k)
		return
	}
}
