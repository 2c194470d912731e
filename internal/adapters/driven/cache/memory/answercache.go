// Package memory provides an in-process TTL cache for query answers.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/core/ports/driven"
)

// Ensure AnswerCache implements the interface.
var _ driven.AnswerCache = (*AnswerCache)(nil)

// DefaultTTL is how long answers stay valid.
const DefaultTTL = 5 * time.Minute

// AnswerCache holds answers for a bounded time. Expired entries are
// dropped lazily on access and opportunistically on writes.
type AnswerCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	answer    domain.Answer
	expiresAt time.Time
}

// NewAnswerCache creates a cache. Non-positive TTLs fall back to the
// default.
func NewAnswerCache(ttl time.Duration) *AnswerCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &AnswerCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached answer for a key, or false when absent or
// expired.
func (c *AnswerCache) Get(_ context.Context, key string) (*domain.Answer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	answer := entry.answer
	return &answer, true
}

// Put stores an answer under a key until the TTL elapses.
func (c *AnswerCache) Put(_ context.Context, key string, answer *domain.Answer) {
	if answer == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry{
		answer:    *answer,
		expiresAt: now.Add(c.ttl),
	}
}
