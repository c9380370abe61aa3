package store

import (
	"sync"
	"time"
)

type memEntry[V any] struct {
	data      V
	expiresAt time.Time
}

// memCache is a small TTL map kept in front of the bolt file.
type memCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]memEntry[V]
	ttl     time.Duration
	now     func() time.Time
}

func newMemCache[V any](ttl time.Duration, now func() time.Time) *memCache[V] {
	return &memCache[V]{
		entries: make(map[string]memEntry[V]),
		ttl:     ttl,
		now:     now,
	}
}

func (c *memCache[V]) Get(key string) (V, bool) {
	var zero V
	now := c.now()

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if !now.After(entry.expiresAt) {
		return entry.data, true
	}

	// Expired; drop it unless a fresh value raced in.
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, exists := c.entries[key]; exists {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			return zero, false
		}
		return e.data, true
	}
	return zero, false
}

// SetAt stores value as if it had been written at savedAt, so entries loaded
// from disk keep their original age.
func (c *memCache[V]) SetAt(key string, value V, savedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memEntry[V]{
		data:      value,
		expiresAt: savedAt.Add(c.ttl),
	}
}
