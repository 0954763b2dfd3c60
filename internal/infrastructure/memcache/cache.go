package memcache

import (
	"sync"
	"time"
)

type entry struct {
	value     map[string]any
	expiresAt time.Time
}

// Cache is an in-memory key/value cache with per-entry TTL. Expired entries
// are dropped lazily on read.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: map[string]entry{}}
}

// Get returns the cached value for key when present and not expired.
func (c *Cache) Get(key string) (map[string]any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl. Non-positive ttl values are ignored.
func (c *Cache) Set(key string, value map[string]any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}
