package freeathome

import (
	"sync"
	"time"
)

// Cache stores API responses between calls. Implementations must be safe
// for concurrent access. The client uses it for the configuration tree,
// which is the one read that is genuinely expensive on a SysAP.
type Cache interface {
	// Get retrieves a value, reporting whether it was found and fresh.
	Get(key string) (any, bool)

	// Set stores a value with the given TTL. A TTL of 0 or less means the
	// entry never expires.
	Set(key string, value any, ttl time.Duration)

	// Delete removes a value.
	Delete(key string)
}

// MemoryCache is a thread-safe in-memory Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryCacheEntry
}

type memoryCacheEntry struct {
	value     any
	expiresAt time.Time
	noExpiry  bool
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryCacheEntry)}
}

// Get retrieves a value, evicting it if it has expired.
func (c *MemoryCache) Get(key string) (any, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if !entry.noExpiry && time.Now().After(entry.expiresAt) {
		c.Delete(key)
		return nil, false
	}
	return entry.value, true
}

// Set stores a value with the given TTL.
func (c *MemoryCache) Set(key string, value any, ttl time.Duration) {
	entry := memoryCacheEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	} else {
		entry.noExpiry = true
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

// Delete removes a value.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}
