// Package cache is the response cache used to memoize active-flow,
// welcome and chatbot lookups and AI replies. Entries are scoped by
// chatbot or welcome id so a write can invalidate one scope without a
// global flush. A miss is never an error; callers fall back to the
// store and repopulate.
package cache

import (
	"strings"
	"sync"
	"time"
)

// Cache is the read-through cache contract. Values are serialized
// strings; callers own the JSON encoding of structured values.
type Cache interface {
	Get(scope, key string) (string, bool)
	Set(scope, key, value string, ttl time.Duration)
	Delete(scope, key string)
	// ClearScope drops every entry under the given scope. Used by the
	// admin API after any write to the underlying records.
	ClearScope(scope string)
}

func fullKey(scope, key string) string {
	return scope + ":" + key
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache is a mutex-guarded TTL map with lazy expiry. The default
// backend when no Redis address is configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(scope, key string) (string, bool) {
	k := fullKey(scope, key)

	c.mu.RLock()
	entry, ok := c.entries[k]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		if current, ok := c.entries[k]; ok && time.Now().After(current.expiresAt) {
			delete(c.entries, k)
		}
		c.mu.Unlock()
		return "", false
	}
	return entry.value, true
}

func (c *MemoryCache) Set(scope, key, value string, ttl time.Duration) {
	c.mu.Lock()
	c.entries[fullKey(scope, key)] = memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	c.mu.Unlock()
}

func (c *MemoryCache) Delete(scope, key string) {
	c.mu.Lock()
	delete(c.entries, fullKey(scope, key))
	c.mu.Unlock()
}

func (c *MemoryCache) ClearScope(scope string) {
	prefix := scope + ":"
	c.mu.Lock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}
