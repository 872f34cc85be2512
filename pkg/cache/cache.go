package cache

import (
	"sync"
	"time"
)

// Keys for the two sheet reads the bot caches.
const (
	KeyTasks       = "tasks"
	KeyCompletions = "completions"
)

type entry struct {
	value  any
	expiry time.Time
}

// Cache is a small TTL keyed cache in front of sheet reads. It is shared
// between the poll drivers and the command handlers, so every operation
// takes the mutex. Failed reads are never cached; expired entries are
// evicted lazily on access and eagerly by Sweep.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
}

func New() *Cache {
	return &Cache{entries: make(map[string]entry)}
}

// Get returns the cached value for key, or ok=false on a miss. An entry
// whose expiry has passed counts as a miss and is removed.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiry) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiry: time.Now().Add(ttl)}
}

// Invalidate drops the entry for key, if any.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Sweep removes every entry whose expiry has passed and returns how many
// were dropped. Safe to call at any time; calling it twice in a row is a
// no-op the second time.
func (c *Cache) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if now.After(e.expiry) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of live entries, counting expired ones that have
// not been swept yet.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
