package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a small in-memory TTL cache. Expired entries stay readable via
// Stale until the cleanup loop evicts them.
type Cache[V any] struct {
	mu    sync.RWMutex
	items map[string]entry[V]
	now   func() time.Time
	grace time.Duration
	stop  chan struct{}
	once  sync.Once
}

// New creates a cache whose expired entries are evicted once they are older
// than grace past their expiry.
func New[V any](grace time.Duration) *Cache[V] {
	c := &Cache[V]{
		items: make(map[string]entry[V]),
		now:   time.Now,
		grace: grace,
		stop:  make(chan struct{}),
	}

	go c.cleanupLoop()

	return c
}

func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry[V]{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
}

// Get returns a value only while it is fresh.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists || c.now().After(item.expiresAt) {
		var zero V
		return zero, false
	}
	return item.value, true
}

// Stale returns a value regardless of expiry.
func (c *Cache[V]) Stale(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	return item.value, exists
}

func (c *Cache[V]) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Cache[V]) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache[V]) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-c.grace)
	for key, item := range c.items {
		if cutoff.After(item.expiresAt) {
			delete(c.items, key)
		}
	}
}
