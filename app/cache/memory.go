package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is an in-process identity cache used when no Redis address
// is configured, and by tests. Entries are evicted by TTL, not size.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]time.Time // key -> expiry
	done    chan struct{}
	once    sync.Once
}

func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]time.Time),
		done:    make(chan struct{}),
	}
	go c.janitor()
	return c
}

func (c *MemoryCache) Seen(_ context.Context, key string) (bool, error) {
	c.mu.RLock()
	expiry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return false, nil
	}
	return true, nil
}

func (c *MemoryCache) MarkSeen(_ context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[key] = time.Now().Add(ttl)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *MemoryCache) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			for key, expiry := range c.entries {
				if now.After(expiry) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}
