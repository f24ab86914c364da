// Package cache provides get-or-compute stores with per-entry TTL.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Memory provides in-memory caching with TTL and request collapsing.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	group   singleflight.Group
	done    chan struct{}
	once    sync.Once
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemory creates a new Memory cache.
func NewMemory() *Memory {
	c := &Memory{
		entries: make(map[string]*cacheEntry),
		done:    make(chan struct{}),
	}

	go c.cleanup()

	return c
}

// Close stops the background cleanup goroutine.
func (c *Memory) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

// GetOrCompute returns the cached value for key or runs compute and stores its result for ttl.
// Concurrent callers for the same key share one compute call.
// Errors and nil values are never cached.
func (c *Memory) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) ([]byte, error)) ([]byte, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.value, true, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		value, err := compute(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if value != nil {
			c.mu.Lock()
			c.entries[key] = &cacheEntry{value: value, expiresAt: time.Now().Add(ttl)}
			c.mu.Unlock()
		}
		return value, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		value, _ := res.Val.([]byte)
		return value, false, nil
	case <-ctx.Done():
		return nil, false, context.Cause(ctx)
	}
}

// Invalidate removes a specific key from the cache.
func (c *Memory) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear removes all entries from the cache.
func (c *Memory) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
}

// cleanup periodically removes expired entries.
func (c *Memory) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		case <-c.done:
			return
		}
	}
}
