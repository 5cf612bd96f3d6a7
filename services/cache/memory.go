package cache

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/vidyalaya/core"
)

type item struct {
	value     string
	expiresAt time.Time // zero: never
}

func (i item) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && !now.Before(i.expiresAt)
}

type memoryCache struct {
	mutex sync.RWMutex
	items map[string]item
}

var _ core.Cache = (*memoryCache)(nil) // interface compliance check

// NewMemory returns a process-local cache, used when no redis address is configured.
func NewMemory() core.Cache {
	return &memoryCache{items: make(map[string]item)}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	it, ok := c.items[key]
	if !ok || it.expired(core.NowFunc()) {
		return "", core.ErrCacheMiss
	}
	return it.value, nil
}

func (c *memoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := core.NowFunc()
	it := item{value: value}
	if ttl > 0 {
		it.expiresAt = now.Add(ttl)
	}
	c.items[key] = it

	// opportunistic sweep
	for k, other := range c.items {
		if other.expired(now) {
			delete(c.items, k)
		}
	}
	return nil
}

func (c *memoryCache) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.Get(ctx, key)
	return err == nil, nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}
