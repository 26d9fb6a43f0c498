package geo

import (
	"context"
	"sync"
)

// MemoryCache is a process-local layer in front of an optional durable
// cache. Labels are idempotent per key, so concurrent writers never conflict.
type MemoryCache struct {
	entries sync.Map
	next    Cache
}

func NewMemoryCache(next Cache) *MemoryCache {
	return &MemoryCache{next: next}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (string, bool, error) {
	if v, ok := c.entries.Load(key); ok {
		return v.(string), true, nil
	}
	if c.next == nil {
		return "", false, nil
	}

	label, ok, err := c.next.Get(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	c.entries.Store(key, label)
	return label, true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key, label string) error {
	c.entries.Store(key, label)
	if c.next == nil {
		return nil
	}
	return c.next.Set(ctx, key, label)
}
