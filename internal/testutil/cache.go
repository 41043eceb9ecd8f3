package testutil

import (
	"context"
	"sync"

	"github.com/parley-app/parley/internal/model"
)

var _ model.Cache = (*MemoryCache)(nil)

// MemoryCache is an in-memory model.Cache for tests.
type MemoryCache struct {
	mu    sync.Mutex
	items map[string]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]string)}
}

func (c *MemoryCache) GetItem(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.items[key]
	if !ok {
		return "", model.ErrNotFound
	}
	return value, nil
}

func (c *MemoryCache) SetItem(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *MemoryCache) RemoveItem(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

// Has reports whether a key is present.
func (c *MemoryCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}
