package cache

import (
	"context"
	"io"
	"strings"
	"sync"
)

// InMemoryCache stores cache entries in process memory.
type InMemoryCache struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ Cache = (*InMemoryCache)(nil)

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		data: make(map[string]string),
	}
}

func (c *InMemoryCache) Get(_ context.Context, key string) (io.ReadCloser, error) {
	c.mu.RLock()
	value, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(strings.NewReader(value)), nil
}

func (c *InMemoryCache) Put(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}
