package cache

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("cache: key not found")

// Cache is a small key-value capability. Values are opaque strings; callers
// own their encoding.
type Cache interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key, value string) error
}

// GetString reads the whole value stored under key.
func GetString(ctx context.Context, c Cache, key string) (string, error) {
	rc, err := c.Get(ctx, key)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = rc.Close()
	}()
	b, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
