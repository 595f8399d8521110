package cache

import (
	"context"
	"time"
)

// NoOpCache is used when caching is disabled or no cache endpoint is
// configured. Every read is a miss, every write is dropped.
type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Get(_ context.Context, _ string) (string, error) {
	return "", nil
}

func (c *NoOpCache) Set(_ context.Context, _, _ string, _ time.Duration) error {
	return nil
}

func (c *NoOpCache) Delete(_ context.Context, _ string) error {
	return nil
}

func (c *NoOpCache) Available() bool {
	return false
}
