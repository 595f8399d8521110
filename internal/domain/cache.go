package domain

import (
	"context"
	"time"
)

// Cache is a best-effort code -> original URL lookup. It is never
// authoritative: entries expire, may be missing, and every operation may
// fail without affecting correctness of reads against the repository.
type Cache interface {
	// Get returns the original URL for a code, or "" with a nil error on a
	// cache miss.
	Get(ctx context.Context, code string) (string, error)

	// Set stores a code -> URL mapping with the given TTL.
	Set(ctx context.Context, code, originalURL string, ttl time.Duration) error

	// Delete removes a cached entry.
	Delete(ctx context.Context, code string) error

	// Available reports whether the cache backend is believed reachable.
	// It is a cheap short-circuit only; Get/Set/Delete already fail safe.
	Available() bool
}
