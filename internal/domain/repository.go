package domain

import "context"

// URLRepository is the persistent, authoritative store for URL records.
// All operations are atomic at single-record granularity.
type URLRepository interface {
	// Insert stores a new record. Returns ErrCodeExists when the code is
	// already taken, which callers use to drive collision retries.
	Insert(ctx context.Context, url *URL) error
	FindByCode(ctx context.Context, code string) (*URL, error)
	// FindByURL looks up a record by its normalized original URL, used to
	// dedup repeated shorten requests.
	FindByURL(ctx context.Context, originalURL string) (*URL, error)
	ListAll(ctx context.Context) ([]URL, error)
	// DeleteByCode removes a record and reports how many rows were
	// affected (0 or 1).
	DeleteByCode(ctx context.Context, code string) (int64, error)
	// IncrementVisits bumps the visit counter. A missing code is a no-op,
	// not an error: a redirect served from cache may race a delete.
	IncrementVisits(ctx context.Context, code string) error
	Close() error
	HealthCheck(ctx context.Context) error
}
