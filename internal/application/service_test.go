package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ternhq/tern/internal/domain"
	"github.com/ternhq/tern/internal/infrastructure/memory"
	"github.com/ternhq/tern/internal/pkg/metrics"
	"github.com/ternhq/tern/internal/shortcode"
)

// fakeCache is an in-memory domain.Cache with switchable failure modes.
type fakeCache struct {
	mu        sync.Mutex
	entries   map[string]string
	available bool
	failOps   bool
	deletes   []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries:   make(map[string]string),
		available: true,
	}
}

func (c *fakeCache) Get(_ context.Context, code string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failOps {
		return "", errors.New("cache down")
	}
	return c.entries[code], nil
}

func (c *fakeCache) Set(_ context.Context, code, originalURL string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failOps {
		return errors.New("cache down")
	}
	c.entries[code] = originalURL
	return nil
}

func (c *fakeCache) Delete(_ context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes = append(c.deletes, code)
	if c.failOps {
		return errors.New("cache down")
	}
	delete(c.entries, code)
	return nil
}

func (c *fakeCache) Available() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.available
}

func (c *fakeCache) get(code string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[code]
}

func (c *fakeCache) put(code, originalURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[code] = originalURL
}

// collidingRepo reports ErrCodeExists for the first n inserts, mimicking
// the window where two creates race past the pre-check.
type collidingRepo struct {
	*memory.URLRepository
	remaining int
}

func (r *collidingRepo) Insert(ctx context.Context, url *domain.URL) error {
	if r.remaining > 0 {
		r.remaining--
		return domain.ErrCodeExists
	}
	return r.URLRepository.Insert(ctx, url)
}

func newTestService(repo domain.URLRepository, cache domain.Cache) *URLService {
	return NewURLService(repo, cache, time.Hour, metrics.NewNoOpRegistry())
}

func TestURLService_Shorten_CreatesRecord(t *testing.T) {
	cache := newFakeCache()
	service := newTestService(memory.NewURLRepository(), cache)
	ctx := context.Background()

	url, created, err := service.Shorten(ctx, "github.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("expected created=true for a fresh URL")
	}
	if url.OriginalURL != "https://github.com/" {
		t.Errorf("expected normalized URL, got %s", url.OriginalURL)
	}
	if len(url.Code) != shortcode.Length {
		t.Errorf("expected code length %d, got %d", shortcode.Length, len(url.Code))
	}
	if url.Visits != 0 {
		t.Errorf("expected 0 visits, got %d", url.Visits)
	}

	// creation pre-warms the cache
	if cache.get(url.Code) != "https://github.com/" {
		t.Errorf("expected cache pre-warm for %s", url.Code)
	}
}

func TestURLService_Shorten_Dedup(t *testing.T) {
	service := newTestService(memory.NewURLRepository(), newFakeCache())
	ctx := context.Background()

	first, created, err := service.Shorten(ctx, "https://example.com/page")
	if err != nil || !created {
		t.Fatalf("first shorten: created=%v err=%v", created, err)
	}

	second, created, err := service.Shorten(ctx, "example.com/page")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatal("expected created=false for an already shortened URL")
	}
	if second.Code != first.Code {
		t.Errorf("expected dedup to return code %s, got %s", first.Code, second.Code)
	}
}

func TestURLService_Shorten_InvalidURL(t *testing.T) {
	service := newTestService(memory.NewURLRepository(), newFakeCache())
	ctx := context.Background()

	for _, raw := range []string{"", "javascript:alert(1)", "ftp://example.com"} {
		if _, _, err := service.Shorten(ctx, raw); !errors.Is(err, domain.ErrInvalidURL) {
			t.Errorf("Shorten(%q): expected ErrInvalidURL, got %v", raw, err)
		}
	}
}

func TestURLService_Shorten_RetriesOnCollision(t *testing.T) {
	repo := &collidingRepo{URLRepository: memory.NewURLRepository(), remaining: 2}
	service := newTestService(repo, newFakeCache())

	url, created, err := service.Shorten(context.Background(), "https://example.com/")
	if err != nil {
		t.Fatalf("expected collision retries to succeed, got %v", err)
	}
	if !created || url.Code == "" {
		t.Fatalf("expected a created record, got created=%v code=%q", created, url.Code)
	}
}

func TestURLService_Shorten_RetriesExhausted(t *testing.T) {
	repo := &collidingRepo{URLRepository: memory.NewURLRepository(), remaining: shortenMaxAttempts}
	service := newTestService(repo, newFakeCache())

	_, _, err := service.Shorten(context.Background(), "https://example.com/")
	if !errors.Is(err, ErrShortenRetriesExceeded) {
		t.Fatalf("expected ErrShortenRetriesExceeded, got %v", err)
	}
}

func TestURLService_Resolve_CacheMissRepopulates(t *testing.T) {
	repo := memory.NewURLRepository()
	cache := newFakeCache()
	service := newTestService(repo, cache)
	ctx := context.Background()

	url, _, err := service.Shorten(ctx, "https://example.com/")
	if err != nil {
		t.Fatalf("shorten: %v", err)
	}
	// simulate expiry
	if err := cache.Delete(ctx, url.Code); err != nil {
		t.Fatalf("cache delete: %v", err)
	}

	got, err := service.Resolve(ctx, url.Code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://example.com/" {
		t.Errorf("expected original URL, got %s", got)
	}
	if cache.get(url.Code) != "https://example.com/" {
		t.Error("expected cache repopulation on miss")
	}

	stats, _ := service.GetStats(ctx, url.Code)
	if stats.Visits != 1 {
		t.Errorf("expected 1 visit, got %d", stats.Visits)
	}
}

func TestURLService_Resolve_CacheHitStillCountsVisit(t *testing.T) {
	repo := memory.NewURLRepository()
	cache := newFakeCache()
	service := newTestService(repo, cache)
	ctx := context.Background()

	url, _, err := service.Shorten(ctx, "https://example.com/")
	if err != nil {
		t.Fatalf("shorten: %v", err)
	}
	cache.put(url.Code, url.OriginalURL)

	for i := 0; i < 3; i++ {
		if _, err := service.Resolve(ctx, url.Code); err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
	}

	stats, _ := service.GetStats(ctx, url.Code)
	if stats.Visits != 3 {
		t.Errorf("expected 3 visits, got %d", stats.Visits)
	}
}

func TestURLService_Resolve_NotFound(t *testing.T) {
	service := newTestService(memory.NewURLRepository(), newFakeCache())

	_, err := service.Resolve(context.Background(), "noSuch")
	if !errors.Is(err, domain.ErrURLNotFound) {
		t.Fatalf("expected ErrURLNotFound, got %v", err)
	}
}

func TestURLService_Resolve_CacheFailureIsAbsorbed(t *testing.T) {
	repo := memory.NewURLRepository()
	cache := newFakeCache()
	service := newTestService(repo, cache)
	ctx := context.Background()

	url, _, err := service.Shorten(ctx, "https://example.com/")
	if err != nil {
		t.Fatalf("shorten: %v", err)
	}

	cache.failOps = true

	got, err := service.Resolve(ctx, url.Code)
	if err != nil {
		t.Fatalf("expected resolve to survive cache failure, got %v", err)
	}
	if got != "https://example.com/" {
		t.Errorf("expected original URL, got %s", got)
	}
}

func TestURLService_Remove(t *testing.T) {
	repo := memory.NewURLRepository()
	cache := newFakeCache()
	service := newTestService(repo, cache)
	ctx := context.Background()

	url, _, err := service.Shorten(ctx, "https://example.com/")
	if err != nil {
		t.Fatalf("shorten: %v", err)
	}

	if err := service.Remove(ctx, url.Code); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cache.get(url.Code) != "" {
		t.Error("expected cache entry removed after delete")
	}
	if _, err := service.Resolve(ctx, url.Code); !errors.Is(err, domain.ErrURLNotFound) {
		t.Fatalf("expected ErrURLNotFound after remove, got %v", err)
	}

	if err := service.Remove(ctx, url.Code); !errors.Is(err, domain.ErrURLNotFound) {
		t.Fatalf("expected ErrURLNotFound for second remove, got %v", err)
	}
}

func TestURLService_Remove_CacheDeleteAfterStoreDelete(t *testing.T) {
	repo := memory.NewURLRepository()
	cache := newFakeCache()
	service := newTestService(repo, cache)
	ctx := context.Background()

	url, _, err := service.Shorten(ctx, "https://example.com/")
	if err != nil {
		t.Fatalf("shorten: %v", err)
	}

	cache.failOps = true

	// a failed cache delete must not fail the remove; the TTL bounds the
	// resulting staleness
	if err := service.Remove(ctx, url.Code); err != nil {
		t.Fatalf("expected remove to survive cache failure, got %v", err)
	}
	if len(cache.deletes) != 1 || cache.deletes[0] != url.Code {
		t.Fatalf("expected one cache delete for %s, got %v", url.Code, cache.deletes)
	}
}

func TestURLService_ListStats(t *testing.T) {
	service := newTestService(memory.NewURLRepository(), newFakeCache())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, _, err := service.Shorten(ctx, fmt.Sprintf("https://example.com/page-%d", i)); err != nil {
			t.Fatalf("shorten %d: %v", i, err)
		}
	}

	urls, err := service.ListStats(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(urls) != 3 {
		t.Fatalf("expected 3 records, got %d", len(urls))
	}
}

func TestURLService_ConcurrentShorten_UniqueCodes(t *testing.T) {
	service := newTestService(memory.NewURLRepository(), newFakeCache())
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	codes := make([]string, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			url, _, err := service.Shorten(ctx, fmt.Sprintf("https://example.com/page-%d", i))
			if err != nil {
				errs[i] = err
				return
			}
			codes[i] = url.Code
		}(i)
	}
	wg.Wait()

	seen := make(map[string]int)
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("shorten %d: %v", i, errs[i])
		}
		seen[codes[i]]++
	}
	for code, count := range seen {
		if count > 1 {
			t.Errorf("code %s assigned %d times", code, count)
		}
	}
}
