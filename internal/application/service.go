package application

import (
	"context"
	"errors"
	"time"

	"github.com/ternhq/tern/internal/domain"
	"github.com/ternhq/tern/internal/pkg/logging"
	"github.com/ternhq/tern/internal/pkg/metrics"
	"github.com/ternhq/tern/internal/shortcode"
	"github.com/ternhq/tern/internal/urlnorm"
)

// ErrShortenRetriesExceeded is returned when repeated short code collisions
// exhaust the retry budget. With a 64^6 code space this should never happen
// outside of a broken random source or a nearly full table.
var ErrShortenRetriesExceeded = errors.New("maximum retries exceeded for generating short code")

const (
	shortenMaxAttempts = 5

	// cacheOpTimeout bounds every cache call so a degraded Redis never
	// materially slows the redirect path.
	cacheOpTimeout = 3 * time.Second
)

// URLService orchestrates the repository (authoritative) and the cache
// (best-effort) for the shorten, resolve, remove and stats operations.
// Repository errors propagate to callers; cache errors never do.
type URLService struct {
	repo     domain.URLRepository
	cache    domain.Cache
	cacheTTL time.Duration
	metrics  metrics.Registry
}

func NewURLService(repo domain.URLRepository, cache domain.Cache, cacheTTL time.Duration, registry metrics.Registry) *URLService {
	return &URLService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		metrics:  registry,
	}
}

// Shorten normalizes rawURL and returns its record, creating one if the URL
// has not been shortened before. The created flag distinguishes a fresh
// record from a dedup hit on an existing one.
func (s *URLService) Shorten(ctx context.Context, rawURL string) (*domain.URL, bool, error) {
	normalized, err := urlnorm.Normalize(rawURL)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.repo.FindByURL(ctx, normalized)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrURLNotFound) {
		return nil, false, err
	}

	for attempt := 0; attempt < shortenMaxAttempts; attempt++ {
		code, err := shortcode.Generate()
		if err != nil {
			return nil, false, err
		}

		// Pre-check keeps the common case to one insert; the unique
		// constraint still catches two creates racing past it.
		if _, err := s.repo.FindByCode(ctx, code); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrURLNotFound) {
			return nil, false, err
		}

		url, err := domain.NewURL(code, normalized)
		if err != nil {
			return nil, false, err
		}

		if err := s.repo.Insert(ctx, url); err != nil {
			if errors.Is(err, domain.ErrCodeExists) {
				continue
			}
			return nil, false, err
		}

		s.cacheSet(ctx, url.Code, url.OriginalURL)
		s.metrics.IncURLsCreated()
		return url, true, nil
	}

	return nil, false, ErrShortenRetriesExceeded
}

// Resolve returns the original URL for a code, cache-aside: cache first,
// repository on miss with repopulation. The visit counter is incremented in
// the repository on every successful resolve, cache hit or not.
func (s *URLService) Resolve(ctx context.Context, code string) (string, error) {
	if cached := s.cacheGet(ctx, code); cached != "" {
		s.metrics.IncCacheHit()
		s.incrementVisits(ctx, code)
		s.metrics.IncURLsRedirected()
		return cached, nil
	}
	s.metrics.IncCacheMiss()

	url, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return "", err
	}

	s.cacheSet(ctx, code, url.OriginalURL)
	s.incrementVisits(ctx, code)
	s.metrics.IncURLsRedirected()
	return url.OriginalURL, nil
}

// Remove deletes a record. The store delete comes first; only once the
// record is durably gone is the cache entry dropped, so a failed cache
// delete can at worst serve the old URL until the TTL expires.
func (s *URLService) Remove(ctx context.Context, code string) error {
	affected, err := s.repo.DeleteByCode(ctx, code)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrURLNotFound
	}

	s.cacheDelete(ctx, code)
	s.metrics.IncURLsDeleted()
	return nil
}

// ListStats returns every record straight from the repository. Stats reads
// skip the cache: they are low-frequency and consistency matters more than
// latency.
func (s *URLService) ListStats(ctx context.Context) ([]domain.URL, error) {
	return s.repo.ListAll(ctx)
}

func (s *URLService) GetStats(ctx context.Context, code string) (*domain.URL, error) {
	return s.repo.FindByCode(ctx, code)
}

func (s *URLService) incrementVisits(ctx context.Context, code string) {
	if err := s.repo.IncrementVisits(ctx, code); err != nil {
		// the redirect already has its URL; losing one count beats
		// failing the request
		logging.FromContext(ctx).Error("Failed to increment visits", "code", code, "error", err)
	}
}

func (s *URLService) cacheGet(ctx context.Context, code string) string {
	if !s.cache.Available() {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()

	val, err := s.cache.Get(ctx, code)
	if err != nil {
		logging.FromContext(ctx).Debug("Cache get degraded to miss", "code", code, "error", err)
		return ""
	}
	return val
}

func (s *URLService) cacheSet(ctx context.Context, code, originalURL string) {
	if !s.cache.Available() {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()

	if err := s.cache.Set(ctx, code, originalURL, s.cacheTTL); err != nil {
		logging.FromContext(ctx).Debug("Cache set dropped", "code", code, "error", err)
	}
}

func (s *URLService) cacheDelete(ctx context.Context, code string) {
	if !s.cache.Available() {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()

	if err := s.cache.Delete(ctx, code); err != nil {
		logging.FromContext(ctx).Debug("Cache delete dropped", "code", code, "error", err)
	}
}
