package memory

import (
	"context"
	"sync"

	"github.com/ternhq/tern/internal/domain"
)

type URLRepository struct {
	urls map[string]*domain.URL
	// order preserves insertion order for ListAll
	order []string
	mu    sync.RWMutex
}

func NewURLRepository() *URLRepository {
	return &URLRepository{
		urls: make(map[string]*domain.URL),
	}
}

func (r *URLRepository) Insert(_ context.Context, url *domain.URL) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.urls[url.Code]; exists {
		return domain.ErrCodeExists
	}

	stored := *url
	r.urls[url.Code] = &stored
	r.order = append(r.order, url.Code)
	return nil
}

func (r *URLRepository) FindByCode(_ context.Context, code string) (*domain.URL, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	url, exists := r.urls[code]
	if !exists {
		return nil, domain.ErrURLNotFound
	}

	found := *url
	return &found, nil
}

func (r *URLRepository) FindByURL(_ context.Context, originalURL string) (*domain.URL, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// first-writer-wins: scan in insertion order
	for _, code := range r.order {
		if url, ok := r.urls[code]; ok && url.OriginalURL == originalURL {
			found := *url
			return &found, nil
		}
	}
	return nil, domain.ErrURLNotFound
}

func (r *URLRepository) ListAll(_ context.Context) ([]domain.URL, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	urls := make([]domain.URL, 0, len(r.urls))
	for _, code := range r.order {
		if url, ok := r.urls[code]; ok {
			urls = append(urls, *url)
		}
	}
	return urls, nil
}

func (r *URLRepository) DeleteByCode(_ context.Context, code string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.urls[code]; !exists {
		return 0, nil
	}

	delete(r.urls, code)
	for i, c := range r.order {
		if c == code {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return 1, nil
}

func (r *URLRepository) IncrementVisits(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if url, exists := r.urls[code]; exists {
		url.Visits++
	}
	// missing code is a no-op
	return nil
}

func (r *URLRepository) Close() error {
	return nil
}

func (r *URLRepository) HealthCheck(_ context.Context) error {
	return nil
}
