// Package memory provides an in-process URL repository backed by a map.
// Data is lost on restart; it serves development runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/linkforge/shortener/internal/entity"
)

type Option func(*URLRepository)

// WithClock replaces the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(r *URLRepository) {
		r.now = now
	}
}

// URLRepository returns copies of stored records; callers never share state with the map.
type URLRepository struct {
	mu     sync.RWMutex
	urls   map[string]*entity.URL
	lastID int64
	now    func() time.Time
}

func NewURLRepository(opts ...Option) *URLRepository {
	r := &URLRepository{
		urls: make(map[string]*entity.URL),
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *URLRepository) Save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.Save"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.urls[shortCode]; ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
	}

	r.lastID++
	url := &entity.URL{
		ID:          r.lastID,
		ShortCode:   shortCode,
		OriginalURL: originalURL,
		CreatedAt:   r.now().UTC(),
	}
	r.urls[shortCode] = url

	urlCopy := *url
	return &urlCopy, nil
}

func (r *URLRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.RetrieveByShortCode"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	url, ok := r.urls[shortCode]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	urlCopy := *url
	return &urlCopy, nil
}

func (r *URLRepository) IncrementClicks(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.IncrementClicks"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	url, ok := r.urls[shortCode]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	url.Clicks++

	urlCopy := *url
	return &urlCopy, nil
}

func (r *URLRepository) RetrieveAll(ctx context.Context) ([]*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.RetrieveAll"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.RLock()
	urls := make([]*entity.URL, 0, len(r.urls))
	for _, url := range r.urls {
		urlCopy := *url
		urls = append(urls, &urlCopy)
	}
	r.mu.RUnlock()

	sort.Slice(urls, func(i, j int) bool {
		if !urls[i].CreatedAt.Equal(urls[j].CreatedAt) {
			return urls[i].CreatedAt.After(urls[j].CreatedAt)
		}
		return urls[i].ID > urls[j].ID
	})

	return urls, nil
}

func (r *URLRepository) RetrieveStats(ctx context.Context, shortCode string) (*entity.URLStats, error) {
	const op = "adapter.repository.memory.URLRepository.RetrieveStats"

	url, err := r.RetrieveByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return url.Stats(), nil
}
