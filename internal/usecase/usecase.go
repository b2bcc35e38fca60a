package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/linkforge/shortener/internal/entity"
)

var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating short code")

const defaultMaxRetries = 5

// URLRepository is the store contract the use case depends on.
// IncrementClicks must be a single atomic operation in the underlying store.
type URLRepository interface {
	Save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error)
	RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error)
	IncrementClicks(ctx context.Context, shortCode string) (*entity.URL, error)
	RetrieveAll(ctx context.Context) ([]*entity.URL, error)
	RetrieveStats(ctx context.Context, shortCode string) (*entity.URLStats, error)
}

type codeGenerator interface {
	Generate() (string, error)
}

type Option func(*URLUseCase)

func WithMaxRetries(n int) Option {
	return func(uc *URLUseCase) {
		if n > 0 {
			uc.maxRetries = n
		}
	}
}

// WithOpTimeout bounds every store call. Zero disables the bound.
func WithOpTimeout(d time.Duration) Option {
	return func(uc *URLUseCase) {
		uc.opTimeout = d
	}
}

type URLUseCase struct {
	urlRepo    URLRepository
	codeGen    codeGenerator
	maxRetries int
	opTimeout  time.Duration
}

func New(urlRepo URLRepository, codeGen codeGenerator, opts ...Option) *URLUseCase {
	uc := &URLUseCase{
		urlRepo:    urlRepo,
		codeGen:    codeGen,
		maxRetries: defaultMaxRetries,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

func (uc *URLUseCase) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if uc.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, uc.opTimeout)
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func wrapStoreErr(op, action string, err error) error {
	if isTimeout(err) {
		return fmt.Errorf("%s: %w: %w", op, entity.ErrStoreTimeout, err)
	}
	return fmt.Errorf("%s: failed to %s: %w", op, action, err)
}

// ShortenURL stores originalURL under a freshly generated code and returns the
// mapping together with baseURL + "/" + code. A code collision triggers a new
// code, up to the configured number of attempts.
func (uc *URLUseCase) ShortenURL(ctx context.Context, originalURL, baseURL string) (*entity.ShortLink, error) {
	const op = "usecase.URLUseCase.ShortenURL"

	if originalURL == "" {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrOriginalURLRequired)
	}

	for i := 0; i < uc.maxRetries; i++ {
		shortCode, err := uc.codeGen.Generate()
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		url, err := uc.save(ctx, shortCode, originalURL)
		if err != nil {
			if errors.Is(err, entity.ErrShortCodeExists) {
				continue
			}

			return nil, wrapStoreErr(op, "shorten url", err)
		}

		return &entity.ShortLink{
			URL:      *url,
			ShortURL: baseURL + "/" + url.ShortCode,
		}, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

func (uc *URLUseCase) save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error) {
	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	return uc.urlRepo.Save(ctx, shortCode, originalURL)
}

// ResolveShortCode counts one click and returns the updated mapping.
func (uc *URLUseCase) ResolveShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ResolveShortCode"

	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	url, err := uc.urlRepo.IncrementClicks(ctx, shortCode)
	if err != nil {
		return nil, wrapStoreErr(op, "resolve short code", err)
	}

	return url, nil
}

// LookupURL returns the mapping without counting a click.
func (uc *URLUseCase) LookupURL(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.LookupURL"

	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	url, err := uc.urlRepo.RetrieveByShortCode(ctx, shortCode)
	if err != nil {
		return nil, wrapStoreErr(op, "lookup url", err)
	}

	return url, nil
}

func (uc *URLUseCase) GetURLStats(ctx context.Context, shortCode string) (*entity.URLStats, error) {
	const op = "usecase.URLUseCase.GetURLStats"

	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	stats, err := uc.urlRepo.RetrieveStats(ctx, shortCode)
	if err != nil {
		return nil, wrapStoreErr(op, "get url stats", err)
	}

	return stats, nil
}

// ListURLs returns every mapping, newest first.
func (uc *URLUseCase) ListURLs(ctx context.Context) ([]*entity.URL, error) {
	const op = "usecase.URLUseCase.ListURLs"

	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	urls, err := uc.urlRepo.RetrieveAll(ctx)
	if err != nil {
		return nil, wrapStoreErr(op, "list urls", err)
	}

	if urls == nil {
		urls = []*entity.URL{}
	}

	return urls, nil
}
