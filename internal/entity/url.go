// Package entity defines the entities and errors used in the application.
// It includes the URL struct, which represents a shortened URL mapping, the
// projections returned to callers, and the error kinds shared by all layers.
package entity

import (
	"errors"
	"time"
)

var (
	// ErrOriginalURLRequired is returned when a shorten request carries an empty original URL.
	ErrOriginalURLRequired = errors.New("original url is required")
	// ErrShortCodeExists is returned when attempting to create a URL with a short code that already exists.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrURLNotFound is returned when a URL with the specified short code cannot be found.
	ErrURLNotFound = errors.New("url not found")
	// ErrStoreTimeout is returned when a store operation is cancelled or exceeds its deadline.
	ErrStoreTimeout = errors.New("store operation timed out")
)

// URL represents a shortened URL.
type URL struct {
	ID          int64     // ID is the unique identifier of the URL in the store.
	ShortCode   string    // ShortCode is the generated code used to shorten the original URL.
	OriginalURL string    // OriginalURL is the full URL that the short code resolves to.
	Clicks      int64     // Clicks is the number of successful resolutions of the short code.
	CreatedAt   time.Time // CreatedAt is the timestamp when the URL was created.
}

// Stats returns the statistics projection of the URL.
func (u *URL) Stats() *URLStats {
	return &URLStats{
		ShortCode:   u.ShortCode,
		OriginalURL: u.OriginalURL,
		Clicks:      u.Clicks,
		CreatedAt:   u.CreatedAt,
	}
}

// URLStats is the read-only statistics view of a shortened URL.
type URLStats struct {
	ShortCode   string
	OriginalURL string
	Clicks      int64
	CreatedAt   time.Time
}

// ShortLink is the result of shortening a URL.
type ShortLink struct {
	URL
	ShortURL string // ShortURL is the public base URL joined with the short code.
}
