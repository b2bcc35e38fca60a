package http

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/linkforge/shortener/internal/entity"
)

const statusError = "error"

// shortenRequest is the body of a shorten call. The URL is stored as given;
// only presence is checked.
type shortenRequest struct {
	OriginalURL string `json:"original_url" validate:"required"`
}

// shortenResponse is returned after a URL has been shortened.
type shortenResponse struct {
	ShortCode   string `json:"short_code"`
	ShortURL    string `json:"short_url"`
	OriginalURL string `json:"original_url"`
}

func toShortenResponse(link *entity.ShortLink) shortenResponse {
	return shortenResponse{
		ShortCode:   link.ShortCode,
		ShortURL:    link.ShortURL,
		OriginalURL: link.OriginalURL,
	}
}

// urlResponse is a single entry of the listing.
type urlResponse struct {
	ID          int64     `json:"id"`
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	Clicks      int64     `json:"clicks"`
	CreatedAt   time.Time `json:"created_at"`
}

func toURLResponse(url *entity.URL) urlResponse {
	return urlResponse{
		ID:          url.ID,
		ShortCode:   url.ShortCode,
		OriginalURL: url.OriginalURL,
		Clicks:      url.Clicks,
		CreatedAt:   url.CreatedAt,
	}
}

func toURLListResponse(urls []*entity.URL) []urlResponse {
	resp := make([]urlResponse, 0, len(urls))
	for _, url := range urls {
		resp = append(resp, toURLResponse(url))
	}
	return resp
}

// urlStatsResponse is the statistics view of a short code.
type urlStatsResponse struct {
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	Clicks      int64     `json:"clicks"`
	CreatedAt   time.Time `json:"created_at"`
}

func toURLStatsResponse(stats *entity.URLStats) urlStatsResponse {
	return urlStatsResponse{
		ShortCode:   stats.ShortCode,
		OriginalURL: stats.OriginalURL,
		Clicks:      stats.Clicks,
		CreatedAt:   stats.CreatedAt,
	}
}

type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Errors  []validationError `json:"errors,omitempty"`
}

var (
	emptyRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "empty request body",
	}

	invalidRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "invalid request body",
	}

	originalURLRequiredResponse = errorResponse{
		Status:  statusError,
		Message: "original_url is required",
	}

	urlNotFoundResponse = errorResponse{
		Status:  statusError,
		Message: "url not found",
	}

	storeTimeoutResponse = errorResponse{
		Status:  statusError,
		Message: "store did not respond in time",
	}

	serverErrorResponse = errorResponse{
		Status:  statusError,
		Message: "server error occurred",
	}
)

func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "this field is required"
	default:
		return "invalid value"
	}
}

func getValidationErrors(err error) []validationError {
	var validationErrs []validationError

	errs, ok := err.(validator.ValidationErrors)
	if ok {
		for _, e := range errs {
			validationErrs = append(validationErrs, validationError{
				Field:   e.Field(),
				Message: messageForTag(e.Tag()),
			})
		}
	}

	return validationErrs
}

func validationErrorResponse(err error) errorResponse {
	return errorResponse{
		Status:  statusError,
		Message: "validation error",
		Errors:  getValidationErrors(err),
	}
}
