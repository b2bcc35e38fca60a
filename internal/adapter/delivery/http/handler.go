package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/linkforge/shortener/internal/entity"
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "pong")
}

type urlUseCase interface {
	ShortenURL(ctx context.Context, originalURL, baseURL string) (*entity.ShortLink, error)
	ResolveShortCode(ctx context.Context, shortCode string) (*entity.URL, error)
	GetURLStats(ctx context.Context, shortCode string) (*entity.URLStats, error)
	ListURLs(ctx context.Context) ([]*entity.URL, error)
}

type urlHandler struct {
	useCase  urlUseCase
	validate *validator.Validate
	baseURL  string
}

func newURLHandler(useCase urlUseCase, validate *validator.Validate, baseURL string) *urlHandler {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &urlHandler{
		useCase:  useCase,
		validate: validate,
		baseURL:  baseURL,
	}
}

// renderError maps use case errors to responses. Unexpected errors are
// attached to the request log entry.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, entity.ErrURLNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, urlNotFoundResponse)
	case errors.Is(err, entity.ErrOriginalURLRequired):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, originalURLRequiredResponse)
	case errors.Is(err, entity.ErrStoreTimeout):
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusGatewayTimeout)
		render.JSON(w, r, storeTimeoutResponse)
	default:
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
	}
}

func (h *urlHandler) shortenURL(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if errors.Is(err, io.EOF) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, emptyRequestBodyResponse)
			return
		}

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, invalidRequestBodyResponse)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, validationErrorResponse(err))
		return
	}

	link, err := h.useCase.ShortenURL(r.Context(), req.OriginalURL, h.baseURL)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toShortenResponse(link))
}

func (h *urlHandler) redirect(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	url, err := h.useCase.ResolveShortCode(r.Context(), shortCode)
	if err != nil {
		renderError(w, r, err)
		return
	}

	http.Redirect(w, r, url.OriginalURL, http.StatusFound)
}

func (h *urlHandler) getURLStats(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	stats, err := h.useCase.GetURLStats(r.Context(), shortCode)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toURLStatsResponse(stats))
}

func (h *urlHandler) listURLs(w http.ResponseWriter, r *http.Request) {
	urls, err := h.useCase.ListURLs(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toURLListResponse(urls))
}
