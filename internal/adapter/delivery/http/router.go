// Package http provides the HTTP delivery layer for the URL shortener service.
// It wires the chi router, decodes and validates requests, and maps use case
// results onto JSON responses and redirects.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/linkforge/shortener/docs"
	"github.com/linkforge/shortener/pkg/middleware/recoverer"
	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter returns the API router. baseURL is the public prefix used to build short URLs.
func NewRouter(logger *httplog.Logger, urlUseCase urlUseCase, baseURL string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"POST", "GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(recoverer.New(serverErrorResponse))

	h := newURLHandler(urlUseCase, validator.New(), baseURL)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(docs.SwaggerYAML)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", handlePing)

		r.Route("/url", func(r chi.Router) {
			r.Post("/shorten", h.shortenURL)
			r.Get("/list", h.listURLs)

			r.Route("/{shortCode}", func(r chi.Router) {
				r.Get("/", h.redirect)
				r.Get("/stats", h.getURLStats)
			})
		})
	})

	r.Get("/{shortCode}", h.redirect)

	return r
}
