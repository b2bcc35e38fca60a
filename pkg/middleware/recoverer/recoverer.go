// Package recoverer turns handler panics into a logged JSON 500 response.
package recoverer

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
)

// New returns a middleware that recovers from panics, attaches the panic value
// and stack to the request log entry and renders body with status 500.
// http.ErrAbortHandler is re-panicked so the server can abort the connection.
func New(body any) func(http.Handler) http.Handler {
	const op = "recoverer.New"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}

				if err, ok := rvr.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rvr)
				}

				httplog.LogEntrySetFields(r.Context(), map[string]any{
					"op":    op,
					"panic": fmt.Sprint(rvr),
					"stack": string(debug.Stack()),
				})
				httplog.LogEntry(r.Context()).Error("panic recovered", slog.String("path", r.URL.Path))

				if r.Header.Get("Connection") == "Upgrade" {
					return
				}

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, body)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
