// Package app assembles the shortener from configuration: logger, store,
// use case and HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"

	"github.com/go-chi/httplog/v2"
	"github.com/linkforge/shortener/internal/config"
	"github.com/linkforge/shortener/internal/usecase"
	"github.com/linkforge/shortener/pkg/shortcode"
	"golang.org/x/sync/errgroup"

	httpdelivery "github.com/linkforge/shortener/internal/adapter/delivery/http"
)

// NewLogger builds the service logger from the log section of the config.
func NewLogger(cfg *config.Config, w io.Writer) *httplog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}

	return httplog.NewLogger("shortener", httplog.Options{
		JSON:     cfg.Log.JSON,
		LogLevel: level,
		Concise:  !cfg.Log.JSON,
		Writer:   w,
		Tags: map[string]string{
			"env": cfg.Env,
		},
	})
}

type App struct {
	cfg     *config.Config
	logger  *httplog.Logger
	store   *store
	UseCase *usecase.URLUseCase
}

// New opens the configured store and builds the use case on top of it.
// The caller must Close the returned App.
func New(ctx context.Context, cfg *config.Config, logger *httplog.Logger) (*App, error) {
	const op = "app.New"

	s, err := openStore(ctx, cfg, logger.Logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	codeGen := shortcode.New(
		shortcode.WithLength(cfg.ShortCode.Length),
		shortcode.WithAlphabet(cfg.ShortCode.Alphabet),
	)

	uc := usecase.New(
		s.repo,
		codeGen,
		usecase.WithMaxRetries(cfg.ShortCode.MaxRetries),
		usecase.WithOpTimeout(cfg.Storage.Timeout),
	)

	return &App{
		cfg:     cfg,
		logger:  logger,
		store:   s,
		UseCase: uc,
	}, nil
}

func (a *App) Handler() http.Handler {
	return httpdelivery.NewRouter(a.logger, a.UseCase, a.cfg.BaseURL)
}

func (a *App) Close() error {
	return a.store.close()
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down.
func (a *App) Serve(ctx context.Context) error {
	const op = "app.App.Serve"

	server := &http.Server{
		Addr:           a.cfg.HTTPServer.Addr(),
		Handler:        a.Handler(),
		ReadTimeout:    a.cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   a.cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    a.cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: a.cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("starting http server",
			slog.String("addr", server.Addr),
			slog.String("env", a.cfg.Env),
			slog.String("storage", a.store.driver),
			slog.String("base_url", a.cfg.BaseURL),
		)

		var err error

		switch a.cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(a.cfg.HTTPServer.CertFile, a.cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		a.logger.Info("shutting down http server")

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}

// Run is the serve entry point: it builds the App, serves, and releases the store.
func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := NewLogger(cfg, os.Stdout)

	a, err := New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("failed to close store", slog.Any("err", err))
		}
	}()

	return a.Serve(ctx)
}
