package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/linkforge/shortener/internal/adapter/repository/memory"
	"github.com/linkforge/shortener/internal/config"
	"github.com/linkforge/shortener/internal/usecase"
	"github.com/linkforge/shortener/migrations"
	"github.com/linkforge/shortener/pkg/postgres"
	"github.com/linkforge/shortener/pkg/redis"
	"github.com/linkforge/shortener/pkg/sqlite"

	pgrepo "github.com/linkforge/shortener/internal/adapter/repository/postgres"
	redisrepo "github.com/linkforge/shortener/internal/adapter/repository/redis"
	sqliterepo "github.com/linkforge/shortener/internal/adapter/repository/sqlite"
)

var (
	_ usecase.URLRepository = (*pgrepo.URLRepository)(nil)
	_ usecase.URLRepository = (*redisrepo.URLRepository)(nil)
	_ usecase.URLRepository = (*sqliterepo.URLRepository)(nil)
	_ usecase.URLRepository = (*memory.URLRepository)(nil)
)

var ErrUnknownDriver = errors.New("unknown storage driver")

type store struct {
	driver string
	repo   usecase.URLRepository
	close  func() error
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store, error) {
	const op = "app.openStore"

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := postgres.New(
			ctx,
			cfg.Postgres.DSN(),
			postgres.WithPool(postgres.Pool{
				ConnMaxIdleTime: cfg.Postgres.ConnMaxIdleTime,
				ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
				MaxIdleConns:    cfg.Postgres.MaxIdleConns,
				MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			}),
			postgres.WithConnectRetries(cfg.Postgres.ConnectRetries, time.Second),
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to connect to postgres: %w", op, err)
		}

		if cfg.Storage.Migrate {
			if err := postgres.RunMigrations(migrations.FS, cfg.Postgres.DSN()); err != nil {
				db.Close()
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			logger.Info("postgres migrations applied")
		}

		return &store{
			driver: cfg.Storage.Driver,
			repo:   pgrepo.NewURLRepository(db),
			close:  db.Close,
		}, nil

	case config.DriverRedis:
		client, err := redis.New(
			ctx,
			cfg.Redis.Addr,
			redis.WithPassword(cfg.Redis.Password),
			redis.WithDB(cfg.Redis.DB),
			redis.WithConnectRetries(cfg.Redis.ConnectRetries, time.Second),
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return &store{
			driver: cfg.Storage.Driver,
			repo:   redisrepo.NewURLRepository(client, redisrepo.WithKeyPrefix(cfg.Redis.KeyPrefix)),
			close:  client.Close,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.New(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to open sqlite: %w", op, err)
		}

		repo := sqliterepo.NewURLRepository(db)

		if cfg.Storage.Migrate {
			if err := repo.Migrate(ctx); err != nil {
				sqlite.Close(db)
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			logger.Info("sqlite schema migrated", slog.String("path", cfg.SQLite.Path))
		}

		return &store{
			driver: cfg.Storage.Driver,
			repo:   repo,
			close: func() error {
				return sqlite.Close(db)
			},
		}, nil

	case config.DriverMemory:
		logger.Warn("using in-memory storage; data will not survive a restart")

		return &store{
			driver: cfg.Storage.Driver,
			repo:   memory.NewURLRepository(),
			close:  func() error { return nil },
		}, nil
	}

	return nil, fmt.Errorf("%s: %w: %q", op, ErrUnknownDriver, cfg.Storage.Driver)
}
