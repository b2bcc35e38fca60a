// Package postgres opens PostgreSQL connection pools and runs schema migrations.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const driverName = "pgx"

// Pool holds connection pool limits. Zero fields keep the package defaults.
type Pool struct {
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
	MaxIdleConns    int
	MaxOpenConns    int
}

var defaultPool = Pool{
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
}

func (p Pool) withDefaults() Pool {
	if p.ConnMaxIdleTime <= 0 {
		p.ConnMaxIdleTime = defaultPool.ConnMaxIdleTime
	}
	if p.ConnMaxLifetime <= 0 {
		p.ConnMaxLifetime = defaultPool.ConnMaxLifetime
	}
	if p.MaxIdleConns <= 0 {
		p.MaxIdleConns = defaultPool.MaxIdleConns
	}
	if p.MaxOpenConns <= 0 {
		p.MaxOpenConns = defaultPool.MaxOpenConns
	}
	return p
}

type options struct {
	pool         Pool
	retries      int
	retryBackoff time.Duration
}

type Option func(*options)

func WithPool(p Pool) Option {
	return func(o *options) {
		o.pool = p
	}
}

// WithConnectRetries retries the initial connection n more times, waiting
// backoff, 2*backoff, ... between attempts.
func WithConnectRetries(n int, backoff time.Duration) Option {
	return func(o *options) {
		if n >= 0 {
			o.retries = n
		}
		if backoff > 0 {
			o.retryBackoff = backoff
		}
	}
}

// New opens a pgx-backed sqlx pool. The connection is verified before returning.
func New(ctx context.Context, dsn string, opts ...Option) (*sqlx.DB, error) {
	const op = "postgres.New"

	o := options{retryBackoff: time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := connect(ctx, dsn, o.retries, o.retryBackoff)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}

	pool := o.pool.withDefaults()
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetMaxOpenConns(pool.MaxOpenConns)

	return db, nil
}

func connect(ctx context.Context, dsn string, retries int, backoff time.Duration) (*sqlx.DB, error) {
	var lastErr error

	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(backoff * time.Duration(attempt))
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, fmt.Errorf("%w (last error: %v)", ctx.Err(), lastErr)
			case <-t.C:
			}
		}

		db, err := sqlx.ConnectContext(ctx, driverName, dsn)
		if err == nil {
			return db, nil
		}
		lastErr = err
	}

	return nil, lastErr
}
