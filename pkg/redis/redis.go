// Package redis opens go-redis clients.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type options struct {
	password     string
	db           int
	retries      int
	retryBackoff time.Duration
}

type Option func(*options)

func WithPassword(password string) Option {
	return func(o *options) {
		o.password = password
	}
}

func WithDB(db int) Option {
	return func(o *options) {
		o.db = db
	}
}

// WithConnectRetries retries the initial ping n more times, waiting
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

// New returns a client for addr once the server answers PING.
func New(ctx context.Context, addr string, opts ...Option) (*redis.Client, error) {
	const op = "redis.New"

	o := options{retryBackoff: time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: o.password,
		DB:       o.db,
	})

	if err := ping(ctx, client, o.retries, o.retryBackoff); err != nil {
		client.Close()
		return nil, fmt.Errorf("%s: failed to connect to redis: %w", op, err)
	}

	return client, nil
}

func ping(ctx context.Context, client *redis.Client, retries int, backoff time.Duration) error {
	var err error

	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(backoff * time.Duration(attempt))
			select {
			case <-ctx.Done():
				t.Stop()
				return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
			case <-t.C:
			}
		}

		if err = client.Ping(ctx).Err(); err == nil {
			return nil
		}
	}

	return err
}
