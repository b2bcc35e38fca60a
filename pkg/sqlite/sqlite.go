// Package sqlite opens a pure-Go SQLite database through GORM.
package sqlite

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type options struct {
	logLevel logger.LogLevel
}

type Option func(*options)

// WithLogLevel sets the GORM query log level. Queries are silent by default.
func WithLogLevel(level logger.LogLevel) Option {
	return func(o *options) {
		o.logLevel = level
	}
}

// New opens the database at path. SQLite allows a single writer, so the pool
// is capped at one connection; that also keeps ":memory:" databases alive.
func New(path string, opts ...Option) (*gorm.DB, error) {
	const op = "sqlite.New"

	o := options{logLevel: logger.Silent}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(o.logLevel),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open database: %w", op, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get underlying database: %w", op, err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)

	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	const op = "sqlite.Close"

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("%s: failed to get underlying database: %w", op, err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("%s: failed to close database: %w", op, err)
	}

	return nil
}
