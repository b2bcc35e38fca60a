package postgres

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
)

// RunMigrations applies all pending up migrations found at the root of fsys.
func RunMigrations(fsys fs.FS, dsn string) error {
	const op = "postgres.RunMigrations"

	m, err := newMigrate(fsys, dsn)
	if err != nil {
		return fmt.Errorf("%s: failed to initialize migrations: %w", op, err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	return nil
}

// RollbackMigrations reverts the given number of applied migrations.
func RollbackMigrations(fsys fs.FS, dsn string, steps int) error {
	const op = "postgres.RollbackMigrations"

	m, err := newMigrate(fsys, dsn)
	if err != nil {
		return fmt.Errorf("%s: failed to initialize migrations: %w", op, err)
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: failed to rollback migrations: %w", op, err)
	}

	return nil
}

// MigrationVersion reports the current schema version and whether it is dirty.
func MigrationVersion(fsys fs.FS, dsn string) (uint, bool, error) {
	const op = "postgres.MigrationVersion"

	m, err := newMigrate(fsys, dsn)
	if err != nil {
		return 0, false, fmt.Errorf("%s: failed to initialize migrations: %w", op, err)
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("%s: failed to get version: %w", op, err)
	}

	return version, dirty, nil
}

func newMigrate(fsys fs.FS, dsn string) (*migrate.Migrate, error) {
	source, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, err
	}

	return migrate.NewWithSourceInstance("iofs", source, dsn)
}
