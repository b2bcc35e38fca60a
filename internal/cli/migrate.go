package cli

import (
	"fmt"

	"github.com/linkforge/shortener/internal/config"
	"github.com/linkforge/shortener/migrations"
	"github.com/linkforge/shortener/pkg/postgres"
	"github.com/linkforge/shortener/pkg/sqlite"
	"github.com/spf13/cobra"

	sqliterepo "github.com/linkforge/shortener/internal/adapter/repository/sqlite"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var (
		down    int
		version bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the storage schema",
		Long: `Applies pending schema migrations for the configured storage driver.
Postgres uses versioned SQL migrations; SQLite is migrated from the model.
Redis and memory storage have no schema.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			switch cfg.Storage.Driver {
			case config.DriverPostgres:
				dsn := cfg.Postgres.DSN()

				switch {
				case version:
					v, dirty, err := postgres.MigrationVersion(migrations.FS, dsn)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "version %d (dirty: %t)\n", v, dirty)
					return nil
				case down > 0:
					if err := postgres.RollbackMigrations(migrations.FS, dsn, down); err != nil {
						return err
					}
					fmt.Fprintf(out, "rolled back %d migration(s)\n", down)
					return nil
				}

				if err := postgres.RunMigrations(migrations.FS, dsn); err != nil {
					return err
				}

			case config.DriverSQLite:
				if down > 0 || version {
					return fmt.Errorf("--down and --version are only supported for %s", config.DriverPostgres)
				}

				db, err := sqlite.New(cfg.SQLite.Path)
				if err != nil {
					return err
				}
				defer sqlite.Close(db)

				if err := sqliterepo.NewURLRepository(db).Migrate(cmd.Context()); err != nil {
					return err
				}

			default:
				fmt.Fprintf(out, "storage driver %q has no schema to migrate\n", cfg.Storage.Driver)
				return nil
			}

			fmt.Fprintln(out, "migrations applied")

			return nil
		},
	}

	cmd.Flags().IntVar(&down, "down", 0, "roll back this many migrations (postgres only)")
	cmd.Flags().BoolVar(&version, "version", false, "print the current schema version (postgres only)")

	return cmd
}
