// Package cli defines the shortener command line.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/linkforge/shortener/internal/app"
	"github.com/linkforge/shortener/internal/config"
	"github.com/spf13/cobra"
)

const configPathEnv = "CONFIG_PATH"

type rootOptions struct {
	configPath string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "shortener",
		Short: "Shorten URLs and count redirects",
		Long: `shortener turns long URLs into short codes, redirects visitors
to the original URL and counts every redirect.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv(configPathEnv),
		"path to the YAML config file (env "+configPathEnv+")")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newShortenCmd(opts),
		newStatsCmd(opts),
		newLookupCmd(opts),
		newListCmd(opts),
	)

	return cmd
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath == "" {
		return config.Default(), nil
	}

	return config.Load(o.configPath)
}

// openApp loads the config and opens the store for one-shot commands.
func (o *rootOptions) openApp(cmd *cobra.Command) (*app.App, *config.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	logger := app.NewLogger(cfg, cmd.ErrOrStderr())

	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	return a, cfg, nil
}

func closeApp(cmd *cobra.Command, a *app.App) {
	if err := a.Close(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "failed to close store: %v\n", err)
	}
}
