package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/linkforge/shortener/internal/app"
	"github.com/spf13/cobra"
)

const timeLayout = time.RFC3339

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			return app.Run(cmd.Context(), cfg)
		},
	}
}

func newShortenCmd(opts *rootOptions) *cobra.Command {
	var originalURL string

	cmd := &cobra.Command{
		Use:   "shorten",
		Short: "Create a short code for a URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cfg, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			link, err := a.UseCase.ShortenURL(cmd.Context(), originalURL, cfg.BaseURL)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Short code: %s\n", link.ShortCode)
			fmt.Fprintf(out, "Short URL:  %s\n", link.ShortURL)
			fmt.Fprintf(out, "Original:   %s\n", link.OriginalURL)

			return nil
		},
	}

	cmd.Flags().StringVarP(&originalURL, "url", "u", "", "URL to shorten")
	cmd.MarkFlagRequired("url")

	return cmd
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <short-code>",
		Short: "Show click statistics for a short code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			stats, err := a.UseCase.GetURLStats(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Short code: %s\n", stats.ShortCode)
			fmt.Fprintf(out, "Original:   %s\n", stats.OriginalURL)
			fmt.Fprintf(out, "Clicks:     %d\n", stats.Clicks)
			fmt.Fprintf(out, "Created at: %s\n", stats.CreatedAt.Format(timeLayout))

			return nil
		},
	}
}

func newLookupCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <short-code>",
		Short: "Print the original URL without counting a click",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			url, err := a.UseCase.LookupURL(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), url.OriginalURL)

			return nil
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all short codes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			urls, err := a.UseCase.ListURLs(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tCLICKS\tCREATED\tURL")
			for _, url := range urls {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n",
					url.ShortCode, url.Clicks, url.CreatedAt.Format(timeLayout), url.OriginalURL)
			}

			return tw.Flush()
		},
	}
}
