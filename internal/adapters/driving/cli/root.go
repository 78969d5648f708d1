// Package cli implements the cyoasearch command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cyoasearch/cyoasearch/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "cyoasearch",
	Short: "Semantic search over CYOA games",
	Long: `cyoasearch indexes interactive CYOA games by synopsis and body text and
answers natural-language queries with a ranked list of games.

Build the index with "cyoasearch index", then query it with "cyoasearch search"
or serve it over HTTP with "cyoasearch serve".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./cyoasearch.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command and releases services on exit.
func Execute(ctx context.Context) error {
	defer closeServices()
	return rootCmd.ExecuteContext(ctx)
}
