package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cyoasearch/cyoasearch/internal/adapters/driven/config/file"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Long: `Prints the settings after the configuration file and environment
overrides have been applied. API keys are masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	loader := file.NewLoader(configPath)
	if err := file.WriteDefault(loader.Path()); err != nil {
		return err
	}
	cmd.Printf("Wrote %s\n", loader.Path())
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	loader := file.NewLoader(configPath)
	s, err := loader.Load()
	if err != nil {
		return err
	}

	cmd.Printf("Config file:   %s\n", loader.Path())
	cmd.Printf("Data dir:      %s\n", s.DataDir)
	cmd.Printf("Database:      %s\n", s.DatabaseFile())
	cmd.Printf("Index dir:     %s\n", s.IndexDir())
	cmd.Println()
	cmd.Printf("Embedding:     %s / %s (%d dims)\n", s.Embedding.Provider, s.Embedding.Model, s.Embedding.Dimensions)
	if s.Embedding.BaseURL != "" {
		cmd.Printf("Base URL:      %s\n", s.Embedding.BaseURL)
	}
	cmd.Printf("API key:       %s\n", maskAPIKey(s.Embedding.APIKey))
	cmd.Println()
	cmd.Printf("Chunking:      %d words, %d overlap\n", s.Index.ChunkSize, s.Index.ChunkOverlap)
	cmd.Printf("Batching:      %d per call, %d attempts, %s backoff, %s delay, %d workers\n",
		s.Index.BatchSize, s.Index.MaxRetries, s.Index.RetryBackoff, s.Index.BatchDelay, s.Index.Workers)
	cmd.Printf("Search:        k=%d threshold=%.2f limit=%d\n", s.Search.K, s.Search.Threshold, s.Search.Limit)
	r := s.Search.Ranking
	cmd.Printf("Ranking:       summary %.2f, text %.2f, decay %.2f, divisor %.1f\n",
		r.SummaryWeight, r.TextWeight, r.Decay, r.Divisor)
	cmd.Printf("Server:        %s\n", s.Server.Addr)
	return nil
}

// maskAPIKey hides all but the ends of a key.
func maskAPIKey(key string) string {
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= 8:
		return "****"
	default:
		return fmt.Sprintf("%s...%s", key[:4], key[len(key)-4:])
	}
}
