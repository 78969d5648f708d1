package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cyoasearch/cyoasearch/internal/adapters/driven/ai"
	"github.com/cyoasearch/cyoasearch/internal/core/domain"
)

var (
	statusBuilds int
	statusPing   bool
	statusJSON   bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store statistics and recent builds",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "List every game in the store",
	Args:  cobra.NoArgs,
	RunE:  runGames,
}

func init() {
	statusCmd.Flags().IntVar(&statusBuilds, "builds", 5, "number of recent builds to show")
	statusCmd.Flags().BoolVar(&statusPing, "ping", false, "check that the embedding provider is reachable")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output statistics as JSON")
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(gamesCmd)
}

// statusOutput is the --json form of the status command.
type statusOutput struct {
	Stats  domain.Stats         `json:"stats"`
	Builds []domain.BuildReport `json:"builds"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if err := loadServices(); err != nil {
		return err
	}

	stats, err := statusService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading stats: %w", err)
	}
	builds, err := statusService.RecentBuilds(cmd.Context(), statusBuilds)
	if err != nil {
		return fmt.Errorf("reading build history: %w", err)
	}

	if statusJSON {
		return writeJSON(cmd.OutOrStdout(), statusOutput{Stats: stats, Builds: builds})
	}

	out := cmd.OutOrStdout()
	printStats(out, stats)
	printBuilds(out, builds)

	if statusPing {
		return pingProvider(cmd)
	}
	return nil
}

func printStats(w io.Writer, s domain.Stats) {
	fmt.Fprintln(w, "Games:")
	fmt.Fprintf(w, "  Total:        %d\n", s.Total)
	fmt.Fprintf(w, "  With text:    %d\n", s.WithText)
	fmt.Fprintf(w, "  With summary: %d\n", s.WithSummary)

	indexed := fmt.Sprintf("%d", s.Indexed)
	switch {
	case s.Total > 0 && s.Indexed == s.Total:
		indexed = color.GreenString(indexed)
	case s.Indexed < s.Total:
		indexed = color.YellowString("%s (%d stale)", indexed, s.Total-s.Indexed)
	}
	fmt.Fprintf(w, "  Indexed:      %s\n", indexed)
}

func printBuilds(w io.Writer, builds []domain.BuildReport) {
	fmt.Fprintln(w)
	if len(builds) == 0 {
		fmt.Fprintln(w, "No builds recorded.")
		return
	}

	fmt.Fprintln(w, "Recent builds:")
	for i := range builds {
		b := builds[i]
		mode := string(b.Mode)
		if b.Escalated {
			mode += " (escalated)"
		}
		line := fmt.Sprintf("  %s  %-24s  embedded %d/%d  vectors %d",
			b.StartedAt.Local().Format(time.DateTime), mode, b.Embedded, b.Chunks, b.TotalVectors)
		if b.Failed > 0 {
			line = color.RedString("%s  failed %d", line, b.Failed)
		}
		fmt.Fprintln(w, line)
	}
}

func pingProvider(cmd *cobra.Command) error {
	cmd.Printf("\nEmbedding provider %s (%s)... ", settings.Embedding.Provider, settings.Embedding.Model)
	if err := ai.ValidateEmbeddingConfig(cmd.Context(), &settings.Embedding); err != nil {
		cmd.Println(color.RedString("FAILED"))
		return err
	}
	cmd.Println(color.GreenString("OK"))
	return nil
}

func runGames(cmd *cobra.Command, _ []string) error {
	if err := loadServices(); err != nil {
		return err
	}

	games, err := statusService.ListGames(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing games: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(games) == 0 {
		fmt.Fprintln(out, "No games in the store.")
		return nil
	}
	for _, g := range games {
		mark := " "
		if g.IsIndexed {
			mark = "*"
		}
		fmt.Fprintf(out, "%s %-20s %s\n", mark, g.ID, g.Title)
	}
	return nil
}
