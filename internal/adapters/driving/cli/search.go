package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
)

var (
	searchLimit     int
	searchMode      string
	searchK         int
	searchThreshold float64
	searchJSON      bool

	similarLimit int
	similarJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed games",
	Long: `Embeds the query, retrieves the nearest synopsis and body chunks and
ranks their games. A strong synopsis match outweighs many weak body matches.

Modes: mixed (default) uses both facets, summary only synopses, text only body text.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var similarCmd = &cobra.Command{
	Use:   "similar [game-id]",
	Short: "List games similar to a game",
	Args:  cobra.ExactArgs(1),
	RunE:  runSimilar,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", string(domain.SearchModeMixed), "mixed, summary or text")
	searchCmd.Flags().IntVar(&searchK, "k", 0, "nearest chunks to retrieve (default from settings)")
	searchCmd.Flags().Float64VarP(&searchThreshold, "threshold", "t", -1, "minimum chunk similarity 0..1 (default from settings)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)

	similarCmd.Flags().IntVarP(&similarLimit, "limit", "n", 10, "maximum number of results")
	similarCmd.Flags().BoolVar(&similarJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(similarCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := loadServices(); err != nil {
		return err
	}

	mode := domain.SearchMode(searchMode)
	if !mode.IsValid() {
		return fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidInput, searchMode)
	}
	opts := domain.SearchOptions{Mode: mode, K: searchK, Limit: searchLimit}
	if cmd.Flags().Changed("threshold") {
		if searchThreshold < 0 || searchThreshold > 1 {
			return fmt.Errorf("%w: threshold must be between 0 and 1", domain.ErrInvalidInput)
		}
		t := searchThreshold
		opts.Threshold = &t
	}

	if err := loadSnapshot(cmd.Context()); err != nil {
		return indexHint(err)
	}

	results, err := searchService.Search(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return writeJSON(cmd.OutOrStdout(), results)
	}
	return outputSearchTable(cmd.OutOrStdout(), results)
}

func runSimilar(cmd *cobra.Command, args []string) error {
	if err := loadServices(); err != nil {
		return err
	}
	if err := loadSnapshot(cmd.Context()); err != nil {
		return indexHint(err)
	}

	results, err := searchService.Similar(cmd.Context(), args[0], similarLimit)
	if err != nil {
		return fmt.Errorf("similar failed: %w", err)
	}

	if similarJSON {
		return writeJSON(cmd.OutOrStdout(), results)
	}
	return outputSimilarTable(cmd.OutOrStdout(), results)
}

// indexHint points the user at the index command when no pair exists yet.
func indexHint(err error) error {
	if errors.Is(err, domain.ErrIndexUnavailable) {
		return fmt.Errorf("%w (run \"cyoasearch index\" first)", err)
	}
	return err
}

func outputSearchTable(w io.Writer, results []domain.SearchResult) error {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	st := newStyles(isTerminal(w))
	width := snippetWidth(w)
	for i := range results {
		r := results[i]
		fmt.Fprintf(w, "  [%d] %s %s %s\n", i+1,
			st.title.Render(r.Title),
			st.score.Render(fmt.Sprintf("%d", r.Score)),
			st.match.Render(string(r.MatchType)))
		fmt.Fprintf(w, "      %s\n", st.url.Render(r.URL))
		if r.Snippet != "" {
			fmt.Fprintln(w, st.snippet.Width(width).Render(r.Snippet))
		}
		fmt.Fprintln(w)
	}
	return nil
}

func outputSimilarTable(w io.Writer, results []domain.SimilarResult) error {
	if len(results) == 0 {
		fmt.Fprintln(w, "No similar games found.")
		return nil
	}

	st := newStyles(isTerminal(w))
	for i := range results {
		r := results[i]
		fmt.Fprintf(w, "  [%d] %s %s\n", i+1,
			st.title.Render(r.Title),
			st.score.Render(fmt.Sprintf("%.3f", r.Score)))
		fmt.Fprintf(w, "      %s\n", st.url.Render(r.URL))
	}
	return nil
}
