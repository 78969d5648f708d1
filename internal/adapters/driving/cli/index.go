package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
)

var (
	indexFull       bool
	indexNoProgress bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or update the search index",
	Long: `Chunks every game that is not yet indexed, embeds the chunks and appends
them to the index. If a game that changed already has vectors in the index,
the build is escalated to a full rebuild so stale vectors never survive.

Use --full to discard the index and re-embed every game.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

var resetStatusCmd = &cobra.Command{
	Use:   "reset-status",
	Short: "Mark every game as not indexed",
	Long: `Clears the indexed-at timestamp of every game. The next build then
treats the whole store as stale and escalates to a full rebuild.`,
	Args: cobra.NoArgs,
	RunE: runResetStatus,
}

func init() {
	indexCmd.Flags().BoolVar(&indexFull, "full", false, "discard the index and re-embed every game")
	indexCmd.Flags().BoolVar(&indexNoProgress, "no-progress", false, "do not draw a progress bar")
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(resetStatusCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if err := loadServices(); err != nil {
		return err
	}

	progress := newBuildProgress(cmd.ErrOrStderr(), !indexNoProgress && isTerminal(cmd.ErrOrStderr()))
	report, err := indexService.Build(cmd.Context(), domain.BuildOptions{
		Full:     indexFull,
		Progress: progress.update,
	})
	progress.finish()
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	printBuildReport(cmd.OutOrStdout(), report)
	return nil
}

func runResetStatus(cmd *cobra.Command, _ []string) error {
	if err := loadServices(); err != nil {
		return err
	}

	n, err := indexService.ResetStatus(cmd.Context())
	if err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	cmd.Printf("Reset indexed status of %d games.\n", n)
	return nil
}

// buildProgress draws an embedding progress bar once the total is known.
type buildProgress struct {
	out     io.Writer
	enabled bool

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func newBuildProgress(out io.Writer, enabled bool) *buildProgress {
	return &buildProgress{out: out, enabled: enabled}
}

func (p *buildProgress) update(done, total int) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription(color.BlueString("Embedding chunks")),
			progressbar.OptionSetItsString("chunks"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionSetRenderBlankState(true),
		)
	}
	_ = p.bar.Set(done)
}

func (p *buildProgress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
		fmt.Fprintln(p.out)
	}
}

func printBuildReport(w io.Writer, r *domain.BuildReport) {
	mode := string(r.Mode)
	if r.Escalated {
		mode += color.YellowString(" (escalated from incremental)")
	}

	fmt.Fprintf(w, "Build %s: %s\n", r.ID, mode)
	fmt.Fprintf(w, "  Games:    %d\n", r.Games)
	fmt.Fprintf(w, "  Chunks:   %d\n", r.Chunks)
	fmt.Fprintf(w, "  Embedded: %d\n", r.Embedded)
	if r.Failed > 0 {
		fmt.Fprintf(w, "  Failed:   %s\n", color.RedString("%d", r.Failed))
	}
	fmt.Fprintf(w, "  Indexed:  %d games\n", r.Indexed)
	fmt.Fprintf(w, "  Vectors:  %d total\n", r.TotalVectors)

	switch {
	case r.Written:
		fmt.Fprintf(w, "%s in %s\n", color.GreenString("Index written"), r.Duration().Round(time.Millisecond))
	case r.Chunks == 0:
		fmt.Fprintln(w, "Nothing to index.")
	default:
		fmt.Fprintln(w, color.YellowString("Nothing was embedded; index left unchanged."))
	}
}
