package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// styles for human-readable result output. Plain text is used when the
// output is not a terminal.
type styles struct {
	title   lipgloss.Style
	score   lipgloss.Style
	match   lipgloss.Style
	url     lipgloss.Style
	snippet lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{title: plain, score: plain, match: plain, url: plain, snippet: plain.PaddingLeft(6)}
	}
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		score:   lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
		match:   lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")),
		url:     lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("#6C7086")),
		snippet: lipgloss.NewStyle().Foreground(lipgloss.Color("#CDD6F4")).PaddingLeft(6),
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// snippetWidth is the wrap width for snippets: the terminal width, or 80.
func snippetWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 20 {
			return width - 8
		}
	}
	return 80
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
