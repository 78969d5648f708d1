package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cyoasearch/cyoasearch/internal/adapters/driven/storage/memory"
	"github.com/cyoasearch/cyoasearch/internal/core/domain"
	"github.com/cyoasearch/cyoasearch/internal/core/ports/driving"
	"github.com/cyoasearch/cyoasearch/internal/core/services"
)

var importDryRun bool

var importCmd = &cobra.Command{
	Use:   "import [file.json]",
	Short: "Import games from a JSON file",
	Long: `Upserts games from a JSON array of {id, title, url, text, summary} objects.
Use "-" to read from standard input.

A game whose title, text or summary changed loses its indexed status and is
picked up by the next build.

With --dry-run the games are validated against an in-memory store and the
database is left untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "validate without writing to the store")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	games, err := readGames(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	var svc driving.StatusService
	if importDryRun {
		store := memory.NewGameStore()
		svc = services.NewStatusService(store, store)
	} else {
		if err := loadServices(); err != nil {
			return err
		}
		svc = statusService
	}

	n, err := svc.ImportGames(cmd.Context(), games)
	if err != nil {
		return fmt.Errorf("import stopped after %d games: %w", n, err)
	}

	if importDryRun {
		cmd.Printf("Dry run: %d games are valid.\n", n)
		return nil
	}
	cmd.Printf("Imported %d games.\n", n)
	return nil
}

func readGames(stdin io.Reader, path string) ([]domain.Game, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	var games []domain.Game
	if err := json.NewDecoder(r).Decode(&games); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", domain.ErrInvalidInput, path, err)
	}
	return games, nil
}
