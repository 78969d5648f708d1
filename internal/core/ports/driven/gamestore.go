package driven

import (
	"context"
	"time"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
)

// GameStore provides access to the game records.
// Builds read games and stamp them; queries only read.
type GameStore interface {
	// SaveGame inserts or updates a game. Updating a game's text or summary
	// clears its indexed-at timestamp.
	SaveGame(ctx context.Context, game domain.Game) error

	// GetGames returns the games with the given ids keyed by id.
	// Unknown ids are absent from the map.
	GetGames(ctx context.Context, ids []string) (map[string]domain.Game, error)

	// ListIndexable returns every game with text or a synopsis, ordered by id.
	// When staleOnly is set, games with an indexed-at timestamp are skipped.
	ListIndexable(ctx context.Context, staleOnly bool) ([]domain.Game, error)

	// MarkIndexed stamps the given games with at. Each game is the snapshot
	// a build embedded; a stored game whose content has since changed is
	// left unstamped.
	MarkIndexed(ctx context.Context, games []domain.Game, at time.Time) error

	// ResetIndexed clears every indexed-at timestamp and returns how many were set.
	ResetIndexed(ctx context.Context) (int, error)

	// Stats summarises the store.
	Stats(ctx context.Context) (domain.Stats, error)

	// List returns a compact listing of every game ordered by title.
	List(ctx context.Context) ([]domain.GameListing, error)

	// Close releases resources.
	Close() error
}

// BuildHistory records index builds.
type BuildHistory interface {
	// RecordBuild stores a finished build report.
	RecordBuild(ctx context.Context, report *domain.BuildReport) error

	// RecentBuilds returns the latest builds, most recent first.
	RecentBuilds(ctx context.Context, limit int) ([]domain.BuildReport, error)
}
