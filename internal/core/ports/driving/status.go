package driving

import (
	"context"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
)

// StatusService exposes the game store to operators: statistics, the game
// listing, build history and bulk import.
type StatusService interface {
	Stats(ctx context.Context) (domain.Stats, error)
	ListGames(ctx context.Context) ([]domain.GameListing, error)
	RecentBuilds(ctx context.Context, limit int) ([]domain.BuildReport, error)
	ImportGames(ctx context.Context, games []domain.Game) (int, error)
}
