package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
	"github.com/cyoasearch/cyoasearch/internal/core/ports/driven"
	"github.com/cyoasearch/cyoasearch/internal/core/ports/driving"
)

// Ensure StatusService implements the interface.
var _ driving.StatusService = (*StatusService)(nil)

// DefaultRecentBuilds is how many builds RecentBuilds returns by default.
const DefaultRecentBuilds = 10

// StatusService exposes store statistics, the game listing and build history,
// and imports games into the store.
type StatusService struct {
	games   driven.GameStore
	history driven.BuildHistory
}

// NewStatusService creates a status service. history may be nil.
func NewStatusService(games driven.GameStore, history driven.BuildHistory) *StatusService {
	return &StatusService{games: games, history: history}
}

// Stats summarises the game store.
func (s *StatusService) Stats(ctx context.Context) (domain.Stats, error) {
	return s.games.Stats(ctx)
}

// ListGames returns every game ordered by title.
func (s *StatusService) ListGames(ctx context.Context) ([]domain.GameListing, error) {
	return s.games.List(ctx)
}

// RecentBuilds returns the latest builds, most recent first.
func (s *StatusService) RecentBuilds(ctx context.Context, limit int) ([]domain.BuildReport, error) {
	if s.history == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultRecentBuilds
	}
	return s.history.RecentBuilds(ctx, limit)
}

// ImportGames validates and upserts games. It stops at the first invalid game
// and reports how many were saved before it.
func (s *StatusService) ImportGames(ctx context.Context, games []domain.Game) (int, error) {
	saved := 0
	for i, g := range games {
		g.ID = strings.TrimSpace(g.ID)
		g.Title = strings.TrimSpace(g.Title)
		if g.ID == "" {
			return saved, fmt.Errorf("%w: game %d has no id", domain.ErrInvalidInput, i)
		}
		if g.Title == "" {
			return saved, fmt.Errorf("%w: game %s has no title", domain.ErrInvalidInput, g.ID)
		}
		// Imports never carry index state; the store decides staleness.
		g.IndexedAt = nil
		if err := s.games.SaveGame(ctx, g); err != nil {
			return saved, fmt.Errorf("saving game %s: %w", g.ID, err)
		}
		saved++
	}
	return saved, nil
}
