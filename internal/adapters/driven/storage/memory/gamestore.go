// Package memory provides in-memory implementations of the storage ports.
// They back tests and import --dry-run; nothing survives the process.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
	"github.com/cyoasearch/cyoasearch/internal/core/ports/driven"
)

// Ensure GameStore implements the interfaces.
var (
	_ driven.GameStore    = (*GameStore)(nil)
	_ driven.BuildHistory = (*GameStore)(nil)
)

// GameStore is an in-memory implementation of driven.GameStore and driven.BuildHistory.
type GameStore struct {
	mu     sync.RWMutex
	games  map[string]domain.Game
	builds []domain.BuildReport
}

// NewGameStore creates a new in-memory game store.
func NewGameStore() *GameStore {
	return &GameStore{
		games: make(map[string]domain.Game),
	}
}

// SaveGame stores or updates a game. Changed text or synopsis clears IndexedAt.
func (s *GameStore) SaveGame(_ context.Context, game domain.Game) error {
	if game.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.games[game.ID]; ok && game.IndexedAt == nil &&
		old.Title == game.Title && old.Text == game.Text && old.Summary == game.Summary {
		game.IndexedAt = old.IndexedAt
	}
	s.games[game.ID] = copyGame(game)
	return nil
}

// GetGames returns the games with the given ids keyed by id.
func (s *GameStore) GetGames(_ context.Context, ids []string) (map[string]domain.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.Game, len(ids))
	for _, id := range ids {
		if g, ok := s.games[id]; ok {
			out[id] = copyGame(g)
		}
	}
	return out, nil
}

// ListIndexable returns games with text or a synopsis, ordered by id.
func (s *GameStore) ListIndexable(_ context.Context, staleOnly bool) ([]domain.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var games []domain.Game
	for _, g := range s.games {
		if !g.HasContent() || (staleOnly && g.IsIndexed()) {
			continue
		}
		games = append(games, copyGame(g))
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	return games, nil
}

// MarkIndexed stamps the given games with at, skipping any whose stored
// content no longer matches the snapshot.
func (s *GameStore) MarkIndexed(_ context.Context, games []domain.Game, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, snap := range games {
		g, ok := s.games[snap.ID]
		if !ok || g.ContentHash() != snap.ContentHash() {
			continue
		}
		stamp := at
		g.IndexedAt = &stamp
		s.games[snap.ID] = g
	}
	return nil
}

// ResetIndexed clears every indexed-at timestamp.
func (s *GameStore) ResetIndexed(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, g := range s.games {
		if g.IndexedAt != nil {
			g.IndexedAt = nil
			s.games[id] = g
			n++
		}
	}
	return n, nil
}

// Stats summarises the store.
func (s *GameStore) Stats(_ context.Context) (domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st domain.Stats
	for _, g := range s.games {
		st.Total++
		if g.Text != "" {
			st.WithText++
		}
		if g.Summary != "" {
			st.WithSummary++
		}
		if g.IsIndexed() {
			st.Indexed++
		}
	}
	return st, nil
}

// List returns every game ordered by title.
func (s *GameStore) List(_ context.Context) ([]domain.GameListing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	listing := make([]domain.GameListing, 0, len(s.games))
	for _, g := range s.games {
		listing = append(listing, domain.GameListing{
			ID:         g.ID,
			Title:      g.Title,
			Summary:    g.Summary,
			HasSummary: g.Summary != "",
			IsIndexed:  g.IsIndexed(),
		})
	}
	sort.Slice(listing, func(i, j int) bool {
		if listing[i].Title != listing[j].Title {
			return listing[i].Title < listing[j].Title
		}
		return listing[i].ID < listing[j].ID
	})
	return listing, nil
}

// RecordBuild stores a finished build report.
func (s *GameStore) RecordBuild(_ context.Context, report *domain.BuildReport) error {
	if report == nil || report.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.builds = append(s.builds, *report)
	return nil
}

// RecentBuilds returns the latest builds, most recent first.
func (s *GameStore) RecentBuilds(_ context.Context, limit int) ([]domain.BuildReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.BuildReport, 0, len(s.builds))
	for i := len(s.builds) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, s.builds[i])
	}
	return out, nil
}

// Close is a no-op.
func (s *GameStore) Close() error {
	return nil
}

// copyGame detaches the IndexedAt pointer from the stored value.
func copyGame(g domain.Game) domain.Game {
	if g.IndexedAt != nil {
		t := *g.IndexedAt
		g.IndexedAt = &t
	}
	return g
}
