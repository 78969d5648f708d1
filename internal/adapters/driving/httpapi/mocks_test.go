package httpapi

import (
	"context"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.SearchResult
	similar []domain.SimilarResult
	err     error
	ready   bool
	reloads int

	query  string
	opts   domain.SearchOptions
	gameID string
	limit  int
}

func (m *mockSearchService) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.query, m.opts = query, opts
	return m.results, m.err
}

func (m *mockSearchService) Similar(_ context.Context, gameID string, limit int) ([]domain.SimilarResult, error) {
	m.gameID, m.limit = gameID, limit
	return m.similar, m.err
}

func (m *mockSearchService) Reload(context.Context) error {
	m.reloads++
	return m.err
}

func (m *mockSearchService) Ready() bool {
	return m.ready
}

func (m *mockSearchService) Info() (domain.IndexInfo, bool) {
	if !m.ready {
		return domain.IndexInfo{}, false
	}
	return domain.IndexInfo{Vectors: 12, Games: 3}, true
}

// mockStatusService is a mock implementation of driving.StatusService.
type mockStatusService struct {
	stats domain.Stats
	games []domain.GameListing
	err   error
}

func (m *mockStatusService) Stats(context.Context) (domain.Stats, error) {
	return m.stats, m.err
}

func (m *mockStatusService) ListGames(context.Context) ([]domain.GameListing, error) {
	return m.games, m.err
}

func (m *mockStatusService) RecentBuilds(context.Context, int) ([]domain.BuildReport, error) {
	return nil, m.err
}

func (m *mockStatusService) ImportGames(_ context.Context, games []domain.Game) (int, error) {
	return len(games), m.err
}
