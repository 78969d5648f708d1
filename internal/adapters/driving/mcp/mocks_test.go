package mcp

import (
	"context"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.SearchResult
	similar []domain.SimilarResult
	err     error

	lastQuery string
	lastOpts  domain.SearchOptions
	lastGame  string
	lastLimit int
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.lastQuery, m.lastOpts = query, opts
	return m.results, m.err
}

func (m *mockSearchService) Similar(_ context.Context, gameID string, limit int) ([]domain.SimilarResult, error) {
	m.lastGame, m.lastLimit = gameID, limit
	return m.similar, m.err
}

func (m *mockSearchService) Reload(context.Context) error {
	return m.err
}

func (m *mockSearchService) Ready() bool {
	return true
}

func (m *mockSearchService) Info() (domain.IndexInfo, bool) {
	return domain.IndexInfo{}, m.Ready()
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
