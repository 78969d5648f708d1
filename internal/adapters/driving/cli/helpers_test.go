package cli

import (
	"bytes"
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
)

// mockSearchService implements driving.SearchService for testing.
type mockSearchService struct {
	results   []domain.SearchResult
	similar   []domain.SimilarResult
	err       error
	reloadErr error
	ready     bool

	lastQuery string
	lastOpts  domain.SearchOptions
	lastLimit int
}

func (m *mockSearchService) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.lastQuery, m.lastOpts = query, opts
	return m.results, m.err
}

func (m *mockSearchService) Similar(_ context.Context, _ string, limit int) ([]domain.SimilarResult, error) {
	m.lastLimit = limit
	return m.similar, m.err
}

func (m *mockSearchService) Reload(context.Context) error {
	if m.reloadErr != nil {
		return m.reloadErr
	}
	m.ready = true
	return nil
}

func (m *mockSearchService) Ready() bool { return m.ready }

func (m *mockSearchService) Info() (domain.IndexInfo, bool) {
	return domain.IndexInfo{Vectors: 40, Games: 7}, m.ready
}

// mockIndexService implements driving.IndexService for testing.
type mockIndexService struct {
	report   *domain.BuildReport
	err      error
	lastOpts domain.BuildOptions
	resets   int
}

func (m *mockIndexService) Build(_ context.Context, opts domain.BuildOptions) (*domain.BuildReport, error) {
	m.lastOpts = opts
	if opts.Progress != nil {
		opts.Progress(1, 2)
		opts.Progress(2, 2)
	}
	return m.report, m.err
}

func (m *mockIndexService) ResetStatus(context.Context) (int, error) {
	return m.resets, m.err
}

// mockStatusService implements driving.StatusService for testing.
type mockStatusService struct {
	stats    domain.Stats
	games    []domain.GameListing
	builds   []domain.BuildReport
	imported []domain.Game
	err      error
}

func (m *mockStatusService) Stats(context.Context) (domain.Stats, error) {
	return m.stats, m.err
}

func (m *mockStatusService) ListGames(context.Context) ([]domain.GameListing, error) {
	return m.games, m.err
}

func (m *mockStatusService) RecentBuilds(context.Context, int) ([]domain.BuildReport, error) {
	return m.builds, m.err
}

func (m *mockStatusService) ImportGames(_ context.Context, games []domain.Game) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.imported = append(m.imported, games...)
	return len(games), nil
}

var (
	testSearch *mockSearchService
	testIndex  *mockIndexService
	testStatus *mockStatusService
)

// setupTestServices installs mock services and returns a cleanup function
// that restores the originals and resets every flag.
func setupTestServices() func() {
	origSearch, origIndex, origStatus := searchService, indexService, statusService
	origSettings, origLoaded := settings, servicesLoaded

	testSearch = &mockSearchService{ready: true}
	testIndex = &mockIndexService{report: &domain.BuildReport{ID: "b-1", Mode: domain.BuildModeFull}}
	testStatus = &mockStatusService{}

	searchService, indexService, statusService = testSearch, testIndex, testStatus
	settings = domain.DefaultSettings()
	servicesLoaded = true

	return func() {
		searchService, indexService, statusService = origSearch, origIndex, origStatus
		settings, servicesLoaded = origSettings, origLoaded
		resetFlags(rootCmd)
	}
}

// resetFlags restores every flag in the command tree to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns its combined output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

var errBoom = errors.New("boom")
