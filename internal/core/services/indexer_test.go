package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyoasearch/cyoasearch/internal/adapters/driven/storage/memory"
	"github.com/cyoasearch/cyoasearch/internal/chunker"
	"github.com/cyoasearch/cyoasearch/internal/core/domain"
)

var buildTime = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

type indexFixture struct {
	games *memory.GameStore
	pairs *mockPairStore
	emb   *mockEmbedder
	svc   *IndexService
}

func corpus() []domain.Game {
	return []domain.Game{
		{ID: "g1", Title: "Dragon Keep", Summary: "a dragon tale", Text: "dragon dragon castle knight sword quest"},
		{ID: "g2", Title: "Star Drift", Text: "space ship space station"},
		{ID: "g3", Title: "Placeholder"},
	}
}

func newIndexFixture(t *testing.T, batchSize int, games ...domain.Game) *indexFixture {
	t.Helper()
	f := &indexFixture{
		games: memory.NewGameStore(),
		pairs: &mockPairStore{},
		emb:   &mockEmbedder{},
	}
	for _, g := range games {
		require.NoError(t, f.games.SaveGame(context.Background(), g))
	}

	sleeper := &fakeSleeper{}
	orch := NewEmbeddingOrchestrator(f.emb, OrchestratorConfig{BatchSize: batchSize}, WithSleeper(sleeper.Sleep))
	f.svc = NewIndexService(
		f.games, f.pairs, newFlat,
		chunker.New(chunker.WithChunkSize(4), chunker.WithOverlap(1)),
		orch,
		WithBuildHistory(f.games),
		WithClock(func() time.Time { return buildTime }),
	)
	return f
}

func (f *indexFixture) build(t *testing.T, full bool) *domain.BuildReport {
	t.Helper()
	report, err := f.svc.Build(context.Background(), domain.BuildOptions{Full: full})
	require.NoError(t, err)
	require.NotNil(t, report)
	return report
}

func TestBuild_FirstBuildIsFull(t *testing.T) {
	f := newIndexFixture(t, 2, corpus()...)

	var progress []int
	report, err := f.svc.Build(context.Background(), domain.BuildOptions{
		Progress: func(done, _ int) { progress = append(progress, done) },
	})
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, domain.BuildModeIncremental, report.Requested)
	assert.Equal(t, domain.BuildModeFull, report.Mode)
	assert.False(t, report.Escalated)
	assert.Equal(t, 2, report.Games)
	assert.Equal(t, 4, report.Chunks)
	assert.Equal(t, 4, report.Embedded)
	assert.Equal(t, 2, report.Indexed)
	assert.Equal(t, 4, report.TotalVectors)
	assert.True(t, report.Written)
	assert.Equal(t, []int{2, 4}, progress)

	// Chunk order follows game order, synopsis first.
	assert.Equal(t, domain.ChunkMeta{GameID: "g1", Facet: domain.FacetSummary, Snippet: "a dragon tale..."}, f.pairs.chunks[0])
	assert.Equal(t, "g1", f.pairs.chunks[2].GameID)
	assert.Equal(t, "g2", f.pairs.chunks[3].GameID)

	games, err := f.games.GetGames(context.Background(), []string{"g1", "g2", "g3"})
	require.NoError(t, err)
	assert.True(t, buildTime.Equal(*games["g1"].IndexedAt))
	assert.True(t, buildTime.Equal(*games["g2"].IndexedAt))
	assert.Nil(t, games["g3"].IndexedAt)

	builds, err := f.games.RecentBuilds(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Equal(t, report.ID, builds[0].ID)
}

func TestBuild_EnrichedTextIsEmbedded(t *testing.T) {
	f := newIndexFixture(t, 10, corpus()...)
	f.build(t, false)

	require.Len(t, f.emb.texts, 1)
	sent := f.emb.texts[0]
	assert.Equal(t, "Summary/Description of CYOA game 'Dragon Keep': a dragon tale", sent[0])
	assert.Equal(t, "Text excerpt from CYOA game 'Dragon Keep': dragon dragon castle knight", sent[1])
	assert.Equal(t, "Text excerpt from CYOA game 'Dragon Keep': knight sword quest", sent[2])
}

func TestBuild_IncrementalNothingToDo(t *testing.T) {
	f := newIndexFixture(t, 2, corpus()...)
	f.build(t, false)

	report := f.build(t, false)
	assert.Equal(t, domain.BuildModeIncremental, report.Mode)
	assert.Zero(t, report.Chunks)
	assert.False(t, report.Written)
	assert.Equal(t, 4, report.TotalVectors)
	assert.Equal(t, 1, f.pairs.saveCount())
}

func TestBuild_IncrementalAppends(t *testing.T) {
	f := newIndexFixture(t, 2, corpus()...)
	f.build(t, false)

	require.NoError(t, f.games.SaveGame(context.Background(),
		domain.Game{ID: "g4", Title: "Haunted", Text: "horror night"}))

	report := f.build(t, false)
	assert.Equal(t, domain.BuildModeIncremental, report.Mode)
	assert.False(t, report.Escalated)
	assert.Equal(t, 1, report.Games)
	assert.Equal(t, 5, report.TotalVectors)
	assert.Equal(t, "g4", f.pairs.chunks[4].GameID)
	assert.Equal(t, "g1", f.pairs.chunks[0].GameID, "existing vectors keep their ids")
}

func TestBuild_EscalatesWhenStaleGameHasVectors(t *testing.T) {
	f := newIndexFixture(t, 2, corpus()...)
	f.build(t, false)

	// Changing the text clears the stamp; the old vectors are still in the index.
	require.NoError(t, f.games.SaveGame(context.Background(),
		domain.Game{ID: "g2", Title: "Star Drift", Text: "space opera"}))

	report := f.build(t, false)
	assert.True(t, report.Escalated)
	assert.Equal(t, domain.BuildModeIncremental, report.Requested)
	assert.Equal(t, domain.BuildModeFull, report.Mode)
	assert.Equal(t, 2, report.Games)
	assert.Equal(t, 4, report.TotalVectors)

	var g2 []string
	for _, meta := range f.pairs.chunks {
		if meta.GameID == "g2" {
			g2 = append(g2, meta.Snippet)
		}
	}
	assert.Equal(t, []string{"space opera..."}, g2)
}

func TestBuild_ForcedFullRebuild(t *testing.T) {
	f := newIndexFixture(t, 2, corpus()...)
	f.build(t, false)

	report := f.build(t, true)
	assert.Equal(t, domain.BuildModeFull, report.Requested)
	assert.Equal(t, domain.BuildModeFull, report.Mode)
	assert.False(t, report.Escalated)
	assert.Equal(t, 4, report.TotalVectors)
}

func TestBuild_PartialFailureLeavesGameStale(t *testing.T) {
	f := newIndexFixture(t, 1, corpus()...)
	f.emb.fail = func(_ int, batch []string) error {
		if strings.Contains(batch[0], "Star Drift") {
			return fmt.Errorf("flaky: %w", domain.ErrTransientProvider)
		}
		return nil
	}

	report := f.build(t, false)
	assert.Equal(t, 3, report.Embedded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Indexed)
	assert.Equal(t, 3, report.TotalVectors)

	stats, err := f.games.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Indexed)

	// The provider recovers; g2 has no vectors so it is appended, not escalated.
	f.emb.fail = nil
	report = f.build(t, false)
	assert.Equal(t, domain.BuildModeIncremental, report.Mode)
	assert.False(t, report.Escalated)
	assert.Equal(t, 4, report.TotalVectors)
}

func TestBuild_GameEditedDuringBuildStaysStale(t *testing.T) {
	f := newIndexFixture(t, 10, corpus()...)
	edited := false
	f.emb.fail = func(_ int, _ []string) error {
		if !edited {
			edited = true
			return f.games.SaveGame(context.Background(),
				domain.Game{ID: "g2", Title: "Star Drift", Text: "rewritten while embedding"})
		}
		return nil
	}

	f.build(t, false)

	games, err := f.games.GetGames(context.Background(), []string{"g1", "g2"})
	require.NoError(t, err)
	assert.NotNil(t, games["g1"].IndexedAt)
	assert.Nil(t, games["g2"].IndexedAt)

	// g2 already has vectors for its old text, so the next build replaces them.
	f.emb.fail = nil
	report := f.build(t, false)
	assert.True(t, report.Escalated)
	assert.Equal(t, domain.BuildModeFull, report.Mode)
}

func TestBuild_NothingEmbeddedWritesNothing(t *testing.T) {
	f := newIndexFixture(t, 2, corpus()...)
	f.emb.fail = func(int, []string) error { return domain.ErrTransientProvider }

	report := f.build(t, false)
	assert.Zero(t, report.Embedded)
	assert.Equal(t, 4, report.Failed)
	assert.False(t, report.Written)
	assert.Zero(t, f.pairs.saveCount())
	assert.False(t, f.pairs.Exists())

	stats, err := f.games.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Indexed)
}

func TestBuild_EmptyStore(t *testing.T) {
	f := newIndexFixture(t, 2)
	report := f.build(t, false)
	assert.Zero(t, report.Games)
	assert.False(t, report.Written)
	assert.Zero(t, f.emb.callCount())
}

func TestBuild_AuthFailureAborts(t *testing.T) {
	f := newIndexFixture(t, 2, corpus()...)
	f.emb.fail = func(int, []string) error { return domain.ErrProviderAuth }

	report, err := f.svc.Build(context.Background(), domain.BuildOptions{})
	assert.Nil(t, report)
	assert.ErrorIs(t, err, domain.ErrProviderAuth)
	assert.False(t, f.pairs.Exists())
	assert.False(t, f.pairs.locked, "lock must be released")
}

func TestBuild_LockHeld(t *testing.T) {
	f := newIndexFixture(t, 2, corpus()...)
	f.pairs.locked = true

	_, err := f.svc.Build(context.Background(), domain.BuildOptions{})
	assert.ErrorIs(t, err, domain.ErrBuildInProgress)
	assert.Zero(t, f.emb.callCount())
}

func TestBuild_OverlappingBuildInProcess(t *testing.T) {
	f := newIndexFixture(t, 2, corpus()...)
	f.svc.mu.Lock()
	defer f.svc.mu.Unlock()

	_, err := f.svc.Build(context.Background(), domain.BuildOptions{})
	assert.ErrorIs(t, err, domain.ErrBuildInProgress)
	assert.False(t, f.pairs.locked)
}

func TestBuild_CorruptIndexFallsBackToFull(t *testing.T) {
	f := newIndexFixture(t, 2, corpus()...)
	f.build(t, false)
	f.pairs.loadErr = domain.ErrCorruptIndex

	report := f.build(t, false)
	assert.Equal(t, domain.BuildModeFull, report.Mode)
	assert.Equal(t, 4, report.TotalVectors)
}

func TestBuild_SaveFailure(t *testing.T) {
	f := newIndexFixture(t, 2, corpus()...)
	f.pairs.saveErr = assert.AnError

	_, err := f.svc.Build(context.Background(), domain.BuildOptions{})
	assert.ErrorIs(t, err, assert.AnError)

	stats, err := f.games.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Indexed, "games are only stamped after the pair is saved")
}

func TestResetStatus(t *testing.T) {
	f := newIndexFixture(t, 2, corpus()...)
	f.build(t, false)

	n, err := f.svc.ResetStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Every game is stale and already indexed, so the next build escalates.
	report := f.build(t, false)
	assert.True(t, report.Escalated)
}
