package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyoasearch/cyoasearch/internal/adapters/driven/storage/memory"
	"github.com/cyoasearch/cyoasearch/internal/core/domain"
)

func TestStatusService_ImportGames(t *testing.T) {
	store := memory.NewGameStore()
	svc := NewStatusService(store, store)
	ctx := context.Background()

	indexed := time.Now()
	n, err := svc.ImportGames(ctx, []domain.Game{
		{ID: " b ", Title: " Beta ", Text: "body", IndexedAt: &indexed},
		{ID: "a", Title: "Alpha", Summary: "synopsis"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	games, err := store.GetGames(ctx, []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "Beta", games["b"].Title)
	assert.Nil(t, games["b"].IndexedAt, "imports never arrive indexed")

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{Total: 2, WithText: 1, WithSummary: 1}, stats)

	list, err := svc.ListGames(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alpha", list[0].Title)
	assert.True(t, list[0].HasSummary)
	assert.False(t, list[1].HasSummary)
}

func TestStatusService_ImportGames_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		games []domain.Game
		saved int
	}{
		{"missing id", []domain.Game{{ID: "a", Title: "A"}, {Title: "B"}}, 1},
		{"blank title", []domain.Game{{ID: "a", Title: "  "}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewStatusService(memory.NewGameStore(), nil)
			n, err := svc.ImportGames(context.Background(), tt.games)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Equal(t, tt.saved, n)
		})
	}
}

func TestStatusService_RecentBuilds(t *testing.T) {
	ctx := context.Background()

	svc := NewStatusService(memory.NewGameStore(), nil)
	builds, err := svc.RecentBuilds(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, builds)

	store := memory.NewGameStore()
	svc = NewStatusService(store, store)
	for i := 0; i < DefaultRecentBuilds+2; i++ {
		require.NoError(t, store.RecordBuild(ctx, &domain.BuildReport{ID: string(rune('a' + i))}))
	}

	builds, err = svc.RecentBuilds(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, builds, DefaultRecentBuilds)
	assert.Equal(t, string(rune('a'+DefaultRecentBuilds+1)), builds[0].ID)

	builds, err = svc.RecentBuilds(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, builds, 2)
}
