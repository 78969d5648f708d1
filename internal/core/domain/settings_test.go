package domain

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		provider AIProvider
		expected bool
	}{
		{AIProviderGemini, true},
		{AIProviderOpenAI, true},
		{AIProviderOllama, true},
		{AIProvider("anthropic"), false},
		{AIProvider(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.True(t, AIProviderGemini.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.False(t, AIProviderOllama.RequiresAPIKey())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	assert.False(t, EmbeddingSettings{Provider: AIProviderGemini}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderGemini, APIKey: "k"}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.False(t, EmbeddingSettings{}.IsConfigured())
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, AIProviderGemini, s.Embedding.Provider)
	assert.Equal(t, "gemini-embedding-001", s.Embedding.Model)
	assert.Equal(t, 256, s.Embedding.Dimensions)
	assert.Equal(t, 500, s.Index.ChunkSize)
	assert.Equal(t, 50, s.Index.ChunkOverlap)
	assert.Equal(t, 100, s.Index.BatchSize)
	assert.Equal(t, 3, s.Index.MaxRetries)
	assert.Equal(t, 200, s.Search.K)
	assert.InDelta(t, 0.40, s.Search.Threshold, 1e-9)
	assert.Equal(t, "https://cyoa.cafe/game/", s.Search.BaseGameURL)
	assert.Empty(t, s.Validate())
}

func TestSettings_Validate(t *testing.T) {
	s := DefaultSettings()
	s.Embedding.Provider = "bogus"
	s.Index.ChunkOverlap = s.Index.ChunkSize
	s.Search.Threshold = 1.5
	s.Search.Ranking.TextWeight = 0.5

	errs := s.Validate()
	require.Len(t, errs, 4)

	fields := make([]string, len(errs))
	for i, e := range errs {
		fields[i] = e.Field
	}
	assert.ElementsMatch(t, []string{
		"embedding.provider",
		"index.chunk_overlap",
		"search.threshold",
		"search.ranking",
	}, fields)
	assert.Contains(t, errs[0].Error(), "bogus")
}

func TestSearchMode_Accepts(t *testing.T) {
	assert.True(t, SearchModeMixed.Accepts(FacetSummary))
	assert.True(t, SearchModeMixed.Accepts(FacetText))
	assert.True(t, SearchModeSummary.Accepts(FacetSummary))
	assert.False(t, SearchModeSummary.Accepts(FacetText))
	assert.False(t, SearchModeText.Accepts(FacetSummary))
	assert.True(t, SearchModeText.Accepts(FacetText))
}

func TestSearchOptions_WithDefaults(t *testing.T) {
	opts := SearchOptions{}.WithDefaults()

	assert.Equal(t, SearchModeMixed, opts.Mode)
	assert.Equal(t, DefaultSearchK, opts.K)
	require.NotNil(t, opts.Threshold)
	assert.InDelta(t, DefaultSearchThreshold, *opts.Threshold, 1e-9)
	assert.Equal(t, DefaultSearchLimit, opts.Limit)

	zero := 0.0
	opts = SearchOptions{Mode: SearchModeText, Threshold: &zero, K: 5, Limit: 3}.WithDefaults()
	assert.Equal(t, SearchModeText, opts.Mode)
	assert.Equal(t, 5, opts.K)
	assert.Zero(t, *opts.Threshold)
	assert.Equal(t, 3, opts.Limit)
}

func TestSettings_Paths(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, "data", s.IndexDir())
	assert.Equal(t, filepath.Join("data", "games.db"), s.DatabaseFile())

	s.Index.Dir = "/srv/index"
	s.DatabasePath = "/srv/games.db"
	assert.Equal(t, "/srv/index", s.IndexDir())
	assert.Equal(t, "/srv/games.db", s.DatabaseFile())
}
