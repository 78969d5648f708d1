package indexfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyoasearch/cyoasearch/internal/adapters/driven/vectorindex/flat"
	"github.com/cyoasearch/cyoasearch/internal/core/domain"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func samplePair(t *testing.T) (*flat.Index, domain.ChunkMap) {
	t.Helper()
	x := flat.New(2)
	_, err := x.Add([][]float32{{1, 0}, {0, 1}, {0.6, 0.8}})
	require.NoError(t, err)
	return x, domain.ChunkMap{
		0: {GameID: "g1", Facet: domain.FacetSummary, Snippet: "syn..."},
		1: {GameID: "g1", Facet: domain.FacetText, Snippet: "body..."},
		2: {GameID: "g2", Facet: domain.FacetText, Snippet: "other..."},
	}
}

func TestNewStore_RequiresDir(t *testing.T) {
	_, err := NewStore("")
	assert.Error(t, err)
}

func TestStore_SaveLoad(t *testing.T) {
	s := setupTestStore(t)
	assert.False(t, s.Exists())

	x, chunks := samplePair(t)
	require.NoError(t, s.Save(x, chunks))
	assert.True(t, s.Exists())

	y := flat.New(0)
	loaded, err := s.Load(y)
	require.NoError(t, err)
	assert.Equal(t, chunks, loaded)
	assert.Equal(t, 3, y.Count())

	v, err := y.Reconstruct(2)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.6, 0.8}, v)
}

func TestStore_ChunkMapUsesStringKeys(t *testing.T) {
	s := setupTestStore(t)
	x, chunks := samplePair(t)
	require.NoError(t, s.Save(x, chunks))

	raw, err := os.ReadFile(filepath.Join(s.Dir(), ChunkMapFile))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"0": {`)
	assert.Contains(t, string(raw), `"game_id": "g1"`)
	assert.Contains(t, string(raw), `"type": "summary"`)
	assert.Contains(t, string(raw), `"text_snippet": "syn..."`)
}

func TestStore_LoadMissing(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.Load(flat.New(0))
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestStore_LoadCorrupt(t *testing.T) {
	t.Run("bad blob", func(t *testing.T) {
		s := setupTestStore(t)
		x, chunks := samplePair(t)
		require.NoError(t, s.Save(x, chunks))
		require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), IndexFile), []byte("garbage"), 0o644))

		_, err := s.Load(flat.New(0))
		assert.ErrorIs(t, err, domain.ErrCorruptIndex)
	})

	t.Run("bad json", func(t *testing.T) {
		s := setupTestStore(t)
		x, chunks := samplePair(t)
		require.NoError(t, s.Save(x, chunks))
		require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), ChunkMapFile), []byte("{"), 0o644))

		_, err := s.Load(flat.New(0))
		assert.ErrorIs(t, err, domain.ErrCorruptIndex)
	})

	t.Run("metadata count mismatch", func(t *testing.T) {
		s := setupTestStore(t)
		x, chunks := samplePair(t)
		require.NoError(t, s.Save(x, chunks))
		raw := `{"0": {"game_id": "g1", "type": "summary", "text_snippet": ""}}`
		require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), ChunkMapFile), []byte(raw), 0o644))

		_, err := s.Load(flat.New(0))
		assert.ErrorIs(t, err, domain.ErrCorruptIndex)
	})

	t.Run("non numeric key", func(t *testing.T) {
		_, err := decodeChunkMap([]byte(`{"x": {"game_id": "g", "type": "text"}}`))
		assert.Error(t, err)
	})

	t.Run("unknown facet", func(t *testing.T) {
		_, err := decodeChunkMap([]byte(`{"0": {"game_id": "g", "type": "poem"}}`))
		assert.Error(t, err)
	})
}

func TestStore_LoadRejectsPairFromDifferentSaves(t *testing.T) {
	s := setupTestStore(t)
	x, chunks := samplePair(t)
	require.NoError(t, s.Save(x, chunks))

	// Same vector count, different metadata: what a reader sees after the
	// chunk map of the next save is renamed but before its blob is.
	swapped := domain.ChunkMap{
		0: {GameID: "g9", Facet: domain.FacetText, Snippet: "new..."},
		1: {GameID: "g9", Facet: domain.FacetText, Snippet: "new..."},
		2: {GameID: "g9", Facet: domain.FacetSummary, Snippet: "new..."},
	}
	raw, err := encodeChunkMap(swapped)
	require.NoError(t, err)
	require.NoError(t, writeFileAtomic(filepath.Join(s.Dir(), ChunkMapFile), raw))

	_, err = s.Load(flat.New(0))
	assert.ErrorIs(t, err, domain.ErrCorruptIndex)

	// Once the save completes the pair loads again.
	require.NoError(t, s.Save(x, swapped))
	loaded, err := s.Load(flat.New(0))
	require.NoError(t, err)
	assert.Equal(t, swapped, loaded)
}

func TestStore_LoadWithoutManifest(t *testing.T) {
	s := setupTestStore(t)
	x, chunks := samplePair(t)
	require.NoError(t, s.Save(x, chunks))
	require.NoError(t, os.Remove(filepath.Join(s.Dir(), ManifestFile)))

	loaded, err := s.Load(flat.New(0))
	require.NoError(t, err)
	assert.Equal(t, chunks, loaded)
}

func TestStore_SaveRejectsMisalignedPair(t *testing.T) {
	s := setupTestStore(t)
	x, chunks := samplePair(t)
	delete(chunks, 2)

	err := s.Save(x, chunks)
	assert.ErrorIs(t, err, domain.ErrCorruptIndex)
	assert.False(t, s.Exists())
}

func TestStore_SaveLeavesNoTempFiles(t *testing.T) {
	s := setupTestStore(t)
	x, chunks := samplePair(t)
	require.NoError(t, s.Save(x, chunks))
	require.NoError(t, s.Save(x, chunks))

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{IndexFile, ChunkMapFile, ManifestFile}, names)
}

func TestStore_Lock(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	unlock, err := s.Lock(ctx)
	require.NoError(t, err)

	_, err = s.Lock(ctx)
	assert.ErrorIs(t, err, domain.ErrBuildInProgress)

	require.NoError(t, unlock())

	unlock, err = s.Lock(ctx)
	require.NoError(t, err)
	require.NoError(t, unlock())
}
