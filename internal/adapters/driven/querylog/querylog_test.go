package querylog

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		lines = append(lines, m)
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestFile_Record(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "user_queries.jsonl")
	l, err := Open(path)
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, l.Record(context.Background(), domain.QueryLogEntry{
		Time: at, Query: "space pirates", Mode: domain.SearchModeMixed, Results: 7,
	}))
	require.NoError(t, l.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.Equal(t, "space pirates", lines[0]["query"])
	assert.Equal(t, "mixed", lines[0]["mode"])
	assert.EqualValues(t, 7, lines[0]["results"])
	assert.Equal(t, "2026-03-01T12:00:00Z", lines[0]["timestamp"])
}

func TestFile_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.jsonl")
	for i := 0; i < 2; i++ {
		l, err := Open(path)
		require.NoError(t, err)
		require.NoError(t, l.Record(context.Background(), domain.QueryLogEntry{Query: "q"}))
		require.NoError(t, l.Close())
	}
	assert.Len(t, readLines(t, path), 2)
}

func TestFile_ClosedAndCancelled(t *testing.T) {
	l, err := Open(filepath.Join(t.TempDir(), "q.jsonl"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Record(ctx, domain.QueryLogEntry{}), context.Canceled)

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
	assert.ErrorIs(t, l.Record(context.Background(), domain.QueryLogEntry{}), os.ErrClosed)
}

func TestFile_ConcurrentRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.jsonl")
	l, err := Open(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Record(context.Background(), domain.QueryLogEntry{Query: "dragons"}))
		}()
	}
	wg.Wait()
	require.NoError(t, l.Close())

	assert.Len(t, readLines(t, path), 25)
}

func TestNew(t *testing.T) {
	l, err := New("")
	require.NoError(t, err)
	assert.IsType(t, Discard{}, l)
	assert.NoError(t, l.Record(context.Background(), domain.QueryLogEntry{}))
	assert.NoError(t, l.Close())

	l, err = New(filepath.Join(t.TempDir(), "q.jsonl"))
	require.NoError(t, err)
	assert.IsType(t, &File{}, l)
	assert.NoError(t, l.Close())
}
