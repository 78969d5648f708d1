package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cyoasearch/cyoasearch/internal/adapters/driven/vectorindex/flat"
	"github.com/cyoasearch/cyoasearch/internal/core/domain"
	"github.com/cyoasearch/cyoasearch/internal/core/ports/driven"
)

// topics are the axes of the mock embedding space.
var topics = []string{"dragon", "space", "romance", "horror"}

// topicVector embeds text as keyword counts per topic, plus a small floor
// so that no vector is zero.
func topicVector(text string) []float32 {
	lower := strings.ToLower(text)
	v := make([]float32, len(topics))
	for i, t := range topics {
		v[i] = 0.01 + float32(strings.Count(lower, t))
	}
	return v
}

// mockEmbedder implements driven.EmbeddingService for testing.
type mockEmbedder struct {
	mu    sync.Mutex
	calls int
	tasks []domain.EmbeddingTask
	texts [][]string

	// fail, when set, is consulted before every call.
	fail func(call int, texts []string) error

	// short drops the last vector of every response.
	short bool

	// delay simulates provider latency per call.
	delay func(texts []string) time.Duration
}

func (m *mockEmbedder) Embed(ctx context.Context, text string, task domain.EmbeddingTask) ([]float32, error) {
	vecs, err := m.EmbedBatch(ctx, []string{text}, task)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (m *mockEmbedder) EmbedBatch(
	ctx context.Context, texts []string, task domain.EmbeddingTask,
) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.tasks = append(m.tasks, task)
	m.texts = append(m.texts, append([]string(nil), texts...))
	m.mu.Unlock()

	if m.delay != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.delay(texts)):
		}
	}
	if m.fail != nil {
		if err := m.fail(call, texts); err != nil {
			return nil, err
		}
	}

	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, topicVector(t))
	}
	if m.short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int { return len(topics) }
func (m *mockEmbedder) ModelName() string { return "mock" }
func (m *mockEmbedder) Ping(context.Context) error { return nil }
func (m *mockEmbedder) Close() error { return nil }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockPairStore implements driven.IndexPairStore in memory.
type mockPairStore struct {
	mu     sync.Mutex
	blob   []byte
	chunks domain.ChunkMap
	saves  int
	locked bool

	saveErr error
	loadErr error
}

func (m *mockPairStore) Exists() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blob != nil
}

func (m *mockPairStore) Load(vectors driven.VectorIndex) (domain.ChunkMap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.blob == nil {
		return nil, domain.ErrIndexUnavailable
	}
	if err := vectors.UnmarshalBinary(m.blob); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCorruptIndex, err)
	}
	out := make(domain.ChunkMap, len(m.chunks))
	for k, v := range m.chunks {
		out[k] = v
	}
	return out, nil
}

func (m *mockPairStore) Save(vectors driven.VectorIndex, chunks domain.ChunkMap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	blob, err := vectors.MarshalBinary()
	if err != nil {
		return err
	}
	m.blob = blob
	m.chunks = make(domain.ChunkMap, len(chunks))
	for k, v := range chunks {
		m.chunks[k] = v
	}
	m.saves++
	return nil
}

func (m *mockPairStore) Lock(context.Context) (func() error, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked {
		return nil, domain.ErrBuildInProgress
	}
	m.locked = true
	return func() error {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.locked = false
		return nil
	}, nil
}

func (m *mockPairStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// mockQueryLog implements driven.QueryLog for testing.
type mockQueryLog struct {
	mu      sync.Mutex
	entries []domain.QueryLogEntry
}

func (m *mockQueryLog) Record(_ context.Context, e domain.QueryLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockQueryLog) Close() error { return nil }

// fakeSleeper records waits instead of sleeping.
type fakeSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (f *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	f.waits = append(f.waits, d)
	f.mu.Unlock()
	return ctx.Err()
}

func (f *fakeSleeper) recorded() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.waits...)
}

func newFlat(dim int) driven.VectorIndex {
	return flat.New(dim)
}

func ptrFloat(f float64) *float64 {
	return &f
}
