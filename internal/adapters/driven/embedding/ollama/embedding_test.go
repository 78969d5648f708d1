package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
)

func newTestService(t *testing.T, model string, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewEmbeddingService(Config{BaseURL: server.URL, Model: model})
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc := NewEmbeddingService(Config{})
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
	assert.Equal(t, DefaultBaseURL, svc.baseURL)

	svc = NewEmbeddingService(Config{Model: "all-minilm"})
	assert.Equal(t, 384, svc.Dimensions())
}

func TestEmbedBatch_NomicPrefixes(t *testing.T) {
	var inputs []string
	svc := newTestService(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		inputs = req.Input
		_, _ = w.Write([]byte(`{"embeddings":[[1,2]]}`))
	})

	_, err := svc.Embed(context.Background(), "castle", domain.TaskQuery)
	require.NoError(t, err)
	assert.Equal(t, []string{"search_query: castle"}, inputs)

	_, err = svc.Embed(context.Background(), "castle", domain.TaskDocument)
	require.NoError(t, err)
	assert.Equal(t, []string{"search_document: castle"}, inputs)
}

func TestEmbedBatch_OtherModelsUnprefixed(t *testing.T) {
	svc := newTestService(t, "all-minilm", func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"a", "b"}, req.Input)
		_, _ = w.Write([]byte(`{"embeddings":[[1],[2]]}`))
	})

	vectors, err := svc.EmbedBatch(context.Background(), []string{"a", "b"}, domain.TaskQuery)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}}, vectors)
}

func TestEmbedBatch_ServerError(t *testing.T) {
	svc := newTestService(t, "", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	})
	_, err := svc.EmbedBatch(context.Background(), []string{"a"}, domain.TaskDocument)
	assert.ErrorIs(t, err, domain.ErrTransientProvider)
}

func TestPing(t *testing.T) {
	svc := newTestService(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	})
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}
