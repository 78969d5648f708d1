// Package ollama embeds text with a local Ollama server.
package ollama

import (
	"context"
	"strings"
	"time"

	"github.com/cyoasearch/cyoasearch/internal/adapters/driven/embedding"
	"github.com/cyoasearch/cyoasearch/internal/core/domain"
	"github.com/cyoasearch/cyoasearch/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultModel      = "nomic-embed-text"
	DefaultTimeout    = 30 * time.Second
	DefaultDimensions = 768
)

const providerName = "ollama"

// nomic-embed-text expects a task prefix on every input.
const (
	nomicModel          = "nomic-embed-text"
	nomicQueryPrefix    = "search_query: "
	nomicDocumentPrefix = "search_document: "
)

// Config holds configuration for the Ollama embedding service.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration

	// Dimensions overrides the size looked up for Model.
	Dimensions int

	// Limiter throttles requests. Nil disables throttling.
	Limiter *embedding.RateLimiter
}

// EmbeddingService calls POST /api/embed, which accepts a batch of inputs.
type EmbeddingService struct {
	client     *embedding.Client
	baseURL    string
	model      string
	dimensions int
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewEmbeddingService fills defaults. Ollama needs no credentials.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
		if dims, ok := domain.EmbeddingDimensions()[cfg.Model]; ok {
			cfg.Dimensions = dims
		}
	}

	return &EmbeddingService{
		client:     embedding.NewClient(providerName, cfg.Timeout, cfg.Limiter, nil),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

// Embed embeds a single text.
func (s *EmbeddingService) Embed(ctx context.Context, text string, task domain.EmbeddingTask) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text}, task)
	return embedding.One(providerName, vectors, err)
}

// EmbedBatch embeds texts with one /api/embed call.
func (s *EmbeddingService) EmbedBatch(
	ctx context.Context, texts []string, task domain.EmbeddingTask,
) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	prefix := s.prefix(task)
	input := make([]string, len(texts))
	for i, text := range texts {
		input[i] = prefix + text
	}

	var resp embedResponse
	if err := s.client.PostJSON(ctx, s.baseURL+"/api/embed", embedRequest{Model: s.model, Input: input}, &resp); err != nil {
		return nil, err
	}
	return resp.Embeddings, nil
}

func (s *EmbeddingService) prefix(task domain.EmbeddingTask) string {
	switch {
	case !strings.HasPrefix(s.model, nomicModel):
		return ""
	case task == domain.TaskQuery:
		return nomicQueryPrefix
	default:
		return nomicDocumentPrefix
	}
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int { return s.dimensions }

// ModelName returns the configured model.
func (s *EmbeddingService) ModelName() string { return s.model }

// Ping lists local models to confirm the server is up.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.client.Get(ctx, s.baseURL+"/api/tags")
}

// Close is a no-op.
func (s *EmbeddingService) Close() error { return nil }
