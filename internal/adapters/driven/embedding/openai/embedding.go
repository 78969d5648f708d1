// Package openai embeds text with the OpenAI embeddings endpoint or any
// API-compatible server.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
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
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second
)

const (
	providerName      = "openai"
	fallbackDimension = 1536
	shortenablePrefix = "text-embedding-3-"
)

// Config holds configuration for the OpenAI embedding service.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// Dimensions shortens text-embedding-3-* output. Zero keeps the native size.
	Dimensions int

	// Limiter throttles requests. Nil disables throttling.
	Limiter *embedding.RateLimiter
}

// EmbeddingService calls POST /embeddings. OpenAI models are symmetric,
// so the embedding task is ignored.
type EmbeddingService struct {
	client     *embedding.Client
	baseURL    string
	model      string
	dimensions int
	// shorten is set when the request must carry an explicit dimensions field.
	shorten bool
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// NewEmbeddingService fills defaults and requires an API key.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	native, ok := domain.EmbeddingDimensions()[cfg.Model]
	if !ok {
		native = fallbackDimension
	}
	svc := &EmbeddingService{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		dimensions: native,
	}
	if cfg.Dimensions > 0 && strings.HasPrefix(cfg.Model, shortenablePrefix) {
		svc.dimensions = cfg.Dimensions
		svc.shorten = cfg.Dimensions != native
	}

	apiKey := cfg.APIKey
	svc.client = embedding.NewClient(providerName, cfg.Timeout, cfg.Limiter, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+apiKey)
	})
	return svc, nil
}

// Embed embeds a single text.
func (s *EmbeddingService) Embed(ctx context.Context, text string, task domain.EmbeddingTask) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text}, task)
	return embedding.One(providerName, vectors, err)
}

// EmbedBatch embeds texts in one request. Results are placed by their
// response index; an index outside the batch is an alignment failure.
func (s *EmbeddingService) EmbedBatch(
	ctx context.Context, texts []string, _ domain.EmbeddingTask,
) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := embeddingRequest{Model: s.model, Input: texts}
	if s.shorten {
		req.Dimensions = s.dimensions
	}
	var resp embeddingResponse
	if err := s.client.PostJSON(ctx, s.baseURL+"/embeddings", req, &resp); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("openai: %w: index %d in %d results", domain.ErrAlignment, d.Index, len(vectors))
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int { return s.dimensions }

// ModelName returns the configured model.
func (s *EmbeddingService) ModelName() string { return s.model }

// Ping lists models, which checks the key without running inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.client.Get(ctx, s.baseURL+"/models")
}

// Close is a no-op.
func (s *EmbeddingService) Close() error { return nil }
