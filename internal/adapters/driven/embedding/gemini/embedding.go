// Package gemini embeds text with the Google Gemini batchEmbedContents API.
package gemini

import (
	"context"
	"errors"
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
	DefaultBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel      = "gemini-embedding-001"
	DefaultTimeout    = 60 * time.Second
	DefaultDimensions = 256
)

const (
	providerName = "gemini"
	apiKeyHeader = "x-goog-api-key"
)

// Gemini task types.
const (
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// Config holds configuration for the Gemini embedding service.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// Dimensions is the requested output dimensionality (default: 256).
	Dimensions int

	// Limiter throttles requests. Nil disables throttling.
	Limiter *embedding.RateLimiter
}

// EmbeddingService embeds with task-typed requests, so queries and
// documents land in the asymmetric retrieval space.
type EmbeddingService struct {
	client     *embedding.Client
	baseURL    string
	model      string
	dimensions int
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type embedContentRequest struct {
	Model                string  `json:"model"`
	Content              content `json:"content"`
	TaskType             string  `json:"taskType,omitempty"`
	OutputDimensionality int     `json:"outputDimensionality,omitempty"`
}

type batchEmbedRequest struct {
	Requests []embedContentRequest `json:"requests"`
}

type batchEmbedResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
}

// NewEmbeddingService fills defaults and requires an API key.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
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
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	apiKey := cfg.APIKey
	return &EmbeddingService{
		client: embedding.NewClient(providerName, cfg.Timeout, cfg.Limiter, func(r *http.Request) {
			r.Header.Set(apiKeyHeader, apiKey)
		}),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      strings.TrimPrefix(cfg.Model, "models/"),
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed embeds a single text.
func (s *EmbeddingService) Embed(ctx context.Context, text string, task domain.EmbeddingTask) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text}, task)
	return embedding.One(providerName, vectors, err)
}

// EmbedBatch embeds texts in a single batchEmbedContents call. A short
// response is returned as-is; the caller checks alignment.
func (s *EmbeddingService) EmbedBatch(
	ctx context.Context, texts []string, task domain.EmbeddingTask,
) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	modelRef := "models/" + s.model
	req := batchEmbedRequest{Requests: make([]embedContentRequest, len(texts))}
	for i, text := range texts {
		req.Requests[i] = embedContentRequest{
			Model:                modelRef,
			Content:              content{Parts: []part{{Text: text}}},
			TaskType:             taskType(task),
			OutputDimensionality: s.dimensions,
		}
	}

	var resp batchEmbedResponse
	if err := s.client.PostJSON(ctx, s.baseURL+"/"+modelRef+":batchEmbedContents", req, &resp); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		vectors[i] = e.Values
	}
	return vectors, nil
}

// Dimensions returns the requested output dimensionality.
func (s *EmbeddingService) Dimensions() int { return s.dimensions }

// ModelName returns the model id without the "models/" prefix.
func (s *EmbeddingService) ModelName() string { return s.model }

// Ping fetches the model resource, which checks the key without running inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.client.Get(ctx, s.baseURL+"/models/"+s.model)
}

// Close is a no-op.
func (s *EmbeddingService) Close() error { return nil }

func taskType(task domain.EmbeddingTask) string {
	if task == domain.TaskQuery {
		return taskRetrievalQuery
	}
	return taskRetrievalDocument
}
