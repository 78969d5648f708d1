package driven

import (
	"context"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
)

// EmbeddingService generates vector embeddings from text.
//
// Note: This is separate from VectorIndex which stores and searches vectors.
// EmbeddingService generates vectors; VectorIndex stores them.
//
// Implementations may include:
//   - Gemini (gemini-embedding-001 with reduced output dimensionality)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//
// Errors should wrap domain.ErrTransientProvider when a retry may succeed and
// domain.ErrProviderAuth when the credentials were rejected.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string, task domain.EmbeddingTask) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one provider call.
	// The result is positionally aligned with texts. Implementations must not
	// pad or reorder; a short result is reported as-is so callers can detect it.
	EmbedBatch(ctx context.Context, texts []string, task domain.EmbeddingTask) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 256, 768, 1536).
	// This must match the VectorIndex dimension.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
