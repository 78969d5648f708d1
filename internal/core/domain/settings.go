package domain

import (
	"fmt"
	"path/filepath"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderGemini is the Google Gemini embedding API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderGemini, AIProviderOpenAI, AIProviderOllama:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderGemini || p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	default:
		return unknownDescription
	}
}

// EmbeddingTask tells the provider what an embedding will be used for.
// Retrieval quality depends on using the query task for queries and the
// document task for indexed chunks.
type EmbeddingTask string

// Embedding tasks.
const (
	TaskQuery    EmbeddingTask = "query"
	TaskDocument EmbeddingTask = "document"
)

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// APIKey is the API key (for Gemini and OpenAI).
	APIKey string

	// Dimensions is the requested output dimensionality.
	Dimensions int

	// Timeout bounds every single provider call.
	Timeout time.Duration

	// RequestsPerSecond caps the provider request rate. Zero disables the limiter.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// IndexSettings configures index builds.
type IndexSettings struct {
	// Dir holds the persisted index pair.
	Dir string

	// ChunkSize is the word window size.
	ChunkSize int

	// ChunkOverlap is the number of words shared by adjacent windows.
	ChunkOverlap int

	// BatchSize is the number of texts per embedding call.
	BatchSize int

	// MaxRetries is the number of attempts per batch.
	MaxRetries int

	// RetryBackoff is multiplied by the attempt number between attempts.
	RetryBackoff time.Duration

	// BatchDelay is waited between batches, never after the last one.
	BatchDelay time.Duration

	// Workers is the number of batches embedded concurrently. 1 is sequential.
	Workers int
}

// SearchSettings holds search behaviour configuration.
type SearchSettings struct {
	K         int
	Threshold float64
	Limit     int
	Ranking   RankingConfig

	// BaseGameURL is prefixed to game ids to build result links.
	BaseGameURL string
}

// ServerSettings configures the HTTP surface.
type ServerSettings struct {
	// Addr is the listen address.
	Addr string

	// QueryLog is the JSONL file searches are appended to. Empty disables it.
	QueryLog string

	// ReindexInterval runs an incremental build periodically. Zero disables it.
	ReindexInterval time.Duration
}

// Settings holds all application settings.
type Settings struct {
	// DataDir is the root for the database and index files.
	DataDir string

	// DatabasePath is the game store location. Empty means DataDir/games.db.
	DatabasePath string

	Embedding EmbeddingSettings
	Index     IndexSettings
	Search    SearchSettings
	Server    ServerSettings
}

// IndexDir returns where the index pair lives, defaulting to DataDir.
func (s Settings) IndexDir() string {
	if s.Index.Dir != "" {
		return s.Index.Dir
	}
	return s.DataDir
}

// DatabaseFile returns the game store location, defaulting to DataDir/games.db.
func (s Settings) DatabaseFile() string {
	if s.DatabasePath != "" {
		return s.DatabasePath
	}
	return filepath.Join(s.DataDir, "games.db")
}

// DefaultSettings returns settings with sensible defaults.
// The embedding provider has no API key until one is configured.
func DefaultSettings() Settings {
	return Settings{
		DataDir: "data",
		Embedding: EmbeddingSettings{
			Provider:          AIProviderGemini,
			Model:             DefaultEmbeddingModels()[AIProviderGemini],
			Dimensions:        256,
			Timeout:           60 * time.Second,
			RequestsPerSecond: 0,
		},
		Index: IndexSettings{
			ChunkSize:    500,
			ChunkOverlap: 50,
			BatchSize:    100,
			MaxRetries:   3,
			RetryBackoff: 2 * time.Second,
			BatchDelay:   3 * time.Second,
			Workers:      1,
		},
		Search: SearchSettings{
			K:           DefaultSearchK,
			Threshold:   DefaultSearchThreshold,
			Limit:       DefaultSearchLimit,
			Ranking:     DefaultRankingConfig(),
			BaseGameURL: "https://cyoa.cafe/game/",
		},
		Server: ServerSettings{
			Addr: ":8000",
		},
	}
}

// ValidationError describes one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the settings and returns every problem found.
func (s Settings) Validate() []ValidationError {
	var errs []ValidationError
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if !s.Embedding.Provider.IsValid() {
		add("embedding.provider", "unsupported provider %q", s.Embedding.Provider)
	}
	if s.Embedding.Dimensions < 0 {
		add("embedding.dimensions", "must not be negative")
	}
	if s.Index.ChunkSize <= 0 {
		add("index.chunk_size", "must be positive")
	}
	if s.Index.ChunkOverlap < 0 || s.Index.ChunkOverlap >= s.Index.ChunkSize {
		add("index.chunk_overlap", "must be in [0, chunk_size)")
	}
	if s.Index.BatchSize <= 0 {
		add("index.batch_size", "must be positive")
	}
	if s.Index.MaxRetries <= 0 {
		add("index.max_retries", "must be positive")
	}
	if s.Index.Workers <= 0 {
		add("index.workers", "must be positive")
	}
	if s.Search.Threshold < 0 || s.Search.Threshold > 1 {
		add("search.threshold", "must be in [0, 1]")
	}
	r := s.Search.Ranking
	if r.SummaryWeight < 0 || r.TextWeight < 0 {
		add("search.ranking", "weights must not be negative")
	}
	if d := r.SummaryWeight + r.TextWeight; d < 0.999 || d > 1.001 {
		add("search.ranking", "summary_weight + text_weight must equal 1, got %.3f", d)
	}
	if r.Decay <= 0 || r.Decay > 1 {
		add("search.ranking.decay", "must be in (0, 1]")
	}
	if r.Divisor <= 0 {
		add("search.ranking.divisor", "must be positive")
	}
	return errs
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderGemini,
		AIProviderOpenAI,
		AIProviderOllama,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini: "gemini-embedding-001",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderOllama: "nomic-embed-text",
	}
}

// EmbeddingDimensions returns the native vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"gemini-embedding-001":   3072,
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
