// Package ai turns embedding settings into a concrete provider adapter.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/cyoasearch/cyoasearch/internal/adapters/driven/embedding"
	geminiembed "github.com/cyoasearch/cyoasearch/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/cyoasearch/cyoasearch/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/cyoasearch/cyoasearch/internal/adapters/driven/embedding/openai"
	"github.com/cyoasearch/cyoasearch/internal/core/domain"
	"github.com/cyoasearch/cyoasearch/internal/core/ports/driven"
)

// pingTimeout bounds the connectivity check.
const pingTimeout = 5 * time.Second

// ValidateEmbeddingConfig builds a throwaway service from settings and pings
// the provider. Unconfigured settings validate trivially. Failures wrap
// domain.ErrEmbeddingUnavailable together with the classified cause.
func ValidateEmbeddingConfig(ctx context.Context, settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return fmt.Errorf("%w: %w. Check the [embedding] section of your config",
			domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(pingCtx); err != nil {
		return fmt.Errorf("%w: %s unreachable: %w", domain.ErrEmbeddingUnavailable, settings.Provider, err)
	}
	return nil
}

// CreateEmbeddingService returns the adapter for settings.Provider, sharing
// one rate limiter per service. It returns nil, nil when nothing is configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	limiter := embedding.NewRateLimiter(settings.RequestsPerSecond)

	switch settings.Provider {
	case domain.AIProviderGemini:
		return geminiembed.NewEmbeddingService(geminiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    settings.Timeout,
			Dimensions: settings.Dimensions,
			Limiter:    limiter,
		})

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    settings.Timeout,
			Dimensions: settings.Dimensions,
			Limiter:    limiter,
		})

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    settings.Timeout,
			Dimensions: settings.Dimensions,
			Limiter:    limiter,
		}), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}
