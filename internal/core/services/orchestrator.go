package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
	"github.com/cyoasearch/cyoasearch/internal/core/ports/driven"
	"github.com/cyoasearch/cyoasearch/internal/logger"
	"github.com/cyoasearch/cyoasearch/internal/retry"
)

// Orchestrator defaults.
const (
	DefaultBatchSize    = 100
	DefaultMaxAttempts  = 3
	DefaultRetryBackoff = 2 * time.Second
	DefaultBatchDelay   = 3 * time.Second
)

// OrchestratorConfig tunes how texts are sent to the embedding service.
type OrchestratorConfig struct {
	// BatchSize is the number of texts per provider call.
	BatchSize int

	// MaxAttempts is the number of tries per batch.
	MaxAttempts int

	// RetryBackoff is multiplied by the attempt number between tries.
	RetryBackoff time.Duration

	// BatchDelay is waited after each batch except the last.
	BatchDelay time.Duration

	// Workers is the number of batches in flight. 1 embeds sequentially.
	Workers int
}

// OrchestratorConfigFrom maps index settings onto an orchestrator config.
func OrchestratorConfigFrom(s domain.IndexSettings) OrchestratorConfig {
	return OrchestratorConfig{
		BatchSize:    s.BatchSize,
		MaxAttempts:  s.MaxRetries,
		RetryBackoff: s.RetryBackoff,
		BatchDelay:   s.BatchDelay,
		Workers:      s.Workers,
	}
}

func (c OrchestratorConfig) withDefaults() OrchestratorConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RetryBackoff < 0 {
		c.RetryBackoff = 0
	}
	if c.BatchDelay < 0 {
		c.BatchDelay = 0
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return c
}

// EmbedResult holds the outcome of an orchestrated run.
type EmbedResult struct {
	// Vectors is aligned with the input texts. A nil entry is a text whose batch failed.
	Vectors [][]float32

	// Succeeded lists the positions of embedded texts in ascending order.
	Succeeded []int

	// FailedBatches is the number of batches that exhausted their attempts.
	FailedBatches int
}

// Failed returns the number of texts without a vector.
func (r *EmbedResult) Failed() int {
	return len(r.Vectors) - len(r.Succeeded)
}

// EmbeddingOrchestrator drives an embedding service over a large text set.
// One failed batch never aborts a run; rejected credentials and cancellation do.
type EmbeddingOrchestrator struct {
	embedder driven.EmbeddingService
	cfg      OrchestratorConfig
	sleep    retry.Sleeper
}

// OrchestratorOption configures an EmbeddingOrchestrator.
type OrchestratorOption func(*EmbeddingOrchestrator)

// WithSleeper replaces the wait used for backoff and batch delays.
func WithSleeper(s retry.Sleeper) OrchestratorOption {
	return func(o *EmbeddingOrchestrator) {
		o.sleep = s
	}
}

// NewEmbeddingOrchestrator creates an orchestrator for embedder.
func NewEmbeddingOrchestrator(
	embedder driven.EmbeddingService, cfg OrchestratorConfig, opts ...OrchestratorOption,
) *EmbeddingOrchestrator {
	o := &EmbeddingOrchestrator{
		embedder: embedder,
		cfg:      cfg.withDefaults(),
		sleep:    retry.Sleep,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Config returns the effective configuration.
func (o *EmbeddingOrchestrator) Config() OrchestratorConfig {
	return o.cfg
}

// Run embeds texts as documents. progress, if set, is called after each
// batch with the number of texts processed so far.
func (o *EmbeddingOrchestrator) Run(
	ctx context.Context, texts []string, progress func(done, total int),
) (*EmbedResult, error) {
	result := &EmbedResult{Vectors: make([][]float32, len(texts))}
	if len(texts) == 0 {
		return result, nil
	}
	if o.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	size := o.cfg.BatchSize
	batches := (len(texts) + size - 1) / size
	logger.Info("Embedding %d texts in %d batches (workers=%d)", len(texts), batches, o.cfg.Workers)

	var (
		mu     sync.Mutex
		done   int
		failed int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Workers)

	for b := 0; b < batches; b++ {
		start := b * size
		end := min(start+size, len(texts))
		last := b == batches-1

		g.Go(func() error {
			vectors, err := o.embedBatch(gctx, b, texts[start:end])
			switch {
			case err == nil:
				// Each batch owns a disjoint range of the result slice.
				copy(result.Vectors[start:end], vectors)
			case errors.Is(err, domain.ErrProviderAuth), gctx.Err() != nil:
				return err
			default:
				logger.Error("batch %d/%d failed, skipping %d texts: %v", b+1, batches, end-start, err)
				mu.Lock()
				failed++
				mu.Unlock()
			}

			mu.Lock()
			done += end - start
			if progress != nil {
				progress(done, len(texts))
			}
			mu.Unlock()

			if last || o.cfg.BatchDelay == 0 {
				return nil
			}
			return o.sleep(gctx, o.cfg.BatchDelay)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("embedding run aborted: %w", err)
	}

	for i, v := range result.Vectors {
		if v != nil {
			result.Succeeded = append(result.Succeeded, i)
		}
	}
	result.FailedBatches = failed
	return result, nil
}

// embedBatch calls the provider with retries. Alignment and auth failures are not retried.
func (o *EmbeddingOrchestrator) embedBatch(ctx context.Context, batch int, texts []string) ([][]float32, error) {
	var vectors [][]float32
	policy := retry.Policy{
		MaxAttempts: o.cfg.MaxAttempts,
		Backoff:     retry.Linear(o.cfg.RetryBackoff),
		Sleep:       o.sleep,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			logger.Warn("batch %d attempt %d failed, retrying in %s: %v", batch+1, attempt, delay, err)
		},
	}

	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		got, err := o.embedder.EmbedBatch(ctx, texts, domain.TaskDocument)
		if err != nil {
			if errors.Is(err, domain.ErrProviderAuth) {
				return retry.Permanent(err)
			}
			return err
		}
		if len(got) != len(texts) {
			return retry.Permanent(fmt.Errorf("%w: %d vectors for %d texts", domain.ErrAlignment, len(got), len(texts)))
		}
		for i, v := range got {
			if len(v) == 0 {
				return retry.Permanent(fmt.Errorf("%w: empty vector at %d", domain.ErrAlignment, i))
			}
		}
		vectors = got
		return nil
	})
	return vectors, err
}
