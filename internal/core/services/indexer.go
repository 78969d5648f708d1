package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cyoasearch/cyoasearch/internal/chunker"
	"github.com/cyoasearch/cyoasearch/internal/core/domain"
	"github.com/cyoasearch/cyoasearch/internal/core/ports/driven"
	"github.com/cyoasearch/cyoasearch/internal/core/ports/driving"
	"github.com/cyoasearch/cyoasearch/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// VectorIndexFactory creates an empty vector index. A zero dim is fixed by the first Add.
type VectorIndexFactory func(dim int) driven.VectorIndex

// IndexService builds the persisted index pair from the game store.
type IndexService struct {
	games        driven.GameStore
	history      driven.BuildHistory
	pairs        driven.IndexPairStore
	newVectors   VectorIndexFactory
	chunker      *chunker.Chunker
	orchestrator *EmbeddingOrchestrator
	now          func() time.Time

	// mu rejects overlapping builds within the process; the store lock covers other processes.
	mu sync.Mutex
}

// IndexServiceOption configures an IndexService.
type IndexServiceOption func(*IndexService)

// WithBuildHistory records every build report.
func WithBuildHistory(h driven.BuildHistory) IndexServiceOption {
	return func(s *IndexService) {
		s.history = h
	}
}

// WithClock replaces the wall clock used to stamp builds.
func WithClock(now func() time.Time) IndexServiceOption {
	return func(s *IndexService) {
		s.now = now
	}
}

// NewIndexService creates an index service.
func NewIndexService(
	games driven.GameStore,
	pairs driven.IndexPairStore,
	newVectors VectorIndexFactory,
	chk *chunker.Chunker,
	orchestrator *EmbeddingOrchestrator,
	opts ...IndexServiceOption,
) *IndexService {
	s := &IndexService{
		games:        games,
		pairs:        pairs,
		newVectors:   newVectors,
		chunker:      chk,
		orchestrator: orchestrator,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build runs a full or incremental build.
//
// An incremental build only embeds games without an indexed-at stamp. The index
// is append-only, so if any of those games already has vectors (its content
// changed since it was indexed) the build escalates to a full rebuild rather than
// leave stale vectors behind. Games are stamped only when every one of their
// chunks was embedded and written.
func (s *IndexService) Build(ctx context.Context, opts domain.BuildOptions) (*domain.BuildReport, error) {
	if !s.mu.TryLock() {
		return nil, domain.ErrBuildInProgress
	}
	defer s.mu.Unlock()

	unlock, err := s.pairs.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if uerr := unlock(); uerr != nil {
			logger.Warn("releasing build lock: %v", uerr)
		}
	}()

	report := &domain.BuildReport{
		ID:        uuid.NewString(),
		Requested: domain.BuildModeIncremental,
		StartedAt: s.now(),
	}
	if opts.Full {
		report.Requested = domain.BuildModeFull
	}
	logger.Section("Index Build")

	pair, games, err := s.plan(ctx, opts.Full, report)
	if err != nil {
		return nil, err
	}

	if err := s.run(ctx, pair, games, opts.Progress, report); err != nil {
		return nil, err
	}

	report.FinishedAt = s.now()
	if s.history != nil {
		if err := s.history.RecordBuild(ctx, report); err != nil {
			logger.Warn("recording build %s: %v", report.ID, err)
		}
	}
	logger.Info("Build %s (%s) finished: %d games, %d/%d chunks embedded, %d indexed, %d vectors total",
		report.ID, report.Mode, report.Games, report.Embedded, report.Chunks, report.Indexed, report.TotalVectors)
	return report, nil
}

// plan decides the build mode and returns the base pair and the games to embed.
func (s *IndexService) plan(
	ctx context.Context, full bool, report *domain.BuildReport,
) (*IndexPair, []domain.Game, error) {
	if !full && !s.pairs.Exists() {
		logger.Info("No persisted index, running a full build")
		full = true
	}

	if !full {
		base := NewIndexPair(s.newVectors(0), nil)
		chunks, err := s.pairs.Load(base.Vectors)
		switch {
		case errors.Is(err, domain.ErrCorruptIndex), errors.Is(err, domain.ErrIndexUnavailable):
			logger.Warn("Existing index unusable (%v), running a full build", err)
			full = true
		case err != nil:
			return nil, nil, fmt.Errorf("loading index: %w", err)
		default:
			base.Chunks = chunks
		}

		if !full {
			stale, err := s.games.ListIndexable(ctx, true)
			if err != nil {
				return nil, nil, fmt.Errorf("listing stale games: %w", err)
			}
			if overlap := overlapping(stale, base.GameIDs()); overlap != "" {
				logger.Warn("Game %s already has vectors (%v), escalating to a full rebuild",
					overlap, domain.ErrRebuildRequired)
				report.Escalated = true
				full = true
			} else {
				report.Mode = domain.BuildModeIncremental
				return base, stale, nil
			}
		}
	}

	report.Mode = domain.BuildModeFull
	games, err := s.games.ListIndexable(ctx, false)
	if err != nil {
		return nil, nil, fmt.Errorf("listing games: %w", err)
	}
	return NewIndexPair(s.newVectors(0), nil), games, nil
}

// run chunks and embeds games, appends to pair, saves it and stamps complete games.
func (s *IndexService) run(
	ctx context.Context,
	pair *IndexPair,
	games []domain.Game,
	progress func(done, total int),
	report *domain.BuildReport,
) error {
	report.Games = len(games)
	report.TotalVectors = pair.Len()

	var chunks []domain.Chunk
	for _, g := range games {
		chunks = append(chunks, s.chunker.ChunkGame(g)...)
	}
	report.Chunks = len(chunks)
	if len(chunks) == 0 {
		logger.Info("Nothing to index")
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.EmbedText
	}

	result, err := s.orchestrator.Run(ctx, texts, progress)
	if err != nil {
		return err
	}
	report.Embedded = len(result.Succeeded)
	report.Failed = result.Failed()

	if report.Embedded == 0 {
		logger.Error("No chunks were embedded; index left unchanged")
		return nil
	}

	vectors := make([][]float32, 0, len(result.Succeeded))
	metas := make([]domain.ChunkMeta, 0, len(result.Succeeded))
	incomplete := make(map[string]bool)
	for i, c := range chunks {
		if result.Vectors[i] == nil {
			incomplete[c.GameID] = true
			continue
		}
		vectors = append(vectors, result.Vectors[i])
		metas = append(metas, c.Meta())
	}

	if err := pair.Append(vectors, metas); err != nil {
		return err
	}
	if err := s.pairs.Save(pair.Vectors, pair.Chunks); err != nil {
		return fmt.Errorf("saving index: %w", err)
	}
	report.Written = true
	report.TotalVectors = pair.Len()

	chunked := make(map[string]bool)
	for _, c := range chunks {
		chunked[c.GameID] = true
	}
	var done []domain.Game
	for _, g := range games {
		if chunked[g.ID] && !incomplete[g.ID] {
			done = append(done, g)
		}
	}
	if err := s.games.MarkIndexed(ctx, done, report.StartedAt); err != nil {
		return fmt.Errorf("marking games indexed: %w", err)
	}
	report.Indexed = len(done)
	if len(incomplete) > 0 {
		logger.Warn("%d games partially embedded; they stay stale for the next build", len(incomplete))
	}
	return nil
}

// ResetStatus marks every game as not indexed.
func (s *IndexService) ResetStatus(ctx context.Context) (int, error) {
	n, err := s.games.ResetIndexed(ctx)
	if err != nil {
		return 0, fmt.Errorf("resetting index status: %w", err)
	}
	logger.Info("Cleared indexed status on %d games", n)
	return n, nil
}

// overlapping returns the first game that already has vectors, or "".
func overlapping(games []domain.Game, indexed map[string]struct{}) string {
	for _, g := range games {
		if _, ok := indexed[g.ID]; ok {
			return g.ID
		}
	}
	return ""
}
