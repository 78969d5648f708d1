package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cyoasearch/cyoasearch/internal/chunker"
	"github.com/cyoasearch/cyoasearch/internal/core/domain"
	"github.com/cyoasearch/cyoasearch/internal/core/ports/driven"
	"github.com/cyoasearch/cyoasearch/internal/core/ports/driving"
	"github.com/cyoasearch/cyoasearch/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// ResultSnippetLength is the synopsis preview length in results.
const ResultSnippetLength = 200

// similarOversample widens the similarity k-NN so that games with many
// chunks do not crowd out the requested number of distinct games.
const similarOversample = 4

// snapshot is an immutable, loaded index pair. Queries never see it change.
type snapshot struct {
	pair     *IndexPair
	reps     map[string]int
	loadedAt time.Time
}

// SearchService answers queries from an in-memory snapshot of the index pair.
// Reload swaps the snapshot atomically; in-flight queries keep the old one.
type SearchService struct {
	pairs      driven.IndexPairStore
	games      driven.GameStore
	embedder   driven.EmbeddingService
	newVectors VectorIndexFactory
	queryLog   driven.QueryLog
	settings   domain.SearchSettings

	current  atomic.Pointer[snapshot]
	reloadMu sync.Mutex
}

// SearchServiceOption configures a SearchService.
type SearchServiceOption func(*SearchService)

// WithQueryLog records every search.
func WithQueryLog(l driven.QueryLog) SearchServiceOption {
	return func(s *SearchService) {
		s.queryLog = l
	}
}

// NewSearchService creates a search service. It starts unready; call Reload
// to load the persisted pair. The embedder may be nil, in which case Search
// fails with domain.ErrEmbeddingUnavailable while Similar still works.
func NewSearchService(
	pairs driven.IndexPairStore,
	games driven.GameStore,
	embedder driven.EmbeddingService,
	newVectors VectorIndexFactory,
	settings domain.SearchSettings,
	opts ...SearchServiceOption,
) *SearchService {
	s := &SearchService{
		pairs:      pairs,
		games:      games,
		embedder:   embedder,
		newVectors: newVectors,
		settings:   settings,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ready reports whether a snapshot is loaded.
func (s *SearchService) Ready() bool {
	return s.current.Load() != nil
}

// Reload loads the persisted pair and swaps it in. On failure the previous
// snapshot, if any, stays in place.
func (s *SearchService) Reload(_ context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	pair := NewIndexPair(s.newVectors(0), nil)
	chunks, err := s.pairs.Load(pair.Vectors)
	if err != nil {
		return fmt.Errorf("loading index pair: %w", err)
	}
	pair.Chunks = chunks
	if err := pair.Validate(); err != nil {
		return err
	}

	s.current.Store(&snapshot{
		pair:     pair,
		reps:     pair.Representatives(),
		loadedAt: time.Now(),
	})
	logger.Info("Index loaded: %d vectors, %d games", pair.Len(), len(pair.Chunks.GameIDs()))
	return nil
}

// Search embeds the query, retrieves nearby chunks and ranks their games.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < domain.MinQueryLength {
		return nil, fmt.Errorf("%w: query must be at least %d characters", domain.ErrInvalidInput, domain.MinQueryLength)
	}
	opts = s.applyDefaults(opts)

	snap := s.current.Load()
	if snap == nil {
		return nil, domain.ErrIndexUnavailable
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	logger.Section("Search")
	logger.Debug("Query: %q mode=%s k=%d threshold=%.2f", query, opts.Mode, opts.K, *opts.Threshold)

	vec, err := s.embedder.Embed(ctx, query, domain.TaskQuery)
	if err != nil {
		if errors.Is(err, domain.ErrTransientProvider) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		}
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := snap.pair.Vectors.Search(Normalize(vec), opts.K)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	scored := make([]ScoredHit, 0, len(hits))
	for _, h := range hits {
		meta, ok := snap.pair.Chunks[h.ID]
		if !ok || h.Similarity < *opts.Threshold || !opts.Mode.Accepts(meta.Facet) {
			continue
		}
		scored = append(scored, ScoredHit{GameID: meta.GameID, Facet: meta.Facet, Score: h.Similarity})
	}
	logger.Debug("Retrieved %d hits, %d above threshold", len(hits), len(scored))

	ranked := RankGames(scored, s.settings.Ranking)
	if len(ranked) > opts.Limit {
		ranked = ranked[:opts.Limit]
	}

	results, err := s.hydrate(ctx, ranked)
	if err != nil {
		return nil, err
	}

	if s.queryLog != nil {
		entry := domain.QueryLogEntry{Time: time.Now().UTC(), Query: query, Mode: opts.Mode, Results: len(results)}
		if err := s.queryLog.Record(ctx, entry); err != nil {
			logger.Warn("query log: %v", err)
		}
	}
	return results, nil
}

func (s *SearchService) applyDefaults(opts domain.SearchOptions) domain.SearchOptions {
	if opts.K <= 0 && s.settings.K > 0 {
		opts.K = s.settings.K
	}
	if opts.Threshold == nil {
		t := s.settings.Threshold
		opts.Threshold = &t
	}
	if opts.Limit <= 0 && s.settings.Limit > 0 {
		opts.Limit = s.settings.Limit
	}
	return opts.WithDefaults()
}

// hydrate joins ranked games with the store. Games missing from the store are dropped.
func (s *SearchService) hydrate(ctx context.Context, ranked []RankedGame) ([]domain.SearchResult, error) {
	results := make([]domain.SearchResult, 0, len(ranked))
	if len(ranked) == 0 {
		return results, nil
	}

	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.GameID
	}
	games, err := s.games.GetGames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetching games: %w", err)
	}

	for _, r := range ranked {
		g, ok := games[r.GameID]
		if !ok {
			logger.Debug("Game %s has vectors but no record, skipping", r.GameID)
			continue
		}
		results = append(results, domain.SearchResult{
			ID:        g.ID,
			Title:     g.Title,
			URL:       s.gameURL(g.ID),
			Score:     DisplayScore(r.Score),
			RawScore:  r.Score,
			MatchType: r.MatchType,
			Snippet:   summarySnippet(g),
		})
	}
	return results, nil
}

// Similar returns the games nearest to gameID's representative vector,
// ordered by raw similarity.
func (s *SearchService) Similar(ctx context.Context, gameID string, limit int) ([]domain.SimilarResult, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, domain.ErrIndexUnavailable
	}
	if limit <= 0 {
		limit = domain.DefaultSimilarLimit
	}

	rep, ok := snap.reps[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownDocument, gameID)
	}
	vec, err := snap.pair.Vectors.Reconstruct(rep)
	if err != nil {
		return nil, fmt.Errorf("reconstructing vector %d: %w", rep, err)
	}

	hits, err := snap.pair.Vectors.Search(vec, (limit+1)*similarOversample)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	type match struct {
		id    string
		score float64
		meta  domain.ChunkMeta
	}
	seen := map[string]bool{gameID: true}
	matches := make([]match, 0, limit)
	for _, h := range hits {
		meta, ok := snap.pair.Chunks[h.ID]
		if !ok || seen[meta.GameID] {
			continue
		}
		seen[meta.GameID] = true
		matches = append(matches, match{id: meta.GameID, score: h.Similarity, meta: meta})
		if len(matches) == limit {
			break
		}
	}

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.id
	}
	games, err := s.games.GetGames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetching games: %w", err)
	}

	results := make([]domain.SimilarResult, 0, len(matches))
	for _, m := range matches {
		g, ok := games[m.id]
		if !ok {
			continue
		}
		snippet := summarySnippet(g)
		if snippet == "" {
			snippet = m.meta.Snippet
		}
		results = append(results, domain.SimilarResult{
			ID:      g.ID,
			Title:   g.Title,
			Score:   m.score,
			URL:     s.gameURL(g.ID),
			Snippet: snippet,
		})
	}
	return results, nil
}

// Info returns details about the loaded snapshot, or false when unready.
func (s *SearchService) Info() (domain.IndexInfo, bool) {
	snap := s.current.Load()
	if snap == nil {
		return domain.IndexInfo{}, false
	}
	return domain.IndexInfo{Vectors: snap.pair.Len(), Games: len(snap.reps), LoadedAt: snap.loadedAt}, true
}

func (s *SearchService) gameURL(id string) string {
	return s.settings.BaseGameURL + id
}

func summarySnippet(g domain.Game) string {
	if g.Summary == "" {
		return ""
	}
	return chunker.Truncate(g.Summary, ResultSnippetLength)
}
