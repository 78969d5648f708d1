package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/cyoasearch/cyoasearch/internal/adapters/driven/ai"
	"github.com/cyoasearch/cyoasearch/internal/adapters/driven/config/file"
	"github.com/cyoasearch/cyoasearch/internal/adapters/driven/querylog"
	"github.com/cyoasearch/cyoasearch/internal/adapters/driven/storage/indexfile"
	"github.com/cyoasearch/cyoasearch/internal/adapters/driven/storage/sqlite"
	"github.com/cyoasearch/cyoasearch/internal/adapters/driven/vectorindex/flat"
	"github.com/cyoasearch/cyoasearch/internal/chunker"
	"github.com/cyoasearch/cyoasearch/internal/core/domain"
	"github.com/cyoasearch/cyoasearch/internal/core/ports/driven"
	"github.com/cyoasearch/cyoasearch/internal/core/ports/driving"
	"github.com/cyoasearch/cyoasearch/internal/core/services"
	"github.com/cyoasearch/cyoasearch/internal/logger"
)

// Services shared by the commands. They are built on first use so that
// commands such as version and config init need no data directory.
var (
	settings      domain.Settings
	searchService driving.SearchService
	indexService  driving.IndexService
	statusService driving.StatusService

	servicesLoaded bool
	closers        []func() error
)

// newVectorIndex is the vector index implementation used by every service.
func newVectorIndex(dim int) driven.VectorIndex {
	return flat.New(dim)
}

// loadServices reads the settings and wires the adapters into the core services.
func loadServices() error {
	if servicesLoaded {
		return nil
	}

	loaded, err := file.NewLoader(configPath).Load()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	store, err := sqlite.NewStore(loaded.DatabaseFile())
	if err != nil {
		return fmt.Errorf("opening game store: %w", err)
	}
	closers = append(closers, store.Close)
	logger.Debug("Game store: %s", store.Path())

	pairs, err := indexfile.NewStore(loaded.IndexDir())
	if err != nil {
		return err
	}

	// A missing key must not stop status or similar from working.
	var embedder driven.EmbeddingService
	if loaded.Embedding.IsConfigured() {
		embedder, err = ai.CreateEmbeddingService(&loaded.Embedding)
		if err != nil {
			return fmt.Errorf("creating embedding service: %w", err)
		}
		closers = append(closers, embedder.Close)
	} else {
		logger.Warn("embedding provider %s is not configured; search and index are unavailable", loaded.Embedding.Provider)
	}

	qlog, err := querylog.New(loaded.Server.QueryLog)
	if err != nil {
		return fmt.Errorf("opening query log: %w", err)
	}
	closers = append(closers, qlog.Close)

	games := store.GameStore()
	history := store.BuildHistory()
	chk := chunker.New(
		chunker.WithChunkSize(loaded.Index.ChunkSize),
		chunker.WithOverlap(loaded.Index.ChunkOverlap),
	)
	orchestrator := services.NewEmbeddingOrchestrator(embedder, services.OrchestratorConfigFrom(loaded.Index))

	settings = loaded
	indexService = services.NewIndexService(games, pairs, newVectorIndex, chk, orchestrator,
		services.WithBuildHistory(history))
	searchService = services.NewSearchService(pairs, games, embedder, newVectorIndex, loaded.Search,
		services.WithQueryLog(qlog))
	statusService = services.NewStatusService(games, history)
	servicesLoaded = true
	return nil
}

// closeServices releases every adapter opened by loadServices, newest first.
func closeServices() {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	closers = nil
	if err := errors.Join(errs...); err != nil {
		logger.Warn("closing services: %v", err)
	}
}

// loadSnapshot makes the search service ready if an index pair exists.
func loadSnapshot(ctx context.Context) error {
	if searchService.Ready() {
		return nil
	}
	return searchService.Reload(ctx)
}
