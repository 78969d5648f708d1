package services

import (
	"context"
	"sync"
	"time"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
	"github.com/cyoasearch/cyoasearch/internal/core/ports/driving"
	"github.com/cyoasearch/cyoasearch/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// Scheduler periodically runs an incremental build and reloads the search
// snapshot when the build wrote a new index pair.
type Scheduler struct {
	interval time.Duration
	indexer  driving.IndexService
	search   driving.SearchService

	mu      sync.Mutex
	running bool
	busy    bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	runs int
}

// NewScheduler creates a scheduler. search may be nil when nothing needs reloading.
func NewScheduler(interval time.Duration, indexer driving.IndexService, search driving.SearchService) *Scheduler {
	return &Scheduler{
		interval: interval,
		indexer:  indexer,
		search:   search,
	}
}

// Start runs the loop until Stop is called or ctx ends. It blocks.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return nil
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			s.wg.Wait()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.runBuild(ctx)
		}
	}
}

// Stop ends the loop and waits for a running build to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// runBuild starts a build in the background unless one is still running.
func (s *Scheduler) runBuild(ctx context.Context) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		logger.Debug("scheduler: previous build still running, skipping tick")
		return
	}
	s.busy = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			s.busy = false
			s.runs++
			s.mu.Unlock()
		}()

		report, err := s.indexer.Build(ctx, domain.BuildOptions{})
		if err != nil {
			logger.Error("scheduled build failed: %v", err)
			return
		}
		if !report.Written || s.search == nil {
			return
		}
		if err := s.search.Reload(ctx); err != nil {
			logger.Error("reload after scheduled build failed: %v", err)
		}
	}()
}

// Runs returns the number of completed scheduled builds.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}
