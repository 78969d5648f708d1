package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cyoasearch/cyoasearch/internal/adapters/driven/storage/indexfile"
	"github.com/cyoasearch/cyoasearch/internal/adapters/driving/httpapi"
	"github.com/cyoasearch/cyoasearch/internal/adapters/driving/watch"
	"github.com/cyoasearch/cyoasearch/internal/core/domain"
	"github.com/cyoasearch/cyoasearch/internal/core/services"
	"github.com/cyoasearch/cyoasearch/internal/logger"
)

var (
	serveAddr         string
	serveWatch        bool
	serveReindexEvery time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search API over HTTP",
	Long: `Loads the index once and serves:

  GET  /search?q=...&mode=mixed|summary|text&k=...&threshold=...&limit=...
  GET  /similar/{id}?k=...
  GET  /stats
  GET  /games
  GET  /healthz
  POST /admin/reload

POST /admin/reload is answered only for loopback clients; requests from
any other address get 403. Do not forward /admin paths from a reverse proxy
on the same host.

The server starts even without an index; queries return 503 until one is
built and loaded. --watch reloads automatically when a build finishes and
--reindex-every runs incremental builds in the background.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (default from settings, :8000); /admin routes stay loopback-only")
	serveCmd.Flags().BoolVarP(&serveWatch, "watch", "w", false, "reload when the index directory changes")
	serveCmd.Flags().DurationVar(&serveReindexEvery, "reindex-every", 0, "run an incremental build at this interval")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := loadServices(); err != nil {
		return err
	}

	if err := searchService.Reload(cmd.Context()); err != nil {
		if !errors.Is(err, domain.ErrIndexUnavailable) {
			return fmt.Errorf("loading index: %w", err)
		}
		logger.Warn("no index found; serving 503 until one is built")
	}
	if info, ok := searchService.Info(); ok {
		cmd.Printf("Index: %d vectors over %d games\n", info.Vectors, info.Games)
	}

	server, err := httpapi.NewServer(&httpapi.Ports{Search: searchService, Status: statusService})
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = settings.Server.Addr
	}
	interval := serveReindexEvery
	if interval == 0 {
		interval = settings.Server.ReindexInterval
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return server.Run(ctx, addr)
	})

	if serveWatch {
		w := watch.New(settings.IndexDir(), indexfile.ManifestFile, indexfile.LockFile, searchService)
		g.Go(func() error {
			err := w.Run(ctx)
			logger.Debug("watcher stopped after %d reloads", w.Reloads())
			return err
		})
	}

	if interval > 0 {
		scheduler := services.NewScheduler(interval, indexService, searchService)
		logger.Info("Incremental build every %s", interval)
		g.Go(func() error {
			if err := scheduler.Start(ctx); err != nil && !errors.Is(err, ctx.Err()) {
				return err
			}
			return nil
		})
	}

	cmd.Printf("Serving on %s\n", addr)
	return g.Wait()
}
