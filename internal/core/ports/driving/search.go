package driving

import (
	"context"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
)

// SearchService answers queries against the loaded index snapshot.
type SearchService interface {
	// Search ranks games for a free-text query.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// Similar returns up to limit games closest to the given game.
	Similar(ctx context.Context, gameID string, limit int) ([]domain.SimilarResult, error)

	// Reload swaps in the latest persisted index pair.
	Reload(ctx context.Context) error

	// Ready reports whether an index snapshot is loaded.
	Ready() bool

	// Info describes the loaded snapshot; false when none is loaded.
	Info() (domain.IndexInfo, bool)
}
