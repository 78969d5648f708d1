package driving

import (
	"context"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
)

// IndexService builds the index pair from the game store.
type IndexService interface {
	// Build runs a full or incremental build.
	Build(ctx context.Context, opts domain.BuildOptions) (*domain.BuildReport, error)

	// ResetStatus marks every game as not indexed.
	ResetStatus(ctx context.Context) (int, error)
}
