package driven

import (
	"context"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
)

// IndexPairStore persists the vector index together with its chunk metadata.
// The two are always written and read as one unit.
type IndexPairStore interface {
	// Exists reports whether a persisted pair is present.
	Exists() bool

	// Load reads the persisted pair into vectors and returns the metadata.
	// Returns domain.ErrIndexUnavailable when nothing is persisted and
	// domain.ErrCorruptIndex when the files cannot be decoded.
	Load(vectors VectorIndex) (domain.ChunkMap, error)

	// Save atomically replaces the persisted pair.
	Save(vectors VectorIndex, chunks domain.ChunkMap) error

	// Lock takes the single-writer build lock. The returned function releases it.
	// Returns domain.ErrBuildInProgress when another writer holds it.
	Lock(ctx context.Context) (unlock func() error, err error)
}

// QueryLog records searches.
type QueryLog interface {
	Record(ctx context.Context, entry domain.QueryLogEntry) error
	Close() error
}
