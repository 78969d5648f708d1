package services

import (
	"fmt"
	"math"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
	"github.com/cyoasearch/cyoasearch/internal/core/ports/driven"
)

// IndexPair is a vector index together with the metadata of every vector.
// Vector id i is described by Chunks[i]; the two are only ever changed together.
type IndexPair struct {
	Vectors driven.VectorIndex
	Chunks  domain.ChunkMap
}

// NewIndexPair wraps an index and its metadata. A nil map starts empty.
func NewIndexPair(vectors driven.VectorIndex, chunks domain.ChunkMap) *IndexPair {
	if chunks == nil {
		chunks = make(domain.ChunkMap)
	}
	return &IndexPair{Vectors: vectors, Chunks: chunks}
}

// Append normalises vectors, adds them and records metas under the assigned ids.
func (p *IndexPair) Append(vectors [][]float32, metas []domain.ChunkMeta) error {
	if len(vectors) != len(metas) {
		return fmt.Errorf("%w: %d vectors for %d metadata entries", domain.ErrAlignment, len(vectors), len(metas))
	}
	if len(vectors) == 0 {
		return nil
	}

	normalised := make([][]float32, len(vectors))
	for i, v := range vectors {
		normalised[i] = Normalize(v)
	}

	first, err := p.Vectors.Add(normalised)
	if err != nil {
		return fmt.Errorf("adding vectors: %w", err)
	}
	for i, meta := range metas {
		p.Chunks[first+i] = meta
	}
	return p.Validate()
}

// Validate checks that every vector has exactly one metadata entry.
func (p *IndexPair) Validate() error {
	n := p.Vectors.Count()
	if !p.Chunks.Dense(n) {
		return fmt.Errorf("%w: %d vectors, %d metadata entries", domain.ErrCorruptIndex, n, len(p.Chunks))
	}
	return nil
}

// Len returns the number of vectors.
func (p *IndexPair) Len() int {
	return p.Vectors.Count()
}

// GameIDs returns the games with at least one vector.
func (p *IndexPair) GameIDs() map[string]struct{} {
	return p.Chunks.GameIDs()
}

// Representatives returns the vector id used for each game in similarity lookups.
func (p *IndexPair) Representatives() map[string]int {
	return p.Chunks.Representatives()
}

// Normalize returns v scaled to unit length. A zero vector is returned as a copy.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}
