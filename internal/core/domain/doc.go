// Package domain defines the core business entities for the game search engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Game: a record from the game store with its text facets
//   - Chunk: a windowed piece of a game prepared for embedding
//   - ChunkMeta / ChunkMap: provenance of every vector in the index
//   - SearchResult / SimilarResult: ranked output of the read path
//   - BuildReport: outcome of an index build
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
