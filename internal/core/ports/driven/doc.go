// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - GameStore: the record store holding games and their indexed-at timestamps
//   - EmbeddingService: turns text into vectors (Gemini, OpenAI, Ollama)
//   - VectorIndex: append-only arena of unit vectors with inner-product search
//   - IndexPairStore: persistence of the vector index plus its chunk metadata
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - QueryLog: records searches for later analysis.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
