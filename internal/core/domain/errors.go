package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Index Errors.

	// ErrIndexUnavailable indicates no index pair is loaded.
	// Queries fail with this until a build has been run and the snapshot reloaded.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrCorruptIndex indicates the persisted index pair cannot be read,
	// or that its vectors and metadata disagree.
	ErrCorruptIndex = errors.New("index pair corrupt")

	// ErrUnknownDocument indicates a similarity lookup for a game with no
	// vectors in the loaded index.
	ErrUnknownDocument = errors.New("unknown document")

	// ErrRebuildRequired indicates an incremental build touched a game that
	// already has vectors in the index. Builds handle it by escalating to a
	// full rebuild; it is never returned to callers of Build.
	ErrRebuildRequired = errors.New("full rebuild required")

	// ErrBuildInProgress indicates another build holds the index lock.
	ErrBuildInProgress = errors.New("build in progress")

	// Embedding Errors.

	// ErrEmbeddingUnavailable indicates the embedding service is not configured
	// or could not answer a query in time.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrTransientProvider indicates a retryable embedding failure
	// (network error, rate limit, server error).
	ErrTransientProvider = errors.New("transient embedding provider failure")

	// ErrProviderAuth indicates the embedding provider rejected the credentials.
	// Builds abort on it.
	ErrProviderAuth = errors.New("embedding provider authentication failed")

	// ErrAlignment indicates the provider returned a different number of
	// vectors than texts it was given.
	ErrAlignment = errors.New("embedding count mismatch")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
