// Package mcp exposes game search to AI assistants over the Model Context Protocol.
package mcp

import "errors"

// ErrMissingSearchService is returned by NewServer when no search service is wired.
var ErrMissingSearchService = errors.New("mcp: search service is required")
