package mcp

import "github.com/cyoasearch/cyoasearch/internal/core/ports/driving"

// Ports holds the services the tools and resources call into.
type Ports struct {
	Search driving.SearchService

	// Status backs the cyoa://games and cyoa://stats resources. Optional.
	Status driving.StatusService
}

// Validate reports ErrMissingSearchService when ports or Search is nil.
func (p *Ports) Validate() error {
	if p == nil || p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
