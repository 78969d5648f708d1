package httpapi

import (
	"github.com/cyoasearch/cyoasearch/internal/core/ports/driving"
)

// Ports aggregates the driving ports the API serves.
type Ports struct {
	// Search answers /search and /similar and owns the snapshot reload.
	Search driving.SearchService

	// Status answers /stats and /games. Optional; the routes 404 without it.
	Status driving.StatusService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
