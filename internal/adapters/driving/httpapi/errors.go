// Package httpapi serves the search engine over a small JSON REST API.
// Handlers only translate between HTTP and the driving ports.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
)

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("httpapi: search service is required")

// statusFor maps a service error onto an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnknownDocument), errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrIndexUnavailable), errors.Is(err, domain.ErrEmbeddingUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrBuildInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
