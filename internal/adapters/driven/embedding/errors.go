// Package embedding holds the pieces shared by the embedding provider adapters:
// HTTP error classification and request rate limiting.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"google.golang.org/api/googleapi"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
)

// CheckResponse returns nil for 2xx responses and a classified error otherwise.
// The body is consumed on failure.
func CheckResponse(provider string, resp *http.Response) error {
	if err := googleapi.CheckResponse(resp); err != nil {
		return Classify(provider, err)
	}
	return nil
}

// Classify wraps a provider error with the domain sentinel callers branch on.
// Unrecognised errors are returned wrapped but unclassified (permanent).
func Classify(provider string, err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg := gerr.Message
		if msg == "" {
			msg = http.StatusText(gerr.Code)
		}
		switch {
		case gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden:
			return fmt.Errorf("%s: %w (status %d): %s", provider, domain.ErrProviderAuth, gerr.Code, msg)
		case gerr.Code == http.StatusTooManyRequests:
			return fmt.Errorf("%s: %w: %w: %s", provider, domain.ErrTransientProvider, domain.ErrRateLimited, msg)
		case gerr.Code == http.StatusRequestTimeout || gerr.Code >= http.StatusInternalServerError:
			return fmt.Errorf("%s: %w (status %d): %s", provider, domain.ErrTransientProvider, gerr.Code, msg)
		default:
			return fmt.Errorf("%s: status %d: %s", provider, gerr.Code, msg)
		}
	}

	// The caller's own cancellation is not a provider failure.
	if errors.Is(err, context.Canceled) {
		return err
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return fmt.Errorf("%s: %w: %w", provider, domain.ErrTransientProvider, err)
	}
	return fmt.Errorf("%s: %w", provider, err)
}

// RetryAfter reads the Retry-After header of a rate-limited response in seconds.
// It returns 0 when the header is absent or not a number.
func RetryAfter(err error) int {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Header == nil {
		return 0
	}
	secs, convErr := strconv.Atoi(gerr.Header.Get("Retry-After"))
	if convErr != nil || secs < 0 {
		return 0
	}
	return secs
}
