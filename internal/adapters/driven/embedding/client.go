package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
)

// Client is the JSON-over-HTTP transport the provider adapters share.
// Every request waits on the limiter, and every failure comes back classified.
type Client struct {
	provider  string
	http      *http.Client
	limiter   *RateLimiter
	authorize func(*http.Request)
}

// NewClient returns a client whose requests time out after timeout.
// authorize, when non-nil, sets credentials on each request.
func NewClient(provider string, timeout time.Duration, limiter *RateLimiter, authorize func(*http.Request)) *Client {
	return &Client{
		provider:  provider,
		http:      &http.Client{Timeout: timeout},
		limiter:   limiter,
		authorize: authorize,
	}
}

// PostJSON sends in as the request body and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, url string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encoding request: %w", c.provider, err)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: building request: %w", c.provider, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// The body is read after Do returns, so a timeout can surface here too.
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return Classify(c.provider, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// Get issues a GET and discards the body of a successful response.
func (c *Client) Get(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", c.provider, err)
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.authorize != nil {
		c.authorize(req)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, Classify(c.provider, err)
	}
	if err := CheckResponse(c.provider, resp); err != nil {
		resp.Body.Close()
		if errors.Is(err, domain.ErrRateLimited) {
			c.limiter.RecordRateLimit(RetryAfter(err))
		}
		return nil, err
	}
	return resp, nil
}

// One unwraps the result of embedding a single text.
func One(provider string, vectors [][]float32, err error) ([]float32, error) {
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%s: %w: got %d embeddings for 1 text", provider, domain.ErrAlignment, len(vectors))
	}
	return vectors[0], nil
}
