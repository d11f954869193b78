// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/research-tools/pkg/types"
)

// Client is the HTTP plumbing shared by every source adapter: a User-Agent,
// 429 backoff, and status classification.
type Client struct {
	HTTP      *http.Client
	UserAgent string
	Retry     RetryPolicy

	// OnRateLimited, if set, is called with the source name on every 429
	// that triggers a retry.
	OnRateLimited func(source string)
}

// NewClient builds a Client from the shared HTTP settings.
func NewClient(cfg types.HTTPConfig) Client {
	return Client{
		HTTP:      &http.Client{Timeout: cfg.Timeout},
		UserAgent: cfg.UserAgent,
		Retry: RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryBaseDelay,
		},
	}
}

// Do sends req with 429 backoff and returns the body of a 2xx response. Any
// other status becomes a *types.UpstreamError tagged with source.
func (c Client) Do(ctx context.Context, source string, req *http.Request) ([]byte, error) {
	body, _, err := c.do(ctx, source, req)
	return body, err
}

func (c Client) do(ctx context.Context, source string, req *http.Request) ([]byte, http.Header, error) {
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}

	policy := c.Retry
	next := policy.OnRetry
	policy.OnRetry = func(attempt int, wait time.Duration) {
		if c.OnRateLimited != nil {
			c.OnRateLimited(source)
		}
		if next != nil {
			next(attempt, wait)
		}
	}

	resp, err := DoWithRetry(ctx, hc, req, policy)
	if err != nil {
		return nil, nil, fmt.Errorf("%s request: %w", source, err)
	}
	defer resp.Body.Close()

	if err := CheckStatus(resp, source); err != nil {
		return nil, nil, err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s response: %w", source, err)
	}
	return body, resp.Header, nil
}

// GetJSON issues a GET and decodes the JSON response into out.
func (c Client) GetJSON(ctx context.Context, source, url string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	copyHeader(req.Header, header)
	body, err := c.Do(ctx, source, req)
	if err != nil {
		return err
	}
	return decodeJSON(source, body, out)
}

// GetJSONHeader is GetJSON that also returns the response headers, for
// providers that advertise their rate limits there.
func (c Client) GetJSONHeader(ctx context.Context, source, url string, header http.Header, out any) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	copyHeader(req.Header, header)
	body, respHeader, err := c.do(ctx, source, req)
	if err != nil {
		return nil, err
	}
	return respHeader, decodeJSON(source, body, out)
}

// PostJSON issues a POST with a JSON body and decodes the JSON response into out.
func (c Client) PostJSON(ctx context.Context, source, url string, header http.Header, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", source, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	copyHeader(req.Header, header)
	req.Header.Set("Content-Type", "application/json")
	body, err := c.Do(ctx, source, req)
	if err != nil {
		return err
	}
	return decodeJSON(source, body, out)
}

func copyHeader(dst, src http.Header) {
	for k, v := range src {
		dst[k] = v
	}
}

func decodeJSON(source string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing %s response: %w", source, err)
	}
	return nil
}
