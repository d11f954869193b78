// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP helpers shared by every source adapter:
// 429 backoff, inter-request pacing, and status classification.
package httputil

import (
	"context"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/pdiddy/research-tools/pkg/types"
)

// RetryBaseDelay is the backoff base used when a RetryPolicy leaves
// BaseDelay unset. Tests override this to avoid real sleeps.
var RetryBaseDelay = 10 * time.Second

const defaultMaxRetries = 5

// RetryPolicy controls how DoWithRetry reacts to HTTP 429.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt (default 5).
	MaxRetries int

	// BaseDelay is the first wait; attempt n waits BaseDelay * 2^n.
	BaseDelay time.Duration

	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error

	// OnRetry, if set, is called before each backoff wait.
	OnRetry func(attempt int, wait time.Duration)
}

// Backoff returns the wait before retry number attempt (zero-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = RetryBaseDelay
	}
	return time.Duration(math.Pow(2, float64(attempt))) * base
}

func (p RetryPolicy) maxRetries() int {
	if p.MaxRetries <= 0 {
		return defaultMaxRetries
	}
	return p.MaxRetries
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return SleepContext(ctx, d)
}

// SleepContext waits for d or until ctx is done, whichever comes first.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// DoWithRetry executes req and retries on HTTP 429 (Too Many Requests) with
// exponential backoff: with the default 10 s base the waits are 10 s, 20 s,
// 40 s, 80 s, 160 s.
//
// On each 429 the response body is drained and closed before sleeping.
// Requests with a body are replayed through req.GetBody, so POST lookups
// retry as well as GET searches. If the context is cancelled during a wait
// the function returns ctx.Err(). After exhausting retries it returns a
// *types.RateLimitError. Any other status is returned to the caller
// unchanged; see CheckStatus.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, p RetryPolicy) (*http.Response, error) {
	maxRetries := p.maxRetries()

	for attempt := 0; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			attemptReq.Body = body
		}

		resp, err := client.Do(attemptReq)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if attempt >= maxRetries {
			return nil, &types.RateLimitError{Source: req.URL.Host, Attempts: attempt + 1}
		}

		backoff := p.Backoff(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, backoff)
		}
		if err := p.sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}
}
