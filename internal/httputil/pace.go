// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a fixed minimum gap between consecutive calls to Wait. The
// first Wait returns immediately. A nil Pacer never waits.
type Pacer struct {
	mu       sync.Mutex
	interval time.Duration
	limiter  *rate.Limiter
}

// NewPacer returns a Pacer that allows one call per interval. A non-positive
// interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval, limiter: rate.NewLimiter(everyOrInf(interval), 1)}
}

// Wait blocks until the next call is allowed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	l := p.limiter
	p.mu.Unlock()
	return l.Wait(ctx)
}

// SetInterval switches to a new gap, typically one a provider advertised
// in its last response. When the gap changes, the next Wait is a full new
// interval from now. Setting the current gap again is a no-op.
func (p *Pacer) SetInterval(interval time.Duration) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if interval == p.interval {
		return
	}
	p.interval = interval
	p.limiter = rate.NewLimiter(everyOrInf(interval), 1)
	p.limiter.Allow()
}

// Interval returns the gap currently enforced.
func (p *Pacer) Interval() time.Duration {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

func everyOrInf(interval time.Duration) rate.Limit {
	if interval <= 0 {
		return rate.Inf
	}
	return rate.Every(interval)
}
