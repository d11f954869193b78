// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package auth caches short-lived bearer tokens.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Token is a bearer token and the moment it stops being valid.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Fetcher obtains a fresh token from the issuer.
type Fetcher func(ctx context.Context) (Token, error)

// TokenCache holds at most one token. The zero value is ready to use and is
// safe for concurrent use.
type TokenCache struct {
	mu    sync.Mutex
	token Token

	// Now returns the current time; nil means time.Now.
	Now func() time.Time
}

func (c *TokenCache) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Invalidate drops the cached token, e.g. after the issuer rejected it.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.token = Token{}
	c.mu.Unlock()
}

// GetOrRefresh returns the cached token while it is still valid and calls
// fetch otherwise. Concurrent callers wait for a single refresh. A failed
// fetch leaves the cache empty.
func GetOrRefresh(ctx context.Context, c *TokenCache, fetch Fetcher) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.Value != "" && c.now().Before(c.token.ExpiresAt) {
		return c.token.Value, nil
	}
	tok, err := fetch(ctx)
	if err != nil {
		c.token = Token{}
		return "", err
	}
	if tok.Value == "" {
		c.token = Token{}
		return "", errors.New("token issuer returned an empty token")
	}
	c.token = tok
	return tok.Value, nil
}
