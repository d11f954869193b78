// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below unwrap to one of these so callers can
// branch with errors.Is without knowing the concrete type.
var (
	ErrInvalidParameter     = errors.New("invalid parameter")
	ErrUpstream             = errors.New("upstream error")
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")
	ErrTooManyIdentifiers   = errors.New("too many identifiers")
	ErrPartialSourceFailure = errors.New("source failed")
)

// InvalidParameterError reports a tool argument that failed validation.
// It is always returned before any network call is made.
type InvalidParameterError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid parameter %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid parameter %s=%q: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidParameterError) Unwrap() error { return ErrInvalidParameter }

// NewInvalidParameter creates an InvalidParameterError.
func NewInvalidParameter(field, value, reason string) *InvalidParameterError {
	return &InvalidParameterError{Field: field, Value: value, Reason: reason}
}

// UpstreamError carries a non-2xx provider response. Body holds the raw
// response text so callers can surface the provider's own message.
type UpstreamError struct {
	Source     string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d: %s", e.Source, e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstream }

// RateLimitError is returned once 429 retries are exhausted.
type RateLimitError struct {
	Source   string
	Attempts int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limit exceeded after %d attempts", e.Source, e.Attempts)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimitExceeded }

// TooManyIdentifiersError is returned by batch lookups given more ids than
// the provider accepts in one call.
type TooManyIdentifiersError struct {
	Count int
	Max   int
}

func (e *TooManyIdentifiersError) Error() string {
	return fmt.Sprintf("batch of %d identifiers exceeds the limit of %d", e.Count, e.Max)
}

func (e *TooManyIdentifiersError) Unwrap() error { return ErrTooManyIdentifiers }

// SourceFailure records that one source of a multi-source search failed
// while the search as a whole continued.
type SourceFailure struct {
	Source string
	Err    error
}

func (e *SourceFailure) Error() string {
	return fmt.Sprintf("source %s failed: %v", e.Source, e.Err)
}

// Unwrap exposes both the partial-failure sentinel and the cause.
func (e *SourceFailure) Unwrap() []error { return []error{ErrPartialSourceFailure, e.Err} }
