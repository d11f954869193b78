// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package paginate drives paged provider APIs until enough items have been
// collected. Each provider supplies a PageFunc that fetches one page; Fetch
// owns page sizing, continuation, stop conditions, and inter-page pacing.
package paginate

import (
	"context"
	"fmt"

	"github.com/pdiddy/research-tools/internal/httputil"
)

// Cursor locates a page. Offset-paged providers use Offset; token-paged
// providers use Token. The zero Cursor is the first page.
type Cursor struct {
	Offset int
	Token  string
}

// Page is one provider response.
type Page[T any] struct {
	Items []T

	// Total is the provider-reported result count, or a negative value when
	// the provider does not report one.
	Total int

	// Next is the continuation cursor, nil when the provider has no more pages.
	Next *Cursor
}

// PageFunc fetches the page at cur holding at most limit items.
type PageFunc[T any] func(ctx context.Context, cur Cursor, limit int) (Page[T], error)

// Options controls a Fetch.
type Options struct {
	// Want is the number of items to collect.
	Want int

	// PageSize is the preferred per-call size. Zero means MaxPageSize.
	PageSize int

	// MaxPageSize is the provider's per-call ceiling.
	MaxPageSize int

	// FixedSize keeps every call at the full page size instead of shrinking
	// the last one to the remainder. Page-number APIs need this so that
	// offset/size stays integral.
	FixedSize bool

	// Start is the cursor of the first call.
	Start Cursor

	// Pacer is waited on before every call. An idle pacer lets the first
	// call through at once, so only the gaps between pages are paced.
	Pacer *httputil.Pacer

	// OnPage, if set, is called after each page with the page number
	// (one-based) and the number of items it held.
	OnPage func(page, items int)
}

// PageSizeFor returns min(preferred, max), treating zero as unset.
func PageSizeFor(preferred, max int) int {
	switch {
	case max <= 0:
		return preferred
	case preferred <= 0 || preferred > max:
		return max
	default:
		return preferred
	}
}

// Fetch calls fn until opts.Want items are collected, the provider signals
// no continuation, the reported total is exhausted, or a page comes back
// empty. The result never holds more than opts.Want items. A provider that
// reports zero results yields an empty slice and no error.
func Fetch[T any](ctx context.Context, fn PageFunc[T], opts Options) ([]T, error) {
	if opts.Want <= 0 {
		return []T{}, nil
	}
	size := PageSizeFor(opts.PageSize, opts.MaxPageSize)
	if size <= 0 {
		size = opts.Want
	}

	out := make([]T, 0, opts.Want)
	cur := opts.Start
	fetched := 0

	for page := 1; ; page++ {
		// The first page waits too; an idle pacer lets it through at once.
		if err := opts.Pacer.Wait(ctx); err != nil {
			return nil, err
		}

		limit := size
		if remaining := opts.Want - len(out); !opts.FixedSize && remaining < limit {
			limit = remaining
		}

		p, err := fn(ctx, cur, limit)
		if err != nil {
			return nil, fmt.Errorf("fetching page %d: %w", page, err)
		}
		if opts.OnPage != nil {
			opts.OnPage(page, len(p.Items))
		}

		out = append(out, p.Items...)
		fetched += len(p.Items)

		if len(out) >= opts.Want || p.Next == nil || len(p.Items) == 0 {
			break
		}
		if p.Total >= 0 && opts.Start.Offset+fetched >= p.Total {
			break
		}
		cur = *p.Next
	}

	if len(out) > opts.Want {
		out = out[:opts.Want]
	}
	return out, nil
}
