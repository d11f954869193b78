// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package paginate

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-tools/internal/httputil"
)

// offsetSource simulates an offset-paged API holding total items.
type offsetSource struct {
	total  int
	calls  []Cursor
	limits []int
}

func (s *offsetSource) page(_ context.Context, cur Cursor, limit int) (Page[int], error) {
	s.calls = append(s.calls, cur)
	s.limits = append(s.limits, limit)
	var items []int
	for i := cur.Offset; i < cur.Offset+limit && i < s.total; i++ {
		items = append(items, i)
	}
	next := &Cursor{Offset: cur.Offset + len(items)}
	return Page[int]{Items: items, Total: s.total, Next: next}, nil
}

func TestFetchStopsWhenTotalExhausted(t *testing.T) {
	src := &offsetSource{total: 237}
	got, err := Fetch(context.Background(), src.page, Options{Want: 1000, PageSize: 50, MaxPageSize: 100})
	require.NoError(t, err)

	assert.Len(t, got, 237)
	assert.Len(t, src.calls, 5)
	assert.Equal(t, []int{0, 50, 100, 150, 200}, offsets(src.calls))
}

func TestFetchShrinksLastPageToRemainder(t *testing.T) {
	src := &offsetSource{total: 500}
	got, err := Fetch(context.Background(), src.page, Options{Want: 120, PageSize: 50})
	require.NoError(t, err)

	assert.Len(t, got, 120)
	assert.Equal(t, []int{50, 50, 20}, src.limits)
}

func TestFetchFixedSizeTruncates(t *testing.T) {
	src := &offsetSource{total: 500}
	got, err := Fetch(context.Background(), src.page, Options{Want: 120, PageSize: 50, FixedSize: true})
	require.NoError(t, err)

	assert.Len(t, got, 120)
	assert.Equal(t, []int{50, 50, 50}, src.limits)
	assert.Equal(t, 119, got[len(got)-1])
}

func TestFetchCapsPageSize(t *testing.T) {
	src := &offsetSource{total: 300}
	_, err := Fetch(context.Background(), src.page, Options{Want: 300, PageSize: 500, MaxPageSize: 100})
	require.NoError(t, err)
	assert.Equal(t, []int{100, 100, 100}, src.limits)
}

func TestFetchZeroTotal(t *testing.T) {
	src := &offsetSource{total: 0}
	got, err := Fetch(context.Background(), src.page, Options{Want: 20, PageSize: 10})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Len(t, src.calls, 1)
}

func TestFetchTokenContinuation(t *testing.T) {
	pages := map[string]Page[string]{
		"":   {Items: []string{"a", "b"}, Total: -1, Next: &Cursor{Token: "t1"}},
		"t1": {Items: []string{"c", "d"}, Total: -1, Next: &Cursor{Token: "t2"}},
		"t2": {Items: []string{"e"}, Total: -1},
	}
	var tokens []string
	fn := func(_ context.Context, cur Cursor, _ int) (Page[string], error) {
		tokens = append(tokens, cur.Token)
		return pages[cur.Token], nil
	}

	got, err := Fetch(context.Background(), fn, Options{Want: 100, MaxPageSize: 1000})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got)
	assert.Equal(t, []string{"", "t1", "t2"}, tokens)
}

func TestFetchPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	fn := func(_ context.Context, cur Cursor, limit int) (Page[int], error) {
		calls++
		if calls == 2 {
			return Page[int]{}, boom
		}
		return Page[int]{Items: make([]int, limit), Total: 100, Next: &Cursor{Offset: cur.Offset + limit}}, nil
	}

	_, err := Fetch(context.Background(), fn, Options{Want: 100, PageSize: 10})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "page 2")
}

func TestFetchPacesBetweenPages(t *testing.T) {
	const interval = 50 * time.Millisecond
	src := &offsetSource{total: 30}
	var pages []string
	var at []time.Time
	_, err := Fetch(context.Background(), src.page, Options{
		Want:     30,
		PageSize: 10,
		Pacer:    httputil.NewPacer(interval),
		OnPage: func(page, items int) {
			at = append(at, time.Now())
			pages = append(pages, strconv.Itoa(page)+":"+strconv.Itoa(items))
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1:10", "2:10", "3:10"}, pages)

	// Every gap is paced, the first one included.
	require.Len(t, at, 3)
	for i := 1; i < len(at); i++ {
		assert.GreaterOrEqual(t, at[i].Sub(at[i-1]), interval-5*time.Millisecond, "gap %d", i)
	}
	assert.GreaterOrEqual(t, at[2].Sub(at[0]), 2*interval-5*time.Millisecond)
}

func TestFetchSharedPacerPacesEachRun(t *testing.T) {
	const interval = 50 * time.Millisecond
	pacer := httputil.NewPacer(interval)

	run := func() []time.Time {
		src := &offsetSource{total: 20}
		var at []time.Time
		_, err := Fetch(context.Background(), src.page, Options{
			Want:     20,
			PageSize: 10,
			Pacer:    pacer,
			OnPage:   func(int, int) { at = append(at, time.Now()) },
		})
		require.NoError(t, err)
		require.Len(t, at, 2)
		return at
	}

	first := run()
	time.Sleep(2 * interval)
	second := run()

	assert.GreaterOrEqual(t, first[1].Sub(first[0]), interval-5*time.Millisecond)
	assert.GreaterOrEqual(t, second[1].Sub(second[0]), interval-5*time.Millisecond)
}

func TestFetchFirstPageNotDelayed(t *testing.T) {
	src := &offsetSource{total: 10}
	start := time.Now()
	_, err := Fetch(context.Background(), src.page, Options{
		Want:     10,
		PageSize: 10,
		Pacer:    httputil.NewPacer(time.Second),
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestFetchWantZero(t *testing.T) {
	src := &offsetSource{total: 10}
	got, err := Fetch(context.Background(), src.page, Options{Want: 0, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, src.calls)
}

func TestPageSizeFor(t *testing.T) {
	assert.Equal(t, 50, PageSizeFor(50, 100))
	assert.Equal(t, 100, PageSizeFor(500, 100))
	assert.Equal(t, 100, PageSizeFor(0, 100))
	assert.Equal(t, 25, PageSizeFor(25, 0))
}

func offsets(cs []Cursor) []int {
	out := make([]int, len(cs))
	for i, c := range cs {
		out[i] = c.Offset
	}
	return out
}
