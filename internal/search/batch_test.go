// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-tools/pkg/types"
)

func TestIdentifierString(t *testing.T) {
	assert.Equal(t, "DOI:10.1/x", Identifier{Kind: KindDOI, Value: "10.1/x"}.String())
	assert.Equal(t, "PMID:123", Identifier{Kind: KindPMID, Value: "123"}.String())
	assert.Equal(t, "CorpusId:42", Identifier{Kind: KindCorpusID, Value: "42"}.String())
}

func TestBatchTooManyIdentifiers(t *testing.T) {
	var calls int32
	ts := newTestServer(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))

	ids := make([]Identifier, MaxBatchIdentifiers+1)
	for i := range ids {
		ids[i] = Identifier{Kind: KindDOI, Value: fmt.Sprintf("10.1/%d", i)}
	}

	s := &SemanticBatchSource{HTTP: testClient(ts)}
	_, err := s.Lookup(context.Background(), ids, false)

	var tm *types.TooManyIdentifiersError
	require.ErrorAs(t, err, &tm)
	assert.Equal(t, 501, tm.Count)
	assert.Equal(t, 500, tm.Max)
	assert.ErrorIs(t, err, types.ErrTooManyIdentifiers)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestBatchLookup(t *testing.T) {
	var gotIDs []string
	var gotFields string
	ts := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/graph/v1/paper/batch", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotFields = r.URL.Query().Get("fields")

		var body struct {
			IDs []string `json:"ids"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotIDs = body.IDs

		// Aligned with the request: hit, miss, hit without abstract.
		fmt.Fprint(w, `[
			{"title":"One","abstract":"A one","externalIds":{"DOI":"10.1/one"}},
			null,
			{"title":"Three","abstract":null,"externalIds":{"DOI":"10.1/three"}}]`)
	}))

	ids := []Identifier{
		{Kind: KindDOI, Value: "10.1/one"},
		{Kind: KindDOI, Value: "10.1/two"},
		{Kind: KindDOI, Value: "10.1/three"},
	}
	s := &SemanticBatchSource{HTTP: testClient(ts)}

	hits, err := s.Lookup(context.Background(), ids, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"DOI:10.1/one", "DOI:10.1/two", "DOI:10.1/three"}, gotIDs)
	assert.Equal(t, DefaultSemanticFields, gotFields)
	require.Len(t, hits, 1)
	assert.Equal(t, 0, hits[0].Index)
	assert.Equal(t, "A one", hits[0].Record.Abstract)

	hits, err = s.Lookup(context.Background(), ids, true)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, 0, hits[0].Index)
	assert.Equal(t, 2, hits[1].Index)
	assert.Equal(t, "Three", hits[1].Record.Title)
}

func TestBatchEmptyMakesNoCall(t *testing.T) {
	var calls int32
	ts := newTestServer(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))

	s := &SemanticBatchSource{HTTP: testClient(ts)}
	hits, err := s.Lookup(context.Background(), nil, false)
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}
