// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-tools/internal/patent"
	"github.com/pdiddy/research-tools/internal/search"
	"github.com/pdiddy/research-tools/pkg/types"
)

type mockSemantic struct {
	got   search.SemanticQuery
	calls int
	err   error
}

func (m *mockSemantic) Search(_ context.Context, q search.SemanticQuery) ([]types.Record, error) {
	m.got = q
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return []types.Record{{Title: "Cas9", DOI: "10.1/a"}}, nil
}

type mockWos struct {
	got   search.WosQuery
	calls int
}

func (m *mockWos) Search(_ context.Context, q search.WosQuery) ([]types.Record, error) {
	m.got = q
	m.calls++
	return nil, nil
}

type mockCitations struct {
	got search.CitationQuery
}

func (m *mockCitations) Citations(_ context.Context, q search.CitationQuery) (search.CitationResult, error) {
	m.got = q
	if err := q.Validate(); err != nil {
		return search.CitationResult{}, err
	}
	return search.CitationResult{
		Citations:  []types.Record{{Title: "Later", PMID: "2"}},
		References: []types.Record{},
	}, nil
}

type mockCrossref struct {
	work  *search.CrossrefWork
	works []search.CrossrefWork
	doi   search.CrossrefDOIQuery
	title search.CrossrefTitleQuery
}

func (m *mockCrossref) LookupDOI(_ context.Context, q search.CrossrefDOIQuery) (*search.CrossrefWork, error) {
	m.doi = q
	return m.work, nil
}

func (m *mockCrossref) SearchTitle(_ context.Context, q search.CrossrefTitleQuery) ([]search.CrossrefWork, error) {
	m.title = q
	return m.works, nil
}

func TestSemanticSearchRoute(t *testing.T) {
	sem := &mockSemantic{}
	s, _ := newToolServer(t, Tools{Semantic: sem})

	rec := post(t, s.Handler(), "/v1/tools/semantic-search",
		`{"query":"CRISPR","mode":"relevance","year_range":"2019-","fields_of_study":"Biology"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"source":"semantic_scholar","count":1,
		"records":[{"title":"Cas9","doi":"10.1/a","abstract":"","url":"https://doi.org/10.1/a"}]}`, rec.Body.String())

	assert.Equal(t, search.ModeRelevance, sem.got.Mode)
	assert.Equal(t, search.DefaultSourceLimit, sem.got.Limit)
	assert.Equal(t, "2019-", sem.got.Year)
	assert.Equal(t, "Biology", sem.got.FieldsOfStudy)

	rec = post(t, s.Handler(), "/v1/tools/semantic-search", `{"query":"CRISPR"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, search.ModeBulk, sem.got.Mode)
}

func TestSemanticSearchRouteRejectsMode(t *testing.T) {
	sem := &mockSemantic{}
	s, _ := newToolServer(t, Tools{Semantic: sem})

	rec := post(t, s.Handler(), "/v1/tools/semantic-search", `{"query":"x","mode":"fuzzy"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, sem.calls)

	sem.err = search.ErrMissingAPIKey
	rec = post(t, s.Handler(), "/v1/tools/semantic-search", `{"query":"x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWosSearchRoute(t *testing.T) {
	wos := &mockWos{}
	s, _ := newToolServer(t, Tools{Wos: wos})

	rec := post(t, s.Handler(), "/v1/tools/wos-search",
		`{"query":"Doudna","query_type":"AU","sort":"TC+D,PY+A","database":"WOK","num_results":5,"wos_api_key":"k"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"source":"web_of_science","count":0,"records":[]}`, rec.Body.String())

	assert.Equal(t, "AU", wos.got.Scope)
	assert.Equal(t, "WOK", wos.got.Database)
	assert.Equal(t, []search.WosSort{{Field: "TC", Descending: true}, {Field: "PY"}}, wos.got.Sort)
	assert.Equal(t, 5, wos.got.Limit)
	assert.Equal(t, "k", wos.got.APIKey)
}

func TestWosSearchRouteRejectsBadArguments(t *testing.T) {
	wos := &mockWos{}
	s, _ := newToolServer(t, Tools{Wos: wos})

	for _, body := range []string{
		`{"query":"x","sort":"PY+X"}`,
		`{"query":"x","sort":"ZZ+D"}`,
		`{"query":"x","query_type":"XX"}`,
		`{"query":""}`,
	} {
		rec := post(t, s.Handler(), "/v1/tools/wos-search", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Zero(t, wos.calls)
}

func TestPaperCitationsRoute(t *testing.T) {
	cit := &mockCitations{}
	s, _ := newToolServer(t, Tools{Citations: cit})

	rec := post(t, s.Handler(), "/v1/tools/paper-citations", `{"paper_id":"DOI:10.1/a","limit":10,"reference":false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"citations":[{"title":"Later","pmid":"2","abstract":"","url":""}],"references":[]}`, rec.Body.String())
	assert.Equal(t, "DOI:10.1/a", cit.got.PaperID)
	assert.Equal(t, 10, cit.got.Limit)
	require.NotNil(t, cit.got.References)
	assert.False(t, *cit.got.References)
	assert.Nil(t, cit.got.Citations)

	rec = post(t, s.Handler(), "/v1/tools/paper-citations", `{"paper_id":"x","citation":false,"reference":false}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCrossrefRoutes(t *testing.T) {
	cr := &mockCrossref{}
	s, _ := newToolServer(t, Tools{Crossref: cr})

	rec := post(t, s.Handler(), "/v1/tools/crossref-doi", `{"doi":"10.1/missing"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())
	assert.Equal(t, "10.1/missing", cr.doi.DOI)

	cr.work = &search.CrossrefWork{Title: "T", DOI: "10.1/a"}
	rec = post(t, s.Handler(), "/v1/tools/crossref-doi", `{"doi":"10.1/a","return_type":"basic"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"title":"T","doi":"10.1/a","url":"","abstract":""}`, rec.Body.String())

	rec = post(t, s.Handler(), "/v1/tools/crossref-title", `{"query":"thermometry","rows":5,"fuzzy_query":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":0,"works":[]}`, rec.Body.String())
	assert.Equal(t, "thermometry", cr.title.Title)
	assert.Equal(t, 5, cr.title.Rows)
	assert.True(t, cr.title.Fuzzy)
}

func TestPatentSimilarAndContentRoutes(t *testing.T) {
	var similar patent.SimilarQuery
	var content patent.ContentQuery
	pat := &mockPatents{
		similarFn: func(_ context.Context, q patent.SimilarQuery) ([]types.Patent, error) {
			similar = q
			return []types.Patent{{PatentID: "s1", PN: "CN1A", Title: "Near", Relevancy: "88%"}}, nil
		},
		contentFn: func(_ context.Context, q patent.ContentQuery) ([]types.PatentContent, error) {
			content = q
			if err := q.Validate(); err != nil {
				return nil, err
			}
			return []types.PatentContent{{PatentID: "p1", PatentNumber: "US1B2", Claims: "1. A widget."}}, nil
		},
	}
	s, _ := newToolServer(t, Tools{Patents: pat})

	rec := post(t, s.Handler(), "/v1/tools/patent-similar", `{"patent_number":"CN2A","relevancy":"80%","country":"CNA,USB"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"count":1,"patents":[{"patent_id":"s1","pn":"CN1A","title":"Near","relevancy":"88%"}]}`, rec.Body.String())
	assert.Equal(t, patent.SimilarQuery{PatentNumber: "CN2A", Relevancy: "80%", Country: "CNA,USB"}, similar)

	rec = post(t, s.Handler(), "/v1/tools/patent-content", `{"patent_id":"p1","claim":true,"title_abstract":false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"count":1,"patents":[{"patent_id":"p1","patent_number":"US1B2","claims":"1. A widget."}]}`, rec.Body.String())
	assert.True(t, content.Claims)
	require.NotNil(t, content.TitleAbstract)
	assert.False(t, *content.TitleAbstract)

	rec = post(t, s.Handler(), "/v1/tools/patent-content", `{"patent_id":"p1","title_abstract":false}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToolRoutesAbsentWithoutBackends(t *testing.T) {
	s, _ := newToolServer(t, Tools{})
	for _, path := range []string{
		"/v1/tools/semantic-search",
		"/v1/tools/wos-search",
		"/v1/tools/paper-citations",
		"/v1/tools/crossref-doi",
		"/v1/tools/crossref-title",
		"/v1/tools/patent-similar",
		"/v1/tools/patent-content",
	} {
		rec := post(t, s.Handler(), path, `{}`)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}
