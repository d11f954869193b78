// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-tools/internal/export"
	"github.com/pdiddy/research-tools/internal/metrics"
	"github.com/pdiddy/research-tools/internal/patent"
	"github.com/pdiddy/research-tools/internal/search"
	"github.com/pdiddy/research-tools/pkg/types"
)

type mockLiterature struct {
	searchFn func(ctx context.Context, req search.Request) (search.Output, error)
	got      search.Request
}

func (m *mockLiterature) Search(ctx context.Context, req search.Request) (search.Output, error) {
	m.got = req
	if m.searchFn != nil {
		return m.searchFn(ctx, req)
	}
	return search.Output{RunID: "run-1", Records: []types.Record{}}, nil
}

type mockPatents struct {
	queryFn   func(ctx context.Context, q patent.Query) ([]types.Patent, error)
	similarFn func(ctx context.Context, q patent.SimilarQuery) ([]types.Patent, error)
	contentFn func(ctx context.Context, q patent.ContentQuery) ([]types.PatentContent, error)
}

func (m *mockPatents) Query(ctx context.Context, q patent.Query) ([]types.Patent, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, q)
	}
	return nil, nil
}

func (m *mockPatents) Similar(ctx context.Context, q patent.SimilarQuery) ([]types.Patent, error) {
	if m.similarFn != nil {
		return m.similarFn(ctx, q)
	}
	return nil, nil
}

func (m *mockPatents) Content(ctx context.Context, q patent.ContentQuery) ([]types.PatentContent, error) {
	if m.contentFn != nil {
		return m.contentFn(ctx, q)
	}
	return nil, nil
}

func newTestServer(t *testing.T, lit LiteratureSearcher, pat PatentQuerier) (*Server, string) {
	t.Helper()
	return newToolServer(t, Tools{Literature: lit, Patents: pat})
}

// newToolServer mounts tools with an exporter writing to a temp dir.
func newToolServer(t *testing.T, tools Tools) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg, "research_tools")
	m.RecordSource("semantic_scholar", "ok", 3)
	if tools.Literature == nil {
		tools.Literature = &mockLiterature{}
	}
	tools.Exporter = &export.Exporter{Dir: dir}
	s := NewServer(types.DefaultConfig().Server, tools, reg, zerolog.Nop())
	return s, dir
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, &mockLiterature{}, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, &mockLiterature{}, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "research_tools_source_requests_total")
}

func TestLiteratureSearchSuccess(t *testing.T) {
	lit := &mockLiterature{searchFn: func(context.Context, search.Request) (search.Output, error) {
		return search.Output{
			RunID:    "run-42",
			Records:  []types.Record{{Title: "Cas9", DOI: "10.1/a", Abstract: "abs", URL: "https://doi.org/10.1/a"}},
			Stats:    search.Stats{Merged: 1},
			Warnings: []string{"web_of_science: skipped"},
		}, nil
	}}
	s, _ := newTestServer(t, lit, nil)

	rec := post(t, s.Handler(), "/v1/tools/literature-search",
		`{"query":"CRISPR","year_range":"2019-2023","document_type":"Review","num_results":10,"filtered":false}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "run-42", rec.Header().Get("X-Run-ID"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	assert.Equal(t, "CRISPR", lit.got.Query)
	assert.Equal(t, "2019-2023", lit.got.YearRange)
	assert.Equal(t, "Review", lit.got.DocumentType)
	assert.Equal(t, 10, lit.got.NumResults)
	require.NotNil(t, lit.got.Filtered)
	assert.False(t, *lit.got.Filtered)

	var body struct {
		RunID    string         `json:"run_id"`
		Records  []types.Record `json:"records"`
		Warnings []string       `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "run-42", body.RunID)
	require.Len(t, body.Records, 1)
	assert.Equal(t, "https://doi.org/10.1/a", body.Records[0].URL)
	assert.Equal(t, []string{"web_of_science: skipped"}, body.Warnings)
}

func TestLiteratureSearchErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid parameter", types.NewInvalidParameter("document_type", "Book", "must be All, Article or Review"), http.StatusBadRequest},
		{"too many ids", &types.TooManyIdentifiersError{Count: 501, Max: 500}, http.StatusBadRequest},
		{"rate limited", fmt.Errorf("all literature sources failed: %w", &types.RateLimitError{Source: "x", Attempts: 6}), http.StatusTooManyRequests},
		{"upstream", fmt.Errorf("all literature sources failed: %w", &types.UpstreamError{Source: "x", StatusCode: 500}), http.StatusBadGateway},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lit := &mockLiterature{searchFn: func(context.Context, search.Request) (search.Output, error) {
				return search.Output{}, tt.err
			}}
			s, _ := newTestServer(t, lit, nil)

			rec := post(t, s.Handler(), "/v1/tools/literature-search", `{"query":"x"}`)
			assert.Equal(t, tt.want, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.err.Error(), body["error"])
		})
	}
}

func TestLiteratureSearchBadJSON(t *testing.T) {
	lit := &mockLiterature{}
	s, _ := newTestServer(t, lit, nil)

	rec := post(t, s.Handler(), "/v1/tools/literature-search", `{"query":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, lit.got.Query)
}

func TestPatentQuery(t *testing.T) {
	var got patent.Query
	pat := &mockPatents{queryFn: func(_ context.Context, q patent.Query) ([]types.Patent, error) {
		got = q
		return []types.Patent{{PatentID: "p1", PN: "US1B2", Title: "Widget"}}, nil
	}}
	s, _ := newTestServer(t, &mockLiterature{}, pat)

	rec := post(t, s.Handler(), "/v1/tools/patent-query",
		`{"query":"TACD: lidar","num":5,"stemming":true,"sort":[{"field":"SCORE","order":"desc"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"count":1,"patents":[{"patent_id":"p1","pn":"US1B2","title":"Widget"}]}`, rec.Body.String())

	assert.Equal(t, "TACD: lidar", got.Query)
	assert.Equal(t, 5, got.Num)
	assert.True(t, got.Stemming)
	assert.Equal(t, []patent.Sort{{Field: "SCORE", Order: "desc"}}, got.Sort)
}

func TestPatentQueryEmptyAndMissingCredentials(t *testing.T) {
	s, _ := newTestServer(t, &mockLiterature{}, &mockPatents{})
	rec := post(t, s.Handler(), "/v1/tools/patent-query", `{"query":"x"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":0,"patents":[]}`, rec.Body.String())

	s, _ = newTestServer(t, &mockLiterature{}, &mockPatents{queryFn: func(context.Context, patent.Query) ([]types.Patent, error) {
		return nil, patent.ErrMissingCredentials
	}})
	rec = post(t, s.Handler(), "/v1/tools/patent-query", `{"query":"x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPatentRouteAbsentWithoutClient(t *testing.T) {
	s, _ := newTestServer(t, &mockLiterature{}, nil)
	rec := post(t, s.Handler(), "/v1/tools/patent-query", `{"query":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExport(t *testing.T) {
	s, dir := newTestServer(t, &mockLiterature{}, nil)

	rec := post(t, s.Handler(), "/v1/tools/export",
		`{"format":"csv","filename":"crispr","records":[{"title":"Cas9","doi":"10.1/a","abstract":"abs","url":"u"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Path string `json:"path"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, dir+"/crispr.csv", body.Path)

	data, err := os.ReadFile(body.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Cas9")

	rec = post(t, s.Handler(), "/v1/tools/export", `{"format":"xlsx","records":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(t, s.Handler(), "/v1/tools/export", `{"format":"json","records":[],"patents":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(t, s.Handler(), "/v1/tools/export", `{"format":"json","filename":"../x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(search.ErrMissingAPIKey))
	assert.Equal(t, http.StatusBadRequest, statusFor(fmt.Errorf("wrapped: %w", types.ErrInvalidParameter)))
}
