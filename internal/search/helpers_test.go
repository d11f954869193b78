// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/research-tools/internal/httputil"
	"github.com/pdiddy/research-tools/pkg/types"
)

// newTestServer starts an httptest server and points every API base URL at
// it. Semantic Scholar lives under /graph/v1, Web of Science under /wos,
// E-utilities under /eutils and Crossref under /crossref.
func newTestServer(t *testing.T, h http.Handler) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(h)

	oldSemantic, oldWos, oldEutils, oldCrossref := semanticAPIBase, wosAPIBase, eutilsBase, crossrefAPIBase
	semanticAPIBase = ts.URL + "/graph/v1"
	wosAPIBase = ts.URL + "/wos"
	eutilsBase = ts.URL + "/eutils"
	crossrefAPIBase = ts.URL + "/crossref"

	t.Cleanup(func() {
		ts.Close()
		semanticAPIBase, wosAPIBase, eutilsBase, crossrefAPIBase = oldSemantic, oldWos, oldEutils, oldCrossref
	})
	return ts
}

// testClient returns a client whose 429 waits are instant.
func testClient(ts *httptest.Server) httputil.Client {
	return httputil.Client{
		HTTP:      ts.Client(),
		UserAgent: "test/0.1",
		Retry: httputil.RetryPolicy{
			BaseDelay: time.Millisecond,
			Sleep:     func(context.Context, time.Duration) error { return nil },
		},
	}
}

func testDefaults() types.LiteratureConfig {
	cfg := types.DefaultConfig().Literature
	cfg.SemanticScholar.PageDelay = 0
	cfg.SemanticScholar.BatchDelay = 0
	cfg.WebOfScience.PageDelay = 0
	return cfg
}

// newTestAggregator wires real adapters against ts with no pacing.
func newTestAggregator(ts *httptest.Server, wosKey string) *Aggregator {
	client := testClient(ts)
	return &Aggregator{
		Semantic: &SemanticScholarSource{HTTP: client},
		Wos:      &WebOfScienceSource{HTTP: client, APIKey: wosKey},
		Resolver: &Resolver{
			Batch:  &SemanticBatchSource{HTTP: client},
			PubMed: &PubMedClient{HTTP: client, Tool: "test"},
			Logger: zerolog.Nop(),
		},
		Defaults: testDefaults(),
		Logger:   zerolog.Nop(),
		Now:      func() time.Time { return time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC) },
	}
}
