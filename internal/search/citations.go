// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/research-tools/internal/httputil"
	"github.com/pdiddy/research-tools/internal/paginate"
	"github.com/pdiddy/research-tools/pkg/types"
)

const (
	// DefaultCitationFields are the paper fields requested when none are given.
	DefaultCitationFields = "title,abstract,publicationTypes,publicationDate,journal,externalIds,referenceCount,citationCount,openAccessPdf"

	// DefaultCitationLimit is the per-direction count when a query sets none.
	DefaultCitationLimit = 50

	citationMaxPage = 1000
)

// CitationQuery asks for the papers citing PaperID, the papers it cites,
// or both.
type CitationQuery struct {
	// PaperID is a Semantic Scholar paper id or a prefixed external id such
	// as "DOI:10.1038/nature12373" or "PMID:19872477".
	PaperID string `json:"paper_id"`

	Fields string `json:"fields,omitempty"`

	// Limit caps each direction; zero means DefaultCitationLimit.
	Limit int `json:"limit,omitempty"`

	// Citations and References select the directions. Nil means true.
	Citations  *bool `json:"citation,omitempty"`
	References *bool `json:"reference,omitempty"`
}

func (q CitationQuery) wantCitations() bool  { return q.Citations == nil || *q.Citations }
func (q CitationQuery) wantReferences() bool { return q.References == nil || *q.References }

// Validate checks q without touching the network.
func (q CitationQuery) Validate() error {
	if strings.TrimSpace(q.PaperID) == "" {
		return types.NewInvalidParameter("paper_id", "", "must not be empty")
	}
	if q.Limit < 0 {
		return types.NewInvalidParameter("limit", strconv.Itoa(q.Limit), "must not be negative")
	}
	if !q.wantCitations() && !q.wantReferences() {
		return types.NewInvalidParameter("citation", "false", "at least one of citation and reference must be true")
	}
	return nil
}

// CitationResult holds both directions of the citation graph around a paper.
type CitationResult struct {
	Citations  []types.Record `json:"citations"`
	References []types.Record `json:"references"`
}

// CitationSource walks the Semantic Scholar citation graph.
type CitationSource struct {
	HTTP   httputil.Client
	APIKey string

	// Pacer spaces every call, across directions and pages.
	Pacer *httputil.Pacer
}

// Citations returns the papers citing q.PaperID and the papers it
// references, each list in provider order.
func (s *CitationSource) Citations(ctx context.Context, q CitationQuery) (CitationResult, error) {
	if err := q.Validate(); err != nil {
		return CitationResult{}, err
	}
	out := CitationResult{Citations: []types.Record{}, References: []types.Record{}}
	if q.wantCitations() {
		recs, err := s.walk(ctx, q, "citations")
		if err != nil {
			return CitationResult{}, err
		}
		out.Citations = recs
	}
	if q.wantReferences() {
		recs, err := s.walk(ctx, q, "references")
		if err != nil {
			return CitationResult{}, err
		}
		out.References = recs
	}
	return out, nil
}

// walk pages through /paper/{id}/citations or /paper/{id}/references.
func (s *CitationSource) walk(ctx context.Context, q CitationQuery, edge string) ([]types.Record, error) {
	fields := q.Fields
	if fields == "" {
		fields = DefaultCitationFields
	}
	limit := q.Limit
	if limit == 0 {
		limit = DefaultCitationLimit
	}
	endpoint := semanticAPIBase + "/paper/" + escapePaperID(q.PaperID) + "/" + edge

	header := http.Header{}
	if s.APIKey != "" {
		header.Set("x-api-key", s.APIKey)
	}

	page := func(ctx context.Context, cur paginate.Cursor, n int) (paginate.Page[types.Record], error) {
		p := url.Values{
			"fields": {fields},
			"offset": {strconv.Itoa(cur.Offset)},
			"limit":  {strconv.Itoa(n)},
		}
		var cr citationResponse
		if err := s.HTTP.GetJSON(ctx, SourceSemanticScholar, endpoint+"?"+p.Encode(), header, &cr); err != nil {
			return paginate.Page[types.Record]{}, err
		}
		out := paginate.Page[types.Record]{Total: -1}
		for _, e := range cr.Data {
			paper := e.CitingPaper
			if edge == "references" {
				paper = e.CitedPaper
			}
			if paper != nil {
				out.Items = append(out.Items, paper.record())
			}
		}
		if cr.Next != nil {
			out.Next = &paginate.Cursor{Offset: *cr.Next}
		}
		return out, nil
	}

	recs, err := paginate.Fetch(ctx, page, paginate.Options{
		Want:        limit,
		MaxPageSize: citationMaxPage,
		Pacer:       s.Pacer,
	})
	if err != nil {
		return nil, fmt.Errorf("semantic scholar %s: %w", edge, err)
	}
	return recs, nil
}

// escapePaperID escapes each segment but keeps the slash of a DOI id.
func escapePaperID(id string) string {
	parts := strings.Split(strings.TrimSpace(id), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

type citationResponse struct {
	Offset int            `json:"offset"`
	Next   *int           `json:"next"`
	Data   []citationEdge `json:"data"`
}

type citationEdge struct {
	CitingPaper *semanticPaper `json:"citingPaper"`
	CitedPaper  *semanticPaper `json:"citedPaper"`
}
