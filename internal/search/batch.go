// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/research-tools/internal/httputil"
	"github.com/pdiddy/research-tools/pkg/types"
)

// MaxBatchIdentifiers is the Semantic Scholar per-call batch limit.
const MaxBatchIdentifiers = 500

// IdentifierKind is the namespace of an external paper identifier.
type IdentifierKind string

const (
	KindDOI      IdentifierKind = "DOI"
	KindPMID     IdentifierKind = "PMID"
	KindArXiv    IdentifierKind = "ARXIV"
	KindCorpusID IdentifierKind = "CorpusId"
)

// Identifier is a typed external paper id.
type Identifier struct {
	Kind  IdentifierKind
	Value string
}

// String renders the id in the batch API form, e.g. "DOI:10.1000/xyz".
func (id Identifier) String() string { return string(id.Kind) + ":" + id.Value }

// BatchHit is one matched record and the position of its id in the request.
type BatchHit struct {
	Index  int
	Record types.Record
}

// SemanticBatchSource looks papers up by id through the Semantic Scholar
// batch endpoint.
type SemanticBatchSource struct {
	HTTP   httputil.Client
	APIKey string

	// Fields defaults to DefaultSemanticFields.
	Fields string
}

// Name returns the source identifier.
func (s *SemanticBatchSource) Name() string { return SourceSemanticBatch }

// Lookup resolves up to MaxBatchIdentifiers ids in one call. Hits come back
// in input order. Ids with no match, or whose match has no abstract, are
// omitted unless keepUnfiltered is set; in that case a match without an
// abstract is kept, but an id with no match at all is still omitted.
func (s *SemanticBatchSource) Lookup(ctx context.Context, ids []Identifier, keepUnfiltered bool) ([]BatchHit, error) {
	if len(ids) > MaxBatchIdentifiers {
		return nil, &types.TooManyIdentifiersError{Count: len(ids), Max: MaxBatchIdentifiers}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	fields := s.Fields
	if fields == "" {
		fields = DefaultSemanticFields
	}
	body := semanticBatchRequest{IDs: make([]string, len(ids))}
	for i, id := range ids {
		body.IDs[i] = id.String()
	}

	header := http.Header{}
	if s.APIKey != "" {
		header.Set("x-api-key", s.APIKey)
	}

	var papers []*semanticPaper
	endpoint := semanticAPIBase + "/paper/batch?" + url.Values{"fields": {fields}}.Encode()
	if err := s.HTTP.PostJSON(ctx, SourceSemanticBatch, endpoint, header, body, &papers); err != nil {
		return nil, fmt.Errorf("semantic scholar batch lookup: %w", err)
	}

	var hits []BatchHit
	for i, p := range papers {
		if i >= len(ids) || p == nil {
			continue
		}
		if !keepUnfiltered && strings.TrimSpace(p.Abstract) == "" {
			continue
		}
		hits = append(hits, BatchHit{Index: i, Record: p.record()})
	}
	return hits, nil
}

type semanticBatchRequest struct {
	IDs []string `json:"ids"`
}
