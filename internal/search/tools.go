// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import "github.com/pdiddy/research-tools/pkg/types"

// DefaultSourceLimit is the record count of a single-source search that
// does not set num_results.
const DefaultSourceLimit = 50

// SemanticRequest holds the Semantic Scholar search tool arguments.
type SemanticRequest struct {
	Query         string `json:"query"`
	YearRange     string `json:"year_range,omitempty"`
	DocumentType  string `json:"document_type,omitempty"`
	FieldsOfStudy string `json:"fields_of_study,omitempty"`
	Fields        string `json:"fields,omitempty"`
	NumResults    int    `json:"num_results,omitempty"`

	// Filtered drops records without an abstract when abstract is among
	// the requested fields.
	Filtered bool `json:"filtered,omitempty"`

	// Mode is bulk (default) or relevance.
	Mode string `json:"mode,omitempty"`
}

// ToQuery converts r to a validated SemanticQuery.
func (r SemanticRequest) ToQuery() (SemanticQuery, error) {
	q := SemanticQuery{
		Query:         r.Query,
		Year:          r.YearRange,
		DocumentType:  r.DocumentType,
		FieldsOfStudy: r.FieldsOfStudy,
		Fields:        r.Fields,
		Limit:         r.NumResults,
		Filtered:      r.Filtered,
		Mode:          SemanticMode(r.Mode),
	}
	if q.Limit == 0 {
		q.Limit = DefaultSourceLimit
	}
	if q.Mode == "" {
		q.Mode = ModeBulk
	}
	return q, q.Validate()
}

// WosRequest holds the Web of Science search tool arguments.
type WosRequest struct {
	Query string `json:"query"`

	// QueryType is the field tag: TS (default), TI, AU, DO, IS or PMID.
	QueryType string `json:"query_type,omitempty"`

	// Sort is in sortField syntax, e.g. "PY+D,TC+D".
	Sort string `json:"sort,omitempty"`

	Database     string `json:"database,omitempty"`
	YearRange    string `json:"year_range,omitempty"`
	DocumentType string `json:"document_type,omitempty"`
	NumResults   int    `json:"num_results,omitempty"`

	// WosAPIKey overrides the configured key for this call.
	WosAPIKey string `json:"wos_api_key,omitempty"`
}

// ToQuery converts r to a validated WosQuery.
func (r WosRequest) ToQuery() (WosQuery, error) {
	sort, err := ParseWosSort(r.Sort)
	if err != nil {
		return WosQuery{}, err
	}
	q := WosQuery{
		Query:        r.Query,
		Scope:        r.QueryType,
		Database:     r.Database,
		Sort:         sort,
		Year:         r.YearRange,
		DocumentType: r.DocumentType,
		Limit:        r.NumResults,
		APIKey:       r.WosAPIKey,
	}
	if q.Limit == 0 {
		q.Limit = DefaultSourceLimit
	}
	return q, q.Validate()
}

// SourceOutput wraps the records of a single-source search.
type SourceOutput struct {
	Source  string         `json:"source"`
	Count   int            `json:"count"`
	Records []types.Record `json:"records"`
}

// NewSourceOutput stamps URLs on records and wraps them.
func NewSourceOutput(source string, records []types.Record) SourceOutput {
	if records == nil {
		records = []types.Record{}
	}
	for i := range records {
		records[i].URL = records[i].DeriveURL()
	}
	return SourceOutput{Source: source, Count: len(records), Records: records}
}
