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

// wosAPIBase is the Web of Science Starter API root. Declared as a var so
// tests can substitute an httptest server.
var wosAPIBase = "https://api.clarivate.com/apis/wos-starter/v1"

const (
	wosMaxPageSize = 50

	// DefaultWosDatabase searches every Web of Science collection.
	DefaultWosDatabase = "WOK"
)

// wosScopes are the supported field tags for the main query.
var wosScopes = map[string]bool{
	"TS":   true, // title, abstract, author keywords, keywords plus
	"TI":   true,
	"AU":   true,
	"DO":   true,
	"IS":   true,
	"PMID": true,
}

var wosSortFields = map[string]bool{
	"LD": true, // load date
	"PY": true, // publication year
	"RS": true, // relevance
	"TC": true, // times cited
}

// WosSort is one sort key; multiple keys are applied in order.
type WosSort struct {
	Field      string
	Descending bool
}

// DefaultWosSort orders by relevance, best first.
var DefaultWosSort = []WosSort{{Field: "RS", Descending: true}}

// ParseWosSort parses "RS+D,PY+A" into sort keys.
func ParseWosSort(raw string) ([]WosSort, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []WosSort
	for _, part := range strings.Split(raw, ",") {
		field, dir, found := strings.Cut(strings.TrimSpace(part), "+")
		s := WosSort{Field: strings.ToUpper(field)}
		switch strings.ToUpper(dir) {
		case "D":
			s.Descending = true
		case "A", "":
			if found && dir == "" {
				return nil, types.NewInvalidParameter("sort", raw, "direction must be A or D")
			}
		default:
			return nil, types.NewInvalidParameter("sort", raw, "direction must be A or D")
		}
		out = append(out, s)
	}
	return out, nil
}

// FormatWosSort renders sort keys in the sortField syntax, e.g. "RS+D,PY+A".
func FormatWosSort(keys []WosSort) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		dir := "A"
		if k.Descending {
			dir = "D"
		}
		parts[i] = k.Field + "+" + dir
	}
	return strings.Join(parts, ",")
}

// WosQuery holds the parameters of one Web of Science search.
type WosQuery struct {
	Query string

	// Scope is the field tag: TS (default), TI, AU, DO, IS or PMID.
	Scope string

	// Database selects the collection; empty means DefaultWosDatabase.
	Database string

	// Sort defaults to DefaultWosSort.
	Sort []WosSort

	// Year is "2019", "2016-2020", "2010-" or "-2015".
	Year string

	// DocumentType is All, Article or Review. Empty means All.
	DocumentType string

	// Limit is the number of records wanted.
	Limit int

	// APIKey overrides the source's configured key for this query.
	APIKey string
}

// Validate checks q without touching the network.
func (q WosQuery) Validate() error {
	if strings.TrimSpace(q.Query) == "" {
		return types.NewInvalidParameter("query", "", "must not be empty")
	}
	if q.Scope != "" && !wosScopes[q.Scope] {
		return types.NewInvalidParameter("query_type", q.Scope, "must be one of TS, TI, AU, DO, IS, PMID")
	}
	for _, s := range q.Sort {
		if !wosSortFields[s.Field] {
			return types.NewInvalidParameter("sort", s.Field, "field must be one of LD, PY, RS, TC")
		}
	}
	if err := ValidateYearRange(q.Year); err != nil {
		return err
	}
	if _, err := wosDocumentType(q.DocumentType); err != nil {
		return err
	}
	if q.Limit < 0 {
		return types.NewInvalidParameter("num_results", strconv.Itoa(q.Limit), "must not be negative")
	}
	return nil
}

func wosDocumentType(docType string) (string, error) {
	switch docType {
	case "", DocumentTypeAll:
		return "", nil
	case DocumentTypeArticle, DocumentTypeReview:
		return docType, nil
	default:
		return "", types.NewInvalidParameter("document_type", docType, "must be All, Article or Review")
	}
}

// buildWosQuery renders the q parameter, e.g. `TS=(crispr) AND PY=(2018-2023)`.
func buildWosQuery(q WosQuery) string {
	scope := q.Scope
	if scope == "" {
		scope = "TS"
	}
	clauses := []string{fmt.Sprintf("%s=(%s)", scope, q.Query)}
	if y := wosYear(q.Year); y != "" {
		clauses = append(clauses, "PY=("+y+")")
	}
	if dt, _ := wosDocumentType(q.DocumentType); dt != "" {
		clauses = append(clauses, "DT=("+dt+")")
	}
	return strings.Join(clauses, " AND ")
}

// wosYear converts an open-ended year range into the closed form WoS expects.
func wosYear(year string) string {
	switch {
	case year == "":
		return ""
	case strings.HasPrefix(year, "-"):
		return "1900" + year
	case strings.HasSuffix(year, "-"):
		return year + "3000"
	default:
		return year
	}
}

// WebOfScienceSource searches the Web of Science Starter API.
type WebOfScienceSource struct {
	HTTP   httputil.Client
	APIKey string

	// Pacer spaces consecutive result pages.
	Pacer *httputil.Pacer

	// OnPage, if set, is called after every fetched page.
	OnPage func()
}

// Name returns the source identifier.
func (s *WebOfScienceSource) Name() string { return SourceWebOfScience }

// Search runs q and returns up to q.Limit records in provider rank order,
// each stamped with its WosOrder.
func (s *WebOfScienceSource) Search(ctx context.Context, q WosQuery) ([]types.Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	apiKey := q.APIKey
	if apiKey == "" {
		apiKey = s.APIKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("web of science: %w", ErrMissingAPIKey)
	}
	db := q.Database
	if db == "" {
		db = DefaultWosDatabase
	}
	sort := q.Sort
	if len(sort) == 0 {
		sort = DefaultWosSort
	}
	params := url.Values{
		"q":         {buildWosQuery(q)},
		"db":        {db},
		"sortField": {FormatWosSort(sort)},
	}
	header := http.Header{}
	header.Set("X-ApiKey", apiKey)

	pageSize := paginate.PageSizeFor(q.Limit, wosMaxPageSize)
	page := func(ctx context.Context, cur paginate.Cursor, limit int) (paginate.Page[types.Record], error) {
		p := cloneValues(params)
		p.Set("limit", strconv.Itoa(limit))
		p.Set("page", strconv.Itoa(cur.Offset/limit+1))

		var wr wosResponse
		if err := s.HTTP.GetJSON(ctx, SourceWebOfScience, wosAPIBase+"/documents?"+p.Encode(), header, &wr); err != nil {
			return paginate.Page[types.Record]{}, err
		}
		if s.OnPage != nil {
			s.OnPage()
		}

		out := paginate.Page[types.Record]{
			Total: wr.Metadata.Total,
			Next:  &paginate.Cursor{Offset: cur.Offset + limit},
		}
		for _, hit := range wr.Hits {
			out.Items = append(out.Items, hit.record())
		}
		return out, nil
	}

	records, err := paginate.Fetch(ctx, page, paginate.Options{
		Want:        q.Limit,
		PageSize:    pageSize,
		MaxPageSize: wosMaxPageSize,
		FixedSize:   true,
		Pacer:       s.Pacer,
	})
	if err != nil {
		return nil, fmt.Errorf("web of science search: %w", err)
	}
	for i := range records {
		records[i].WosOrder = types.Rank(i)
	}
	return records, nil
}

// Web of Science Starter JSON structures.
type wosResponse struct {
	Metadata struct {
		Total int `json:"total"`
		Page  int `json:"page"`
		Limit int `json:"limit"`
	} `json:"metadata"`
	Hits []wosHit `json:"hits"`
}

type wosHit struct {
	UID         string   `json:"uid"`
	Title       string   `json:"title"`
	Types       []string `json:"types"`
	Identifiers struct {
		DOI  string `json:"doi"`
		ISSN string `json:"issn"`
		PMID string `json:"pmid"`
	} `json:"identifiers"`
	Source struct {
		PublishYear  int    `json:"publishYear"`
		PublishMonth string `json:"publishMonth"`
	} `json:"source"`
	Links struct {
		Record string `json:"record"`
	} `json:"links"`
	Keywords struct {
		AuthorKeywords []string `json:"authorKeywords"`
	} `json:"keywords"`
	Names struct {
		Authors []struct {
			DisplayName string `json:"displayName"`
		} `json:"authors"`
	} `json:"names"`
}

func (h wosHit) record() types.Record {
	r := types.Record{
		Title:          h.Title,
		DOI:            types.NormalizeDOI(h.Identifiers.DOI),
		PMID:           strings.TrimPrefix(strings.TrimSpace(h.Identifiers.PMID), "MEDLINE:"),
		UID:            h.UID,
		ISSN:           h.Identifiers.ISSN,
		Year:           h.Source.PublishYear,
		PublishedMonth: h.Source.PublishMonth,
		Types:          h.Types,
		Link:           h.Links.Record,
		Keywords:       h.Keywords.AuthorKeywords,
	}
	for _, a := range h.Names.Authors {
		if a.DisplayName != "" {
			r.Authors = append(r.Authors, a.DisplayName)
		}
	}
	return r
}
