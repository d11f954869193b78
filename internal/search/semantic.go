// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/research-tools/internal/httputil"
	"github.com/pdiddy/research-tools/internal/paginate"
	"github.com/pdiddy/research-tools/pkg/types"
)

// semanticAPIBase is the Semantic Scholar Graph API root. Declared as a var
// so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1"

const (
	// DefaultSemanticFields are the paper fields requested when none are given.
	DefaultSemanticFields = "title,abstract,externalIds,openAccessPdf,year,publicationTypes"

	semanticBulkMaxPage      = 1000
	semanticRelevanceMaxPage = 100
)

// SemanticMode selects the Semantic Scholar search endpoint.
type SemanticMode string

const (
	// ModeBulk uses /paper/search/bulk: token continuation, up to 1000 per call.
	ModeBulk SemanticMode = "bulk"
	// ModeRelevance uses /paper/search: offset paging, up to 100 per call.
	ModeRelevance SemanticMode = "relevance"
)

// Document types accepted by the literature tools.
const (
	DocumentTypeAll     = "All"
	DocumentTypeArticle = "Article"
	DocumentTypeReview  = "Review"
)

// semanticPublicationTypes maps a document type to the publicationTypes filter.
var semanticPublicationTypes = map[string]string{
	DocumentTypeAll:     "",
	DocumentTypeArticle: "JournalArticle",
	DocumentTypeReview:  "Review",
}

var yearRangePattern = regexp.MustCompile(`^(\d{4})?(-)?(\d{4})?$`)

// SemanticQuery holds the parameters of one Semantic Scholar search.
type SemanticQuery struct {
	// Query accepts AND/OR/NOT, quoted phrases and parentheses.
	Query string

	// Year is "2019", "2016-2020", "2010-" or "-2015".
	Year string

	// DocumentType is All, Article or Review. Empty means All.
	DocumentType string

	// FieldsOfStudy is a comma-separated list such as "Medicine,Biology".
	FieldsOfStudy string

	// Fields is the comma-separated list of paper fields to return.
	Fields string

	// Limit is the number of records wanted.
	Limit int

	// Filtered drops records without an abstract when abstract is requested.
	Filtered bool

	Mode SemanticMode
}

// Validate checks q without touching the network.
func (q SemanticQuery) Validate() error {
	if strings.TrimSpace(q.Query) == "" {
		return types.NewInvalidParameter("query", "", "must not be empty")
	}
	if err := ValidateYearRange(q.Year); err != nil {
		return err
	}
	if _, err := semanticPublicationType(q.DocumentType); err != nil {
		return err
	}
	switch q.Mode {
	case "", ModeBulk, ModeRelevance:
	default:
		return types.NewInvalidParameter("mode", string(q.Mode), "must be bulk or relevance")
	}
	if q.Limit < 0 {
		return types.NewInvalidParameter("num_results", strconv.Itoa(q.Limit), "must not be negative")
	}
	return nil
}

// ValidateYearRange accepts "", "YYYY", "YYYY-YYYY", "YYYY-" and "-YYYY".
func ValidateYearRange(year string) error {
	if year == "" {
		return nil
	}
	m := yearRangePattern.FindStringSubmatch(year)
	if m == nil || (m[1] == "" && m[3] == "") || (m[2] == "" && m[3] != "") {
		return types.NewInvalidParameter("year", year, "expected YYYY, YYYY-YYYY, YYYY- or -YYYY")
	}
	if m[1] != "" && m[3] != "" && m[1] > m[3] {
		return types.NewInvalidParameter("year", year, "range start is after range end")
	}
	return nil
}

func semanticPublicationType(docType string) (string, error) {
	if docType == "" {
		return "", nil
	}
	pt, ok := semanticPublicationTypes[docType]
	if !ok {
		return "", types.NewInvalidParameter("document_type", docType, "must be All, Article or Review")
	}
	return pt, nil
}

// TranslateBooleanQuery rewrites AND/OR/NOT into the Semantic Scholar
// operators (+, |, -) and wraps the result in parentheses. Quoted phrases
// and parentheses pass through unchanged.
func TranslateBooleanQuery(q string) string {
	tokens := tokenizeQuery(q)
	var parts []string
	negate := false
	for _, tok := range tokens {
		switch tok {
		case "AND":
			parts = append(parts, "+")
			continue
		case "OR":
			parts = append(parts, "|")
			continue
		case "NOT":
			negate = true
			continue
		}
		if negate {
			tok = "-" + tok
			negate = false
		}
		parts = append(parts, tok)
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// tokenizeQuery splits on whitespace, keeping quoted phrases whole and
// parentheses as their own tokens.
func tokenizeQuery(q string) []string {
	var tokens []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range q {
		switch {
		case r == '"':
			cur.WriteRune(r)
			if inQuote {
				flush()
			}
			inQuote = !inQuote
		case inQuote:
			cur.WriteRune(r)
		case r == '(' || r == ')':
			flush()
			tokens = append(tokens, string(r))
		case r == ' ' || r == '\t' || r == '\n':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// SemanticScholarSource searches the Semantic Scholar Graph API.
type SemanticScholarSource struct {
	HTTP   httputil.Client
	APIKey string

	// Pacer spaces consecutive result pages.
	Pacer *httputil.Pacer

	// OnPage, if set, is called after every fetched page.
	OnPage func()
}

// Name returns the source identifier.
func (s *SemanticScholarSource) Name() string { return SourceSemanticScholar }

// Search runs q and returns up to q.Limit records in provider rank order,
// each stamped with its SemanticOrder.
func (s *SemanticScholarSource) Search(ctx context.Context, q SemanticQuery) ([]types.Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	pubType, _ := semanticPublicationType(q.DocumentType)

	fields := q.Fields
	if fields == "" {
		fields = DefaultSemanticFields
	}
	dropMissingAbstract := q.Filtered && hasField(fields, "abstract")

	params := url.Values{
		"query":  {TranslateBooleanQuery(q.Query)},
		"fields": {fields},
	}
	if q.Year != "" {
		params.Set("year", q.Year)
	}
	if pubType != "" {
		params.Set("publicationTypes", pubType)
	}
	if q.FieldsOfStudy != "" {
		params.Set("fieldsOfStudy", q.FieldsOfStudy)
	}

	header := http.Header{}
	if s.APIKey != "" {
		header.Set("x-api-key", s.APIKey)
	}

	page := func(ctx context.Context, cur paginate.Cursor, limit int) (paginate.Page[types.Record], error) {
		p := cloneValues(params)
		endpoint := semanticAPIBase + "/paper/search/bulk"
		if q.Mode == ModeRelevance {
			endpoint = semanticAPIBase + "/paper/search"
			p.Set("offset", strconv.Itoa(cur.Offset))
			p.Set("limit", strconv.Itoa(limit))
		} else if cur.Token != "" {
			p.Set("token", cur.Token)
		}

		var sr semanticSearchResponse
		if err := s.HTTP.GetJSON(ctx, SourceSemanticScholar, endpoint+"?"+p.Encode(), header, &sr); err != nil {
			return paginate.Page[types.Record]{}, err
		}
		if s.OnPage != nil {
			s.OnPage()
		}

		out := paginate.Page[types.Record]{Total: sr.Total}
		for _, paper := range sr.Data {
			if dropMissingAbstract && strings.TrimSpace(paper.Abstract) == "" {
				continue
			}
			out.Items = append(out.Items, paper.record())
		}
		switch {
		case q.Mode == ModeRelevance && sr.Next != nil:
			out.Next = &paginate.Cursor{Offset: *sr.Next}
		case q.Mode != ModeRelevance && sr.Token != "":
			out.Next = &paginate.Cursor{Token: sr.Token}
		}
		if dropMissingAbstract {
			// Filtered pages under-count, so the total is no stop signal.
			out.Total = -1
		}
		return out, nil
	}

	maxPage := semanticBulkMaxPage
	if q.Mode == ModeRelevance {
		maxPage = semanticRelevanceMaxPage
	}
	records, err := paginate.Fetch(ctx, page, paginate.Options{
		Want:        q.Limit,
		MaxPageSize: maxPage,
		Pacer:       s.Pacer,
	})
	if err != nil {
		return nil, fmt.Errorf("semantic scholar search: %w", err)
	}
	for i := range records {
		records[i].SemanticOrder = types.Rank(i)
	}
	return records, nil
}

func hasField(fields, name string) bool {
	for _, f := range strings.Split(fields, ",") {
		if strings.TrimSpace(f) == name {
			return true
		}
	}
	return false
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// Semantic Scholar API JSON structures.
type semanticSearchResponse struct {
	Total int             `json:"total"`
	Token string          `json:"token"`
	Next  *int            `json:"next"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID          string              `json:"paperId"`
	Title            string              `json:"title"`
	Abstract         string              `json:"abstract"`
	Year             int                 `json:"year"`
	PublicationTypes []string            `json:"publicationTypes"`
	OpenAccessPDF    *semanticPDF        `json:"openAccessPdf"`
	PublicationDate  string              `json:"publicationDate"`
	Journal          *semanticJournal    `json:"journal"`
	CitationCount    *int                `json:"citationCount"`
	ReferenceCount   *int                `json:"referenceCount"`
	Authors          []semanticAuthor    `json:"authors"`
	ExternalIDs      semanticExternalIDs `json:"externalIds"`
}

type semanticPDF struct {
	URL string `json:"url"`
}

type semanticJournal struct {
	Name string `json:"name"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI    string `json:"DOI"`
	PubMed string `json:"PubMed"`
	ArXiv  string `json:"ArXiv"`
}

func (p semanticPaper) record() types.Record {
	r := types.Record{
		Title:    p.Title,
		Abstract: p.Abstract,
		DOI:      types.NormalizeDOI(p.ExternalIDs.DOI),
		PMID:     strings.TrimSpace(p.ExternalIDs.PubMed),
		Year:     p.Year,
		Types:    p.PublicationTypes,

		PublishedDate:  p.PublicationDate,
		CitationCount:  p.CitationCount,
		ReferenceCount: p.ReferenceCount,
	}
	if p.Journal != nil {
		r.Journal = p.Journal.Name
	}
	if p.OpenAccessPDF != nil {
		r.OpenAccessPDF = p.OpenAccessPDF.URL
	}
	for _, a := range p.Authors {
		if a.Name != "" {
			r.Authors = append(r.Authors, a.Name)
		}
	}
	return r
}
