// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/pdiddy/research-tools/internal/httputil"
	"github.com/pdiddy/research-tools/internal/paginate"
	"github.com/pdiddy/research-tools/pkg/types"
)

// crossrefAPIBase is the Crossref REST API root. Declared as a var so tests
// can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org"

const (
	// DefaultCrossrefRows is the title query size when none is given.
	DefaultCrossrefRows = 3

	crossrefMaxRows = 1000

	// Return types: the summary fields or the provider's full work record.
	CrossrefBasic = "basic"
	CrossrefAll   = "all"
)

// CrossrefDOIQuery looks up one work by DOI.
type CrossrefDOIQuery struct {
	DOI        string `json:"doi" validate:"required"`
	ReturnType string `json:"return_type,omitempty" validate:"omitempty,oneof=basic all"`
}

// Validate checks q without touching the network.
func (q CrossrefDOIQuery) Validate() error {
	return validationError(validate.Struct(q))
}

// CrossrefTitleQuery searches works by bibliographic title.
type CrossrefTitleQuery struct {
	Title string `json:"query" validate:"required"`

	// Rows is the number of works scanned; zero means DefaultCrossrefRows.
	Rows int `json:"rows,omitempty" validate:"gte=0,lte=1000"`

	Sort  string `json:"sort,omitempty" validate:"omitempty,oneof=relevance score updated deposited indexed published published-print published-online issued is-referenced-by-count references-count"`
	Order string `json:"order,omitempty" validate:"omitempty,oneof=asc desc"`

	// Fuzzy returns every scanned work. Otherwise only the first work whose
	// title equals Title, ignoring case, is returned.
	Fuzzy bool `json:"fuzzy_query,omitempty"`

	ReturnType string `json:"return_type,omitempty" validate:"omitempty,oneof=basic all"`
}

// Validate checks q without touching the network.
func (q CrossrefTitleQuery) Validate() error {
	return validationError(validate.Struct(q))
}

// CrossrefWork is the summary of one Crossref work. When the query asked
// for the full record it marshals as the provider's message instead.
type CrossrefWork struct {
	Title    string `json:"title"`
	DOI      string `json:"doi"`
	URL      string `json:"url"`
	Abstract string `json:"abstract"`
	PDFURL   string `json:"pdf_url,omitempty"`
	HTMLURL  string `json:"html_url,omitempty"`

	// Message is the provider's full work record.
	Message json.RawMessage `json:"-"`

	full bool
}

// MarshalJSON emits Message for full-record queries and the summary otherwise.
func (w CrossrefWork) MarshalJSON() ([]byte, error) {
	if w.full && len(w.Message) > 0 {
		return w.Message, nil
	}
	type summary CrossrefWork
	return json.Marshal(summary(w))
}

// Record converts w to a literature record.
func (w CrossrefWork) Record() types.Record {
	r := types.Record{
		Title:         w.Title,
		DOI:           types.NormalizeDOI(w.DOI),
		Abstract:      w.Abstract,
		OpenAccessPDF: w.PDFURL,
	}
	r.URL = r.DeriveURL()
	return r
}

// CrossrefClient queries the Crossref works API.
type CrossrefClient struct {
	HTTP httputil.Client

	// Mailto identifies the caller to the polite pool. Required.
	Mailto string

	// PageSize is the rows per title query call until the provider
	// advertises a smaller limit.
	PageSize int

	// Pacer spaces title query pages; its interval follows the provider's
	// x-ratelimit-interval header once one is seen.
	Pacer *httputil.Pacer

	// DOIPacer spaces single-work lookups.
	DOIPacer *httputil.Pacer
}

// Name returns the source identifier.
func (c *CrossrefClient) Name() string { return SourceCrossref }

func (c *CrossrefClient) checkMailto() error {
	if strings.TrimSpace(c.Mailto) == "" {
		return fmt.Errorf("crossref mailto: %w", ErrMissingAPIKey)
	}
	return nil
}

// LookupDOI returns the work registered under q.DOI, or nil when Crossref
// does not know the DOI.
func (c *CrossrefClient) LookupDOI(ctx context.Context, q CrossrefDOIQuery) (*CrossrefWork, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := c.checkMailto(); err != nil {
		return nil, err
	}
	if err := c.DOIPacer.Wait(ctx); err != nil {
		return nil, err
	}

	doi := types.NormalizeDOI(q.DOI)
	endpoint := crossrefAPIBase + "/works/" + url.PathEscape(doi) + "?" + url.Values{"mailto": {c.Mailto}}.Encode()

	var resp crossrefResponse[json.RawMessage]
	err := c.HTTP.GetJSON(ctx, SourceCrossref, endpoint, nil, &resp)
	var ue *types.UpstreamError
	if errors.As(err, &ue) && ue.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("crossref doi lookup: %w", err)
	}
	if resp.Status != "ok" || len(resp.Message) == 0 {
		return nil, nil
	}
	w, err := parseCrossrefWork(resp.Message, q.ReturnType == CrossrefAll)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// SearchTitle scans up to q.Rows works matching q.Title in provider order.
// Without Fuzzy it stops at the first exact title match and returns only
// that work.
func (c *CrossrefClient) SearchTitle(ctx context.Context, q CrossrefTitleQuery) ([]CrossrefWork, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := c.checkMailto(); err != nil {
		return nil, err
	}
	rows := q.Rows
	if rows == 0 {
		rows = DefaultCrossrefRows
	}
	full := q.ReturnType == CrossrefAll

	params := url.Values{
		"query.bibliographic": {q.Title},
		"sort":                {orDefault(q.Sort, "relevance")},
		"order":               {orDefault(q.Order, "desc")},
		"mailto":              {c.Mailto},
	}
	advertised := 0

	page := func(ctx context.Context, cur paginate.Cursor, limit int) (paginate.Page[CrossrefWork], error) {
		if advertised > 0 && limit > advertised {
			limit = advertised
		}
		p := cloneValues(params)
		p.Set("rows", strconv.Itoa(limit))
		p.Set("offset", strconv.Itoa(cur.Offset))

		var resp crossrefResponse[crossrefList]
		header, err := c.HTTP.GetJSONHeader(ctx, SourceCrossref, crossrefAPIBase+"/works?"+p.Encode(), nil, &resp)
		if err != nil {
			return paginate.Page[CrossrefWork]{}, err
		}
		if n, err := strconv.Atoi(header.Get("x-ratelimit-limit")); err == nil && n > 0 {
			advertised = n
		}
		if d, err := time.ParseDuration(strings.ReplaceAll(header.Get("x-ratelimit-interval"), " ", "")); err == nil {
			c.Pacer.SetInterval(d)
		}
		if resp.Status != "ok" {
			return paginate.Page[CrossrefWork]{Total: 0}, nil
		}

		out := paginate.Page[CrossrefWork]{
			Total: resp.Message.TotalResults,
			Next:  &paginate.Cursor{Offset: cur.Offset + len(resp.Message.Items)},
		}
		for _, raw := range resp.Message.Items {
			w, err := parseCrossrefWork(raw, full)
			if err != nil {
				return paginate.Page[CrossrefWork]{}, err
			}
			out.Items = append(out.Items, w)
			if !q.Fuzzy && strings.EqualFold(w.Title, q.Title) {
				out.Next = nil
			}
		}
		return out, nil
	}

	works, err := paginate.Fetch(ctx, page, paginate.Options{
		Want:        min(rows, crossrefMaxRows),
		PageSize:    c.PageSize,
		MaxPageSize: crossrefMaxRows,
		Pacer:       c.Pacer,
	})
	if err != nil {
		return nil, fmt.Errorf("crossref title query: %w", err)
	}
	if q.Fuzzy {
		return works, nil
	}
	for _, w := range works {
		if strings.EqualFold(w.Title, q.Title) {
			return []CrossrefWork{w}, nil
		}
	}
	return []CrossrefWork{}, nil
}

func parseCrossrefWork(raw json.RawMessage, full bool) (CrossrefWork, error) {
	var m crossrefMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return CrossrefWork{}, fmt.Errorf("parsing %s work: %w", SourceCrossref, err)
	}
	w := CrossrefWork{
		DOI:      m.DOI,
		URL:      m.URL,
		Abstract: jatsAbstract(m.Abstract),
		Message:  raw,
		full:     full,
	}
	if len(m.Title) > 0 {
		w.Title = m.Title[0]
	}
	for _, l := range m.Link {
		if l.ContentType == "application/pdf" {
			w.PDFURL = l.URL
			break
		}
		w.HTMLURL = l.URL
	}
	return w, nil
}

// jatsAbstract pulls the paragraph under a JATS "Abstract" heading. Markup
// without that heading yields the text of every paragraph.
func jatsAbstract(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return ""
	}

	var paragraphs []string
	var headed string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "jats:title" && strings.TrimSpace(nodeText(n)) == "Abstract" && headed == "" {
			for sib := n.NextSibling; sib != nil; sib = sib.NextSibling {
				if sib.Type == html.ElementNode {
					if sib.Data == "jats:p" {
						headed = strings.TrimSpace(nodeText(sib))
					}
					break
				}
			}
		}
		if n.Type == html.ElementNode && n.Data == "jats:p" {
			paragraphs = append(paragraphs, strings.TrimSpace(nodeText(n)))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if headed != "" {
		return headed
	}
	return strings.Join(paragraphs, "\n")
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Crossref JSON structures.
type crossrefResponse[T any] struct {
	Status  string `json:"status"`
	Message T      `json:"message"`
}

type crossrefList struct {
	TotalResults int               `json:"total-results"`
	Items        []json.RawMessage `json:"items"`
}

type crossrefMessage struct {
	Title    []string `json:"title"`
	DOI      string   `json:"DOI"`
	URL      string   `json:"URL"`
	Abstract string   `json:"abstract"`
	Link     []struct {
		URL         string `json:"URL"`
		ContentType string `json:"content-type"`
	} `json:"link"`
}
