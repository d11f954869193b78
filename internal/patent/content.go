// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package patent

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/pdiddy/research-tools/pkg/types"
)

// maxContentIDs bounds the identifiers per content call.
const maxContentIDs = 100

// Content endpoints.
const (
	bibliographyPath = "/basic-patent-data/simple-bibliography"
	claimPath        = "/basic-patent-data/claim-data"
	techSummaryPath  = "/high-value-data/tech-problem-and-benefit-summary"
)

// ContentQuery asks for the text of one or more patents.
type ContentQuery struct {
	// PatentID and PatentNumber are comma-separated lists. When both are
	// given, PatentID wins.
	PatentID     string `json:"patent_id,omitempty"`
	PatentNumber string `json:"patent_number,omitempty"`

	// Lang is the preferred text language: en (default), cn or jp.
	Lang string `json:"lang,omitempty" validate:"omitempty,oneof=en cn jp EN CN JP"`

	// TitleAbstract selects the bibliography. Nil means true.
	TitleAbstract *bool `json:"title_abstract,omitempty"`
	Claims        bool  `json:"claim,omitempty"`
	TechSummary   bool  `json:"tech_summary,omitempty"`
}

func (q ContentQuery) wantTitleAbstract() bool { return q.TitleAbstract == nil || *q.TitleAbstract }

// Validate checks q without touching the network.
func (q ContentQuery) Validate() error {
	if len(splitList(q.PatentID)) == 0 && len(splitList(q.PatentNumber)) == 0 {
		return types.NewInvalidParameter("patent_id", "", "patent_id or patent_number is required")
	}
	if !q.wantTitleAbstract() && !q.Claims && !q.TechSummary {
		return types.NewInvalidParameter("title_abstract", "false", "at least one of title_abstract, claim and tech_summary must be true")
	}
	return validationError(validate.Struct(q))
}

// Content returns the requested sections for every patent in q, in the
// order the provider first returned each patent.
func (c *Client) Content(ctx context.Context, q ContentQuery) ([]types.PatentContent, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}
	started := time.Now()
	lang := strings.ToLower(orDefault(q.Lang, "en"))

	idParam, ids := "patent_id", splitList(q.PatentID)
	if len(ids) == 0 {
		idParam, ids = "patent_number", splitList(q.PatentNumber)
	}

	acc := newContentSet()
	for start := 0; start < len(ids); start += maxContentIDs {
		chunk := strings.Join(ids[start:min(start+maxContentIDs, len(ids))], ",")
		params := url.Values{idParam: {chunk}, "apikey": {c.APIKey}}

		if q.wantTitleAbstract() {
			var resp contentResponse[bibliographyItem]
			if err := c.fetchContent(ctx, bibliographyPath, params, &resp); err != nil {
				return nil, err
			}
			for _, d := range resp.Data {
				pc := acc.entry(d.PatentID, d.PN)
				pc.PatentType = d.Bibliographic.PatentType
				pc.Title = textByLang(d.Bibliographic.InventionTitle, lang, func(e langText) string { return e.Text })
				pc.Abstract = textByLang(d.Bibliographic.Abstracts, lang, func(e langText) string { return e.Text })
			}
		}
		if q.Claims {
			p := cloneParams(params)
			p.Set("replace_by_related", "0")
			var resp contentResponse[claimItem]
			if err := c.fetchContent(ctx, claimPath, p, &resp); err != nil {
				return nil, err
			}
			for _, d := range resp.Data {
				pc := acc.entry(d.PatentID, d.PN)
				pc.Claims = htmlText(textByLang(d.Claims, lang, func(e langText) string { return e.ClaimText }))
				pc.ClaimCount = d.ClaimCount
			}
		}
		if q.TechSummary {
			p := cloneParams(params)
			p.Set("lang", lang)
			var resp contentResponse[techSummaryItem]
			if err := c.fetchContent(ctx, techSummaryPath, p, &resp); err != nil {
				return nil, err
			}
			for _, d := range resp.Data {
				pc := acc.entry(d.PatentID, d.PN)
				pc.BenefitSummary = d.BenefitSummary
				pc.TechProblemSummary = d.TechProblemSummary
				pc.TechnicalApproachSummary = d.TechnicalApproachSummary
			}
		}
	}

	out := acc.list()
	c.Metrics.RecordSource(Source, "ok", len(out))
	c.Metrics.ObserveTool("patent_content", time.Since(started).Seconds())
	c.Logger.Info().Int("patents", len(out)).Msg("patent content done")
	return out, nil
}

func (c *Client) fetchContent(ctx context.Context, path string, params url.Values, out interface{ providerErr() error }) error {
	if err := c.Pacer.Wait(ctx); err != nil {
		return err
	}
	if err := c.get(ctx, apiBase+path+"?"+params.Encode(), out); err != nil {
		c.Metrics.RecordSource(Source, "error", 0)
		return fmt.Errorf("patent content %s: %w", path, err)
	}
	c.Metrics.RecordPage(Source)
	if err := out.providerErr(); err != nil {
		return fmt.Errorf("patent content %s: %w", path, err)
	}
	return nil
}

// contentSet merges sections by patent id, keeping first-seen order.
type contentSet struct {
	order []string
	byID  map[string]*types.PatentContent
}

func newContentSet() *contentSet {
	return &contentSet{byID: map[string]*types.PatentContent{}}
}

func (s *contentSet) entry(id, pn string) *types.PatentContent {
	if pc, ok := s.byID[id]; ok {
		if pc.PatentNumber == "" {
			pc.PatentNumber = pn
		}
		return pc
	}
	pc := &types.PatentContent{PatentID: id, PatentNumber: pn}
	s.byID[id] = pc
	s.order = append(s.order, id)
	return pc
}

func (s *contentSet) list() []types.PatentContent {
	out := make([]types.PatentContent, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.byID[id])
	}
	return out
}

// textByLang picks the entry in lang, then English, Chinese and Japanese,
// then the first entry.
func textByLang(entries []langText, lang string, pick func(langText) string) string {
	if len(entries) == 0 {
		return ""
	}
	for _, want := range []string{lang, "en", "cn", "jp"} {
		for _, e := range entries {
			if strings.EqualFold(e.Lang, want) {
				return pick(e)
			}
		}
	}
	return pick(entries[0])
}

// htmlText flattens claim markup to one line per <div>. Markup without
// divs yields its full text.
func htmlText(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return markup
	}
	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "div" && !hasChildDiv(n) {
			if line := strings.TrimSpace(nodeText(n)); line != "" {
				lines = append(lines, line)
			}
			return
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(doc)
	if len(lines) == 0 {
		return strings.TrimSpace(nodeText(doc))
	}
	return strings.Join(lines, "\n")
}

func hasChildDiv(n *html.Node) bool {
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type == html.ElementNode && (ch.Data == "div" || hasChildDiv(ch)) {
			return true
		}
	}
	return false
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return sb.String()
}

func cloneParams(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// PatSnap content JSON structures.
type contentResponse[T any] struct {
	ErrorCode int    `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
	Data      []T    `json:"data"`
}

func (r *contentResponse[T]) providerErr() error { return providerError(r.ErrorCode, r.ErrorMsg) }

type langText struct {
	Lang      string `json:"lang"`
	Text      string `json:"text"`
	ClaimText string `json:"claim_text"`
}

type bibliographyItem struct {
	PatentID      string `json:"patent_id"`
	PN            string `json:"pn"`
	Bibliographic struct {
		PatentType     string     `json:"patent_type"`
		InventionTitle []langText `json:"invention_title"`
		Abstracts      []langText `json:"abstracts"`
	} `json:"bibliographic_data"`
}

type claimItem struct {
	PatentID   string     `json:"patent_id"`
	PN         string     `json:"pn"`
	Claims     []langText `json:"claims"`
	ClaimCount int        `json:"claim_count"`
}

type techSummaryItem struct {
	PatentID                 string `json:"patent_id"`
	PN                       string `json:"pn"`
	BenefitSummary           string `json:"benefit_summary"`
	TechProblemSummary       string `json:"tech_problem_summary"`
	TechnicalApproachSummary string `json:"technical_approach_summary"`
}
