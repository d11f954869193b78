// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package patent

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/research-tools/internal/paginate"
	"github.com/pdiddy/research-tools/pkg/types"
)

// DefaultRelevancy is the minimum similarity when a query sets none.
const DefaultRelevancy = "50%"

var relevancyPattern = regexp.MustCompile(`^(100|[1-9]?[0-9])%$`)

// SimilarQuery asks for patents similar to one reference patent.
type SimilarQuery struct {
	// PatentID or PatentNumber names the reference patent; at least one is required.
	PatentID     string `json:"patent_id,omitempty"`
	PatentNumber string `json:"patent_number,omitempty"`

	// Num is the number of patents wanted; zero means DefaultNum.
	Num int `json:"num,omitempty" validate:"gte=0,lte=1000"`

	// Relevancy is the minimum similarity, e.g. "70%".
	Relevancy string `json:"relevancy,omitempty"`

	// Country restricts hits to comma-separated authority and kind codes,
	// e.g. "CNA,USB". A: application, B: grant, U: utility model, D: design.
	Country string `json:"country,omitempty"`
}

// Validate checks q without touching the network.
func (q SimilarQuery) Validate() error {
	if strings.TrimSpace(q.PatentID) == "" && strings.TrimSpace(q.PatentNumber) == "" {
		return types.NewInvalidParameter("patent_id", "", "patent_id or patent_number is required")
	}
	if q.Relevancy != "" && !relevancyPattern.MatchString(q.Relevancy) {
		return types.NewInvalidParameter("relevancy", q.Relevancy, "must be a percentage such as 50%")
	}
	return validationError(validate.Struct(q))
}

// Similar returns up to q.Num patents similar to the reference patent, most
// similar first.
func (c *Client) Similar(ctx context.Context, q SimilarQuery) ([]types.Patent, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}
	started := time.Now()

	num := q.Num
	if num == 0 {
		num = DefaultNum
	}
	body := similarRequest{
		PatentID:     strings.TrimSpace(q.PatentID),
		PatentNumber: strings.TrimSpace(q.PatentNumber),
		Relevancy:    orDefault(q.Relevancy, DefaultRelevancy),
		Country:      splitList(q.Country),
		ApdFrom:      "*",
		ApdTo:        "*",
		PbdFrom:      "*",
		PbdTo:        "*",
	}
	endpoint := apiBase + "/search/patent/similar-search-patent/v2?" + url.Values{"apikey": {c.APIKey}}.Encode()

	page := func(ctx context.Context, cur paginate.Cursor, limit int) (paginate.Page[types.Patent], error) {
		req := body
		req.Limit = limit
		req.Offset = cur.Offset

		var resp searchResponse
		if err := c.post(ctx, endpoint, req, &resp); err != nil {
			return paginate.Page[types.Patent]{}, err
		}
		if err := providerError(resp.ErrorCode, resp.ErrorMsg); err != nil {
			return paginate.Page[types.Patent]{}, err
		}
		c.Metrics.RecordPage(Source)
		return paginate.Page[types.Patent]{
			Items: resp.Data.Results,
			Total: resp.Data.Total,
			Next:  &paginate.Cursor{Offset: cur.Offset + len(resp.Data.Results)},
		}, nil
	}

	patents, err := paginate.Fetch(ctx, page, paginate.Options{
		Want:        min(num, maxResults),
		MaxPageSize: maxSimilarPageSize,
		Pacer:       c.Pacer,
	})
	if err != nil {
		c.Metrics.RecordSource(Source, "error", 0)
		return nil, fmt.Errorf("similar patent search: %w", err)
	}
	c.Metrics.RecordSource(Source, "ok", len(patents))
	c.Metrics.ObserveTool("patent_similar", time.Since(started).Seconds())
	c.Logger.Info().Int("patents", len(patents)).Msg("similar patent search done")
	return patents, nil
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

const maxSimilarPageSize = 1000

type similarRequest struct {
	PatentID     string   `json:"patent_id,omitempty"`
	PatentNumber string   `json:"patent_number,omitempty"`
	Limit        int      `json:"limit"`
	Offset       int      `json:"offset"`
	Relevancy    string   `json:"relevancy"`
	Country      []string `json:"country,omitempty"`
	ApdFrom      string   `json:"apd_from"`
	ApdTo        string   `json:"apd_to"`
	PbdFrom      string   `json:"pbd_from"`
	PbdTo        string   `json:"pbd_to"`
}
