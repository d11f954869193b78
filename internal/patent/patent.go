// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package patent queries the PatSnap open API: keyword search, similarity
// search, and patent content (bibliography, claims, technical summary).
package patent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/pdiddy/research-tools/internal/auth"
	"github.com/pdiddy/research-tools/internal/httputil"
	"github.com/pdiddy/research-tools/internal/metrics"
	"github.com/pdiddy/research-tools/internal/paginate"
	"github.com/pdiddy/research-tools/pkg/types"
)

// apiBase is the PatSnap open API root. Declared as a var so tests can
// substitute an httptest server.
var apiBase = "https://connect.zhihuiya.com"

// Source names the provider in errors, logs and metrics.
const Source = "patsnap"

const (
	maxPageSize = 100
	maxResults  = 1000

	// tokenLifetime is how long an issued bearer token is trusted.
	tokenLifetime = 25 * time.Minute

	// DefaultNum is the result count when a query does not set one.
	DefaultNum = 50
)

// ErrMissingCredentials is returned when the API key or client secret is unset.
var ErrMissingCredentials = errors.New("patsnap credentials not configured")

// Sort orders results by one field.
type Sort struct {
	Field string `json:"field" validate:"oneof=PBDT_YEARMONTHDAY apply_date ISD SCORE"`
	Order string `json:"order" validate:"oneof=asc desc"`
}

// Query holds the patent query tool arguments.
type Query struct {
	Query string `json:"query" validate:"required"`

	// Num is the number of patents wanted; zero means DefaultNum.
	Num int `json:"num,omitempty" validate:"gte=0,lte=1000"`

	// Stemming expands terms to their plural and tense variants.
	Stemming bool `json:"stemming,omitempty"`

	Sort []Sort `json:"sort,omitempty" validate:"dive"`

	// CollapseType picks the family deduplication (default DOCDB).
	CollapseType string `json:"collapse_type,omitempty" validate:"omitempty,oneof=ALL APNO DOCDB INPADOC EXTEND"`

	// CollapseBy picks which family member is kept (default PBD).
	CollapseBy string `json:"collapse_by,omitempty" validate:"omitempty,oneof=APD PBD AUTHORITY SCORE"`

	// CollapseOrder is OLDEST or LATEST (default LATEST).
	CollapseOrder string `json:"collapse_order,omitempty" validate:"omitempty,oneof=OLDEST LATEST"`
}

var validate = validator.New()

// Validate checks q without touching the network.
func (q Query) Validate() error {
	return validationError(validate.Struct(q))
}

// validationError turns the first validator failure into an
// InvalidParameterError named after the JSON field.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return types.NewInvalidParameter(fieldName(fe), fmt.Sprint(fe.Value()), "failed "+fe.Tag()+" "+fe.Param())
	}
	return types.NewInvalidParameter("query", "", err.Error())
}

func fieldName(fe validator.FieldError) string {
	switch fe.StructField() {
	case "Query":
		return "query"
	case "Num":
		return "num"
	case "Field":
		return "sort.field"
	case "Order":
		return "sort.order"
	case "CollapseType":
		return "collapse_type"
	case "CollapseBy":
		return "collapse_by"
	case "CollapseOrder":
		return "collapse_order"
	case "PatentID":
		return "patent_id"
	case "PatentNumber":
		return "patent_number"
	default:
		return strings.ToLower(fe.Field())
	}
}

// Client runs patent queries. Tokens may be shared between clients.
type Client struct {
	HTTP         httputil.Client
	APIKey       string
	ClientSecret string

	Tokens *auth.TokenCache

	// Pacer spaces consecutive result pages.
	Pacer *httputil.Pacer

	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// NewClient builds a Client from configuration.
func NewClient(cfg types.PatentConfig, logger zerolog.Logger, m *metrics.Metrics) *Client {
	hc := httputil.NewClient(cfg.HTTPConfig)
	hc.OnRateLimited = m.RecordRateLimited
	return &Client{
		HTTP:         hc,
		APIKey:       cfg.APIKey,
		ClientSecret: cfg.ClientSecret,
		Tokens:       &auth.TokenCache{},
		Pacer:        httputil.NewPacer(cfg.PageDelay),
		Logger:       logger.With().Str("source", Source).Logger(),
		Metrics:      m,
	}
}

// Query returns up to q.Num patents in provider rank order.
func (c *Client) Query(ctx context.Context, q Query) ([]types.Patent, error) {
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
	body := searchRequest{
		Sort:                   q.Sort,
		Stemming:               0,
		QueryText:              strings.TrimSpace(q.Query),
		CollapseType:           orDefault(q.CollapseType, "DOCDB"),
		CollapseBy:             orDefault(q.CollapseBy, "PBD"),
		CollapseOrder:          orDefault(q.CollapseOrder, "LATEST"),
		CollapseOrderAuthority: []string{"CN", "US", "EP", "JP", "KR"},
	}
	if q.Stemming {
		body.Stemming = 1
	}
	endpoint := apiBase + "/search/patent/query-search-patent/v2?" + url.Values{"apikey": {c.APIKey}}.Encode()

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
		MaxPageSize: maxPageSize,
		Pacer:       c.Pacer,
	})
	if err != nil {
		c.Metrics.RecordSource(Source, "error", 0)
		return nil, fmt.Errorf("patent query: %w", err)
	}
	c.Metrics.RecordSource(Source, "ok", len(patents))
	c.Metrics.ObserveTool("patent_query", time.Since(started).Seconds())
	c.Logger.Info().Int("patents", len(patents)).Msg("patent query done")
	return patents, nil
}

// post sends one authorized POST.
func (c *Client) post(ctx context.Context, endpoint string, in, out any) error {
	return c.call(ctx, http.MethodPost, endpoint, in, out)
}

// get sends one authorized GET.
func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	return c.call(ctx, http.MethodGet, endpoint, nil, out)
}

// call sends one authorized request. A 401 drops the cached token and the
// request is retried once with a fresh one.
func (c *Client) call(ctx context.Context, method, endpoint string, in, out any) error {
	for attempt := 0; ; attempt++ {
		token, err := auth.GetOrRefresh(ctx, c.Tokens, c.fetchToken)
		if err != nil {
			return fmt.Errorf("obtaining patsnap token: %w", err)
		}
		header := http.Header{}
		header.Set("Authorization", "Bearer "+token)

		if method == http.MethodGet {
			err = c.HTTP.GetJSON(ctx, Source, endpoint, header, out)
		} else {
			err = c.HTTP.PostJSON(ctx, Source, endpoint, header, in, out)
		}
		var ue *types.UpstreamError
		if attempt == 0 && errors.As(err, &ue) && ue.StatusCode == http.StatusUnauthorized {
			c.Logger.Debug().Msg("token rejected, refreshing")
			c.Tokens.Invalidate()
			continue
		}
		return err
	}
}

// checkCredentials fails fast when the client cannot obtain a token.
func (c *Client) checkCredentials() error {
	if c.APIKey == "" || c.ClientSecret == "" {
		return ErrMissingCredentials
	}
	return nil
}

// providerError converts an in-body error code into an UpstreamError.
func providerError(code int, msg string) error {
	if code == 0 {
		return nil
	}
	return &types.UpstreamError{
		Source:     Source,
		StatusCode: http.StatusOK,
		Body:       fmt.Sprintf("error_code %d: %s", code, msg),
	}
}

// fetchToken exchanges the client credentials for a bearer token.
func (c *Client) fetchToken(ctx context.Context) (auth.Token, error) {
	form := url.Values{"grant_type": {"client_credentials"}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBase+"/oauth/token", strings.NewReader(form))
	if err != nil {
		return auth.Token{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.APIKey, c.ClientSecret)

	issued := time.Now()
	body, err := c.HTTP.Do(ctx, Source, req)
	if err != nil {
		return auth.Token{}, err
	}
	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return auth.Token{}, fmt.Errorf("parsing patsnap token response: %w", err)
	}
	if !tr.Status || tr.Data.Token == "" {
		return auth.Token{}, &types.UpstreamError{Source: Source, StatusCode: http.StatusOK, Body: string(body)}
	}
	return auth.Token{Value: tr.Data.Token, ExpiresAt: issued.Add(tokenLifetime)}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// PatSnap JSON structures.
type searchRequest struct {
	Sort                   []Sort   `json:"sort,omitempty"`
	Limit                  int      `json:"limit"`
	Offset                 int      `json:"offset"`
	Stemming               int      `json:"stemming"`
	QueryText              string   `json:"query_text"`
	CollapseType           string   `json:"collapse_type"`
	CollapseBy             string   `json:"collapse_by"`
	CollapseOrder          string   `json:"collapse_order"`
	CollapseOrderAuthority []string `json:"collapse_order_authority"`
}

type searchResponse struct {
	ErrorCode int    `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
	Data      struct {
		Total   int            `json:"total_search_result_count"`
		Results []types.Patent `json:"results"`
	} `json:"data"`
}

type tokenResponse struct {
	Status bool `json:"status"`
	Data   struct {
		Token string `json:"token"`
	} `json:"data"`
}
