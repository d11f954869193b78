// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/pdiddy/research-tools/internal/httputil"
	"github.com/pdiddy/research-tools/pkg/types"
)

// eutilsBase is the NCBI E-utilities root. Declared as a var so tests can
// substitute an httptest server.
var eutilsBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// PubMedArticle is the part of a PubMed record the backfill needs.
type PubMedArticle struct {
	PMID     string
	DOI      string
	Title    string
	Abstract string
}

// PubMedClient resolves DOIs to PMIDs and fetches article text from PubMed.
type PubMedClient struct {
	HTTP   httputil.Client
	APIKey string

	// Email and Tool identify the caller to NCBI.
	Email string
	Tool  string

	// Pacer keeps calls under the NCBI request rate.
	Pacer *httputil.Pacer
}

// Name returns the source identifier.
func (c *PubMedClient) Name() string { return SourcePubMed }

func (c *PubMedClient) baseParams() url.Values {
	v := url.Values{"db": {"pubmed"}}
	if c.Tool != "" {
		v.Set("tool", c.Tool)
	}
	if c.Email != "" {
		v.Set("email", c.Email)
	}
	if c.APIKey != "" {
		v.Set("api_key", c.APIKey)
	}
	return v
}

func (c *PubMedClient) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if err := c.Pacer.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, eutilsBase+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return c.HTTP.Do(ctx, SourcePubMed, req)
}

// PMIDForDOI returns the PMID indexed under doi, or "" when PubMed has none.
func (c *PubMedClient) PMIDForDOI(ctx context.Context, doi string) (string, error) {
	params := c.baseParams()
	params.Set("term", doi+"[DOI]")

	body, err := c.get(ctx, "/esearch.fcgi", params)
	if err != nil {
		return "", fmt.Errorf("pubmed esearch: %w", err)
	}
	var res eSearchResult
	if err := xml.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("parsing pubmed esearch response: %w", err)
	}
	if res.Error != "" {
		return "", &types.UpstreamError{Source: SourcePubMed, StatusCode: http.StatusOK, Body: res.Error}
	}
	if len(res.IDs) == 0 {
		return "", nil
	}
	return strings.TrimSpace(res.IDs[0]), nil
}

// FetchArticles returns the articles PubMed holds for pmids, keyed by PMID.
// PMIDs PubMed does not know are absent from the map.
func (c *PubMedClient) FetchArticles(ctx context.Context, pmids []string) (map[string]PubMedArticle, error) {
	out := make(map[string]PubMedArticle, len(pmids))
	if len(pmids) == 0 {
		return out, nil
	}
	params := c.baseParams()
	params.Set("id", strings.Join(pmids, ","))
	params.Set("retmode", "xml")

	body, err := c.get(ctx, "/efetch.fcgi", params)
	if err != nil {
		return nil, fmt.Errorf("pubmed efetch: %w", err)
	}
	var set pubmedArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("parsing pubmed efetch response: %w", err)
	}
	for _, a := range set.Articles {
		art := a.article()
		if art.PMID != "" {
			out[art.PMID] = art
		}
	}
	return out, nil
}

// E-utilities XML structures.
type eSearchResult struct {
	Count string   `xml:"Count"`
	IDs   []string `xml:"IdList>Id"`
	Error string   `xml:"ERROR"`
}

type pubmedArticleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	PMID     string         `xml:"MedlineCitation>PMID"`
	Title    innerText      `xml:"MedlineCitation>Article>ArticleTitle"`
	Sections []abstractText `xml:"MedlineCitation>Article>Abstract>AbstractText"`
	IDs      []articleID    `xml:"PubmedData>ArticleIdList>ArticleId"`
}

type abstractText struct {
	Label string `xml:"Label,attr"`
	innerText
}

type articleID struct {
	Type  string `xml:"IdType,attr"`
	Value string `xml:",chardata"`
}

// innerText captures an element's content including inline markup such as
// <i> or <sup>, which PubMed uses inside titles and abstracts.
type innerText struct {
	Inner string `xml:",innerxml"`
}

var markupTag = regexp.MustCompile(`<[^>]+>`)

func (t innerText) String() string {
	s := markupTag.ReplaceAllString(t.Inner, "")
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}

func (a pubmedArticle) article() PubMedArticle {
	out := PubMedArticle{
		PMID:  strings.TrimSpace(a.PMID),
		Title: a.Title.String(),
	}
	var parts []string
	for _, s := range a.Sections {
		text := s.String()
		if text == "" {
			continue
		}
		if s.Label != "" {
			text = s.Label + ": " + text
		}
		parts = append(parts, text)
	}
	out.Abstract = strings.Join(parts, "\n")
	for _, id := range a.IDs {
		if id.Type == "doi" {
			out.DOI = types.NormalizeDOI(id.Value)
			break
		}
	}
	return out
}
