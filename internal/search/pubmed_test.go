// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-tools/pkg/types"
)

const efetchFixture = `<?xml version="1.0" ?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID Version="1">111</PMID>
      <Article>
        <ArticleTitle>Editing <i>Arabidopsis</i> with CRISPR &amp; Cas9</ArticleTitle>
        <Abstract>
          <AbstractText Label="BACKGROUND">Plants are   hard.</AbstractText>
          <AbstractText Label="RESULTS">It worked at 10<sup>-3</sup>.</AbstractText>
        </Abstract>
      </Article>
    </MedlineCitation>
    <PubmedData>
      <ArticleIdList>
        <ArticleId IdType="pubmed">111</ArticleId>
        <ArticleId IdType="doi">10.9/ABC</ArticleId>
      </ArticleIdList>
    </PubmedData>
  </PubmedArticle>
  <PubmedArticle>
    <MedlineCitation>
      <PMID Version="1">222</PMID>
      <Article>
        <ArticleTitle>No abstract here</ArticleTitle>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

func TestPMIDForDOI(t *testing.T) {
	var captured *http.Request
	ts := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		switch r.URL.Query().Get("term") {
		case "10.1/found[DOI]":
			fmt.Fprint(w, `<eSearchResult><Count>1</Count><IdList><Id>31415</Id></IdList></eSearchResult>`)
		case "10.1/broken[DOI]":
			fmt.Fprint(w, `<eSearchResult><ERROR>Invalid query</ERROR></eSearchResult>`)
		default:
			fmt.Fprint(w, `<eSearchResult><Count>0</Count><IdList></IdList></eSearchResult>`)
		}
	}))

	c := &PubMedClient{HTTP: testClient(ts), APIKey: "ncbi", Email: "me@example.org", Tool: "research-tools"}

	pmid, err := c.PMIDForDOI(context.Background(), "10.1/found")
	require.NoError(t, err)
	assert.Equal(t, "31415", pmid)
	assert.Equal(t, "/eutils/esearch.fcgi", captured.URL.Path)
	q := captured.URL.Query()
	assert.Equal(t, "pubmed", q.Get("db"))
	assert.Equal(t, "ncbi", q.Get("api_key"))
	assert.Equal(t, "me@example.org", q.Get("email"))
	assert.Equal(t, "research-tools", q.Get("tool"))

	pmid, err = c.PMIDForDOI(context.Background(), "10.1/missing")
	require.NoError(t, err)
	assert.Empty(t, pmid)

	_, err = c.PMIDForDOI(context.Background(), "10.1/broken")
	assert.ErrorIs(t, err, types.ErrUpstream)
}

func TestFetchArticles(t *testing.T) {
	var captured *http.Request
	ts := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		fmt.Fprint(w, efetchFixture)
	}))

	c := &PubMedClient{HTTP: testClient(ts)}
	arts, err := c.FetchArticles(context.Background(), []string{"222", "111", "333"})
	require.NoError(t, err)

	assert.Equal(t, "/eutils/efetch.fcgi", captured.URL.Path)
	assert.Equal(t, "222,111,333", captured.URL.Query().Get("id"))
	assert.Equal(t, "xml", captured.URL.Query().Get("retmode"))

	require.Len(t, arts, 2)
	a := arts["111"]
	assert.Equal(t, "Editing Arabidopsis with CRISPR & Cas9", a.Title)
	assert.Equal(t, "BACKGROUND: Plants are hard.\nRESULTS: It worked at 10-3.", a.Abstract)
	assert.Equal(t, "10.9/abc", a.DOI)

	assert.Empty(t, arts["222"].Abstract)
	_, ok := arts["333"]
	assert.False(t, ok)
}

func TestFetchArticlesEmpty(t *testing.T) {
	c := &PubMedClient{}
	arts, err := c.FetchArticles(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, arts)
}
