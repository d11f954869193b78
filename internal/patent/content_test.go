// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package patent

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-tools/internal/auth"
	"github.com/pdiddy/research-tools/pkg/types"
)

func TestContentTitleAbstractOnly(t *testing.T) {
	f := &fakePatSnap{}
	c := newTestClient(t, f)

	out, err := c.Content(context.Background(), ContentQuery{PatentID: "a, b"})
	require.NoError(t, err)
	require.Len(t, out, 2)

	require.Len(t, f.contentCalls, 1)
	assert.Equal(t, bibliographyPath, f.contentCalls[0].Path)
	assert.Equal(t, "a,b", f.contentCalls[0].Query().Get("patent_id"))

	assert.Equal(t, types.PatentContent{
		PatentID:     "a",
		PatentNumber: "PN-a",
		PatentType:   "A",
		Title:        "Title a",
		Abstract:     "Abstract a",
	}, out[0])
	assert.Equal(t, "b", out[1].PatentID)
}

func TestContentAllSections(t *testing.T) {
	f := &fakePatSnap{}
	c := newTestClient(t, f)

	out, err := c.Content(context.Background(), ContentQuery{
		PatentNumber: "US1B2",
		Lang:         "CN",
		Claims:       true,
		TechSummary:  true,
	})
	require.NoError(t, err)
	require.Len(t, out, 1)

	require.Len(t, f.contentCalls, 3)
	paths := []string{f.contentCalls[0].Path, f.contentCalls[1].Path, f.contentCalls[2].Path}
	assert.Equal(t, []string{bibliographyPath, claimPath, techSummaryPath}, paths)
	for _, u := range f.contentCalls {
		assert.Equal(t, "US1B2", u.Query().Get("patent_number"))
		assert.Empty(t, u.Query().Get("patent_id"))
	}
	assert.Equal(t, "0", f.contentCalls[1].Query().Get("replace_by_related"))
	assert.Equal(t, "cn", f.contentCalls[2].Query().Get("lang"))

	pc := out[0]
	assert.Equal(t, "标题 US1B2", pc.Title)
	assert.Equal(t, "Abstract US1B2", pc.Abstract, "falls back to the only language present")
	assert.Equal(t, "1. A widget.\n2. The widget of claim 1.", pc.Claims)
	assert.Equal(t, 2, pc.ClaimCount)
	assert.Equal(t, "cheaper", pc.BenefitSummary)
	assert.Equal(t, "too costly", pc.TechProblemSummary)
	assert.Equal(t, "use less", pc.TechnicalApproachSummary)
}

func TestContentChunksIdentifiers(t *testing.T) {
	f := &fakePatSnap{}
	c := newTestClient(t, f)

	ids := make([]string, 150)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%d", i)
	}
	f2 := false
	out, err := c.Content(context.Background(), ContentQuery{
		PatentID:      strings.Join(ids, ","),
		TitleAbstract: &f2,
		TechSummary:   true,
	})
	require.NoError(t, err)
	require.Len(t, out, 150)
	assert.Equal(t, "p0", out[0].PatentID)
	assert.Equal(t, "p149", out[149].PatentID)
	assert.Empty(t, out[0].Title, "bibliography not requested")

	require.Len(t, f.contentCalls, 2)
	assert.Len(t, strings.Split(f.contentCalls[0].Query().Get("patent_id"), ","), maxContentIDs)
	assert.Len(t, strings.Split(f.contentCalls[1].Query().Get("patent_id"), ","), 50)
}

func TestContentProviderError(t *testing.T) {
	f := &fakePatSnap{errorCode: 67200003}
	c := newTestClient(t, f)

	_, err := c.Content(context.Background(), ContentQuery{PatentID: "a"})
	var ue *types.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, ue.Body, "no permission")
}

func TestContentMissingCredentials(t *testing.T) {
	c := &Client{Tokens: &auth.TokenCache{}}
	_, err := c.Content(context.Background(), ContentQuery{PatentID: "a"})
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestContentValidate(t *testing.T) {
	f := false
	tests := []struct {
		name  string
		q     ContentQuery
		field string
	}{
		{"no identifiers", ContentQuery{PatentID: " , "}, "patent_id"},
		{"no sections", ContentQuery{PatentID: "a", TitleAbstract: &f}, "title_abstract"},
		{"language", ContentQuery{PatentID: "a", Lang: "de"}, "lang"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			var ipe *types.InvalidParameterError
			require.ErrorAs(t, err, &ipe)
			assert.Equal(t, tt.field, ipe.Field)
		})
	}
	assert.NoError(t, ContentQuery{PatentNumber: "US1B2", TitleAbstract: &f, Claims: true}.Validate())
}

func TestTextByLang(t *testing.T) {
	entries := []langText{{Lang: "JP", Text: "jp"}, {Lang: "CN", Text: "cn"}, {Lang: "EN", Text: "en"}}
	text := func(e langText) string { return e.Text }

	assert.Equal(t, "cn", textByLang(entries, "cn", text))
	assert.Equal(t, "en", textByLang(entries, "de", text))
	assert.Equal(t, "cn", textByLang(entries[:2], "en", text))
	assert.Equal(t, "x", textByLang([]langText{{Lang: "FR", Text: "x"}}, "en", text))
	assert.Empty(t, textByLang(nil, "en", text))
}

func TestHTMLText(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{"empty", "  ", ""},
		{"plain", "1. A widget.", "1. A widget."},
		{"divs", "<div>1. A.</div><div> 2. B <i>c</i>.</div>", "1. A.\n2. B c."},
		{"nested", "<div class=claims><div>1. A.</div><div><span>2.</span> B.</div></div>", "1. A.\n2. B."},
		{"blank divs dropped", "<div>1. A.</div><div> </div>", "1. A."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, htmlText(tt.markup))
		})
	}
}
