// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"strings"

	"github.com/pdiddy/research-tools/pkg/types"
)

// CSLItem is a bibliographic entry in CSL (Citation Style Language) form.
// Field names follow the CSL-JSON/CSL-YAML schema.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title"`
	Author         []CSLName `yaml:"author,omitempty"`
	Abstract       string    `yaml:"abstract,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	DOI            string    `yaml:"DOI,omitempty"`
	PMID           string    `yaml:"PMID,omitempty"`
	ISSN           string    `yaml:"ISSN,omitempty"`
	URL            string    `yaml:"URL,omitempty"`
	Keyword        string    `yaml:"keyword,omitempty"`
	Number         string    `yaml:"number,omitempty"`
	Authority      string    `yaml:"authority,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
}

// CSLName is a person's name in CSL form.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate is a date in CSL date-parts form.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// CSLItems converts a []types.Record or []types.Patent to CSL entries.
func CSLItems(data any) ([]CSLItem, error) {
	switch v := data.(type) {
	case []types.Record:
		items := make([]CSLItem, len(v))
		for i, r := range v {
			items[i] = recordItem(r, i)
		}
		return items, nil
	case []types.Patent:
		items := make([]CSLItem, len(v))
		for i, p := range v {
			items[i] = patentItem(p)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("csl export does not support %T", data)
	}
}

func recordItem(r types.Record, i int) CSLItem {
	item := CSLItem{
		ID:       cslID(r, i),
		Type:     "article-journal",
		Title:    r.Title,
		Abstract: r.Abstract,
		DOI:      r.DOI,
		PMID:     r.PMID,
		ISSN:     r.ISSN,
		URL:      r.URL,
		Keyword:  strings.Join(r.Keywords, ", "),

		ContainerTitle: r.Journal,
	}
	for _, a := range r.Authors {
		item.Author = append(item.Author, parseAuthorName(a))
	}
	if r.Year > 0 {
		item.Issued = &CSLDate{DateParts: [][]int{{r.Year}}}
	}
	return item
}

func patentItem(p types.Patent) CSLItem {
	item := CSLItem{
		ID:             p.PN,
		Type:           "patent",
		Title:          p.Title,
		Number:         p.PN,
		Authority:      patentAuthority(p.PN),
		ContainerTitle: p.CurrentAssignee,
	}
	if item.ID == "" {
		item.ID = p.PatentID
	}
	for _, inv := range splitNames(p.Inventor) {
		item.Author = append(item.Author, parseAuthorName(inv))
	}
	if t := p.PublishedOn(); !t.IsZero() {
		item.Issued = &CSLDate{DateParts: [][]int{{t.Year(), int(t.Month()), t.Day()}}}
	}
	return item
}

// cslID prefers the DOI, then the PMID, then a positional id.
func cslID(r types.Record, i int) string {
	switch {
	case r.DOI != "":
		return r.DOI
	case r.PMID != "":
		return "pmid:" + r.PMID
	default:
		return fmt.Sprintf("item-%d", i+1)
	}
}

var patentOffices = map[string]string{
	"US": "United States Patent and Trademark Office",
	"EP": "European Patent Office",
	"CN": "China National Intellectual Property Administration",
	"JP": "Japan Patent Office",
	"KR": "Korean Intellectual Property Office",
	"WO": "World Intellectual Property Organization",
}

func patentAuthority(pn string) string {
	if len(pn) < 2 {
		return ""
	}
	return patentOffices[strings.ToUpper(pn[:2])]
}

// splitNames splits a PatSnap name list, which uses "|" or ";" separators.
func splitNames(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ';' }) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseAuthorName splits a name into CSL family/given parts. "Family, Given"
// splits on the comma; otherwise the last token is the family name.
// Single-token names use the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	if family, given, ok := strings.Cut(name, ","); ok {
		return CSLName{Family: strings.TrimSpace(family), Given: strings.TrimSpace(given)}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}
