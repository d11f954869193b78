// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research-tools pipeline:
// the literature record, tool configuration, and the error taxonomy that every
// source adapter reports through.
package types

import (
	"strings"
	"unicode"
)

// Record is one normalized publication returned by the literature tools.
// Records from different sources are merged on Key; provider-specific fields
// ride along and are filled from whichever source supplies them first.
type Record struct {
	// Title is the publication title. Empty only for unfiltered leftovers.
	Title string `json:"title" yaml:"title"`

	// DOI is lower-cased with any resolver prefix removed.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// PMID is the PubMed identifier.
	PMID string `json:"pmid,omitempty" yaml:"pmid,omitempty"`

	Abstract string `json:"abstract" yaml:"abstract"`

	// URL is derived after merge and backfill; see DeriveURL.
	URL string `json:"url" yaml:"url"`

	Year           int      `json:"year,omitempty" yaml:"year,omitempty"`
	PublishedMonth string   `json:"published_month,omitempty" yaml:"published_month,omitempty"`
	Types          []string `json:"types,omitempty" yaml:"types,omitempty"`
	OpenAccessPDF  string   `json:"openAccessPdf,omitempty" yaml:"open_access_pdf,omitempty"`
	Authors        []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Keywords       []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// Journal, PublishedDate and the counts come from the citation graph.
	Journal        string `json:"journal,omitempty" yaml:"journal,omitempty"`
	PublishedDate  string `json:"publication_date,omitempty" yaml:"publication_date,omitempty"`
	CitationCount  *int   `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`
	ReferenceCount *int   `json:"reference_count,omitempty" yaml:"reference_count,omitempty"`

	// UID, ISSN and Link come from the citation index.
	UID  string `json:"uid,omitempty" yaml:"uid,omitempty"`
	ISSN string `json:"issn,omitempty" yaml:"issn,omitempty"`
	Link string `json:"link,omitempty" yaml:"link,omitempty"`

	// SemanticOrder and WosOrder record the zero-based rank of the record in
	// the list each source returned. They are provenance only and never
	// affect output ordering.
	SemanticOrder *int `json:"semantic_order,omitempty" yaml:"semantic_order,omitempty"`
	WosOrder      *int `json:"wos_order,omitempty" yaml:"wos_order,omitempty"`
}

const (
	doiURLPrefix    = "https://doi.org/"
	pubmedURLPrefix = "https://pubmed.ncbi.nlm.nih.gov/"
)

// Key returns the deduplication key for r: the DOI when present, then the
// PMID, then the normalized title. Keys carry a namespace prefix so values
// of different kinds never collide. An empty string means r has no usable
// identity.
func (r Record) Key() string {
	if doi := strings.ToLower(strings.TrimSpace(r.DOI)); doi != "" {
		return "doi:" + doi
	}
	if pmid := strings.ToLower(strings.TrimSpace(r.PMID)); pmid != "" {
		return "pmid:" + pmid
	}
	if title := NormalizeTitle(r.Title); title != "" {
		return "title:" + title
	}
	return ""
}

// DeriveURL returns the canonical landing page for r: the DOI resolver when
// a DOI is known, else the PubMed page, else the empty string.
func (r Record) DeriveURL() string {
	switch {
	case r.DOI != "":
		return doiURLPrefix + r.DOI
	case r.PMID != "":
		return pubmedURLPrefix + r.PMID
	default:
		return ""
	}
}

// HasAbstract reports whether r carries a non-blank abstract.
func (r Record) HasAbstract() bool {
	return strings.TrimSpace(r.Abstract) != ""
}

// NormalizeDOI lower-cases a DOI and strips resolver prefixes such as
// "https://doi.org/" and "doi:".
func NormalizeDOI(doi string) string {
	d := strings.ToLower(strings.TrimSpace(doi))
	for _, p := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:"} {
		d = strings.TrimPrefix(d, p)
	}
	return strings.TrimSpace(d)
}

// NormalizeTitle returns a lowercased, punctuation-stripped version of the
// title with runs of whitespace collapsed.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Rank returns a pointer to i, for populating SemanticOrder and WosOrder.
func Rank(i int) *int { return &i }
