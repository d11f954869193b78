// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries bibliographic APIs (Semantic Scholar, Web of Science
// Starter, NCBI E-utilities, Crossref) and turns their results into merged,
// deduplicated, abstract-complete literature records. The single-source
// searches, the citation graph and the Crossref lookups are also exposed as
// tools of their own.
package search

// Source names used in logs, metrics and errors.
const (
	SourceSemanticScholar = "semantic_scholar"
	SourceSemanticBatch   = "semantic_scholar_batch"
	SourceWebOfScience    = "web_of_science"
	SourcePubMed          = "pubmed"
	SourceCrossref        = "crossref"
)
