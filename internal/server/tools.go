// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"net/http"

	"github.com/pdiddy/research-tools/internal/patent"
	"github.com/pdiddy/research-tools/internal/search"
	"github.com/pdiddy/research-tools/pkg/types"
)

func (s *Server) semanticSearch(w http.ResponseWriter, r *http.Request) {
	var req search.SemanticRequest
	if !decodeBody(w, r, &req) {
		return
	}
	q, err := req.ToQuery()
	if err != nil {
		s.writeToolError(w, r, "semantic_search", err)
		return
	}
	records, err := s.tools.Semantic.Search(r.Context(), q)
	if err != nil {
		s.writeToolError(w, r, "semantic_search", err)
		return
	}
	writeJSON(w, http.StatusOK, search.NewSourceOutput(search.SourceSemanticScholar, records))
}

func (s *Server) wosSearch(w http.ResponseWriter, r *http.Request) {
	var req search.WosRequest
	if !decodeBody(w, r, &req) {
		return
	}
	q, err := req.ToQuery()
	if err != nil {
		s.writeToolError(w, r, "wos_search", err)
		return
	}
	records, err := s.tools.Wos.Search(r.Context(), q)
	if err != nil {
		s.writeToolError(w, r, "wos_search", err)
		return
	}
	writeJSON(w, http.StatusOK, search.NewSourceOutput(search.SourceWebOfScience, records))
}

func (s *Server) paperCitations(w http.ResponseWriter, r *http.Request) {
	var q search.CitationQuery
	if !decodeBody(w, r, &q) {
		return
	}
	res, err := s.tools.Citations.Citations(r.Context(), q)
	if err != nil {
		s.writeToolError(w, r, "paper_citations", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) crossrefDOI(w http.ResponseWriter, r *http.Request) {
	var q search.CrossrefDOIQuery
	if !decodeBody(w, r, &q) {
		return
	}
	work, err := s.tools.Crossref.LookupDOI(r.Context(), q)
	if err != nil {
		s.writeToolError(w, r, "crossref_doi", err)
		return
	}
	if work == nil {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, work)
}

type crossrefTitleResponse struct {
	Count int                   `json:"count"`
	Works []search.CrossrefWork `json:"works"`
}

func (s *Server) crossrefTitle(w http.ResponseWriter, r *http.Request) {
	var q search.CrossrefTitleQuery
	if !decodeBody(w, r, &q) {
		return
	}
	works, err := s.tools.Crossref.SearchTitle(r.Context(), q)
	if err != nil {
		s.writeToolError(w, r, "crossref_title", err)
		return
	}
	if works == nil {
		works = []search.CrossrefWork{}
	}
	writeJSON(w, http.StatusOK, crossrefTitleResponse{Count: len(works), Works: works})
}

func (s *Server) patentSimilar(w http.ResponseWriter, r *http.Request) {
	var q patent.SimilarQuery
	if !decodeBody(w, r, &q) {
		return
	}
	patents, err := s.tools.Patents.Similar(r.Context(), q)
	if err != nil {
		s.writeToolError(w, r, "patent_similar", err)
		return
	}
	if patents == nil {
		patents = []types.Patent{}
	}
	writeJSON(w, http.StatusOK, patentQueryResponse{Count: len(patents), Patents: patents})
}

type patentContentResponse struct {
	Count   int                   `json:"count"`
	Patents []types.PatentContent `json:"patents"`
}

func (s *Server) patentContent(w http.ResponseWriter, r *http.Request) {
	var q patent.ContentQuery
	if !decodeBody(w, r, &q) {
		return
	}
	content, err := s.tools.Patents.Content(r.Context(), q)
	if err != nil {
		s.writeToolError(w, r, "patent_content", err)
		return
	}
	if content == nil {
		content = []types.PatentContent{}
	}
	writeJSON(w, http.StatusOK, patentContentResponse{Count: len(content), Patents: content})
}
