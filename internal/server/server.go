// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the research tools over HTTP so a host runtime can
// invoke them with a JSON body.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pdiddy/research-tools/internal/export"
	"github.com/pdiddy/research-tools/internal/patent"
	"github.com/pdiddy/research-tools/internal/search"
	"github.com/pdiddy/research-tools/pkg/types"
)

// maxBodyBytes bounds a tool request body.
const maxBodyBytes = 10 << 20

// LiteratureSearcher runs the literature search pipeline.
type LiteratureSearcher interface {
	Search(ctx context.Context, req search.Request) (search.Output, error)
}

// CitationWalker lists the papers around one paper in the citation graph.
type CitationWalker interface {
	Citations(ctx context.Context, q search.CitationQuery) (search.CitationResult, error)
}

// CrossrefResolver looks works up by DOI or title.
type CrossrefResolver interface {
	LookupDOI(ctx context.Context, q search.CrossrefDOIQuery) (*search.CrossrefWork, error)
	SearchTitle(ctx context.Context, q search.CrossrefTitleQuery) ([]search.CrossrefWork, error)
}

// PatentQuerier runs patent queries.
type PatentQuerier interface {
	Query(ctx context.Context, q patent.Query) ([]types.Patent, error)
	Similar(ctx context.Context, q patent.SimilarQuery) ([]types.Patent, error)
	Content(ctx context.Context, q patent.ContentQuery) ([]types.PatentContent, error)
}

// Tools are the backends behind the tool routes. Literature is required;
// a route whose backend is nil is not mounted.
type Tools struct {
	Literature LiteratureSearcher
	Semantic   search.SemanticSearcher
	Wos        search.WosSearcher
	Citations  CitationWalker
	Crossref   CrossrefResolver
	Patents    PatentQuerier
	Exporter   *export.Exporter
}

// Server is the HTTP tool endpoint.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	tools      Tools
	gatherer   prometheus.Gatherer
	logger     zerolog.Logger
}

// NewServer creates a server. gatherer may be nil, in which case /metrics is
// not mounted.
func NewServer(
	cfg types.ServerConfig,
	tools Tools,
	gatherer prometheus.Gatherer,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		tools:    tools,
		gatherer: gatherer,
		logger:   logger.With().Str("component", "http-server").Logger(),
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.healthHandler)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1/tools", func(r chi.Router) {
		r.Post("/literature-search", s.literatureSearch)
		if s.tools.Semantic != nil {
			r.Post("/semantic-search", s.semanticSearch)
		}
		if s.tools.Wos != nil {
			r.Post("/wos-search", s.wosSearch)
		}
		if s.tools.Citations != nil {
			r.Post("/paper-citations", s.paperCitations)
		}
		if s.tools.Crossref != nil {
			r.Post("/crossref-doi", s.crossrefDOI)
			r.Post("/crossref-title", s.crossrefTitle)
		}
		if s.tools.Patents != nil {
			r.Post("/patent-query", s.patentQuery)
			r.Post("/patent-similar", s.patentSimilar)
			r.Post("/patent-content", s.patentContent)
		}
		if s.tools.Exporter != nil {
			r.Post("/export", s.exportData)
		}
	})

	return r
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) literatureSearch(w http.ResponseWriter, r *http.Request) {
	var req search.Request
	if !decodeBody(w, r, &req) {
		return
	}
	out, err := s.tools.Literature.Search(r.Context(), req)
	if err != nil {
		s.writeToolError(w, r, "literature_search", err)
		return
	}
	w.Header().Set("X-Run-ID", out.RunID)
	writeJSON(w, http.StatusOK, out)
}

type patentQueryResponse struct {
	Count   int            `json:"count"`
	Patents []types.Patent `json:"patents"`
}

func (s *Server) patentQuery(w http.ResponseWriter, r *http.Request) {
	var q patent.Query
	if !decodeBody(w, r, &q) {
		return
	}
	patents, err := s.tools.Patents.Query(r.Context(), q)
	if err != nil {
		s.writeToolError(w, r, "patent_query", err)
		return
	}
	if patents == nil {
		patents = []types.Patent{}
	}
	writeJSON(w, http.StatusOK, patentQueryResponse{Count: len(patents), Patents: patents})
}

type exportRequest struct {
	Format   string         `json:"format"`
	Filename string         `json:"filename,omitempty"`
	Records  []types.Record `json:"records,omitempty"`
	Patents  []types.Patent `json:"patents,omitempty"`
}

type exportResponse struct {
	Path string `json:"path"`
}

func (s *Server) exportData(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		s.writeToolError(w, r, "export", err)
		return
	}
	var data any = req.Records
	switch {
	case req.Records != nil && req.Patents != nil:
		s.writeToolError(w, r, "export", types.NewInvalidParameter("records", "", "give records or patents, not both"))
		return
	case req.Patents != nil:
		data = req.Patents
	case req.Records == nil:
		data = []types.Record{}
	}
	path, err := s.tools.Exporter.Export(req.Filename, format, data)
	if err != nil {
		s.writeToolError(w, r, "export", err)
		return
	}
	writeJSON(w, http.StatusCreated, exportResponse{Path: path})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) writeToolError(w http.ResponseWriter, r *http.Request, tool string, err error) {
	status := statusFor(err)
	evt := s.logger.Warn()
	if status >= http.StatusInternalServerError {
		evt = s.logger.Error()
	}
	evt.Err(err).
		Str("tool", tool).
		Str("request_id", middleware.GetReqID(r.Context())).
		Int("status", status).
		Msg("tool call failed")
	writeError(w, status, err.Error())
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidParameter), errors.Is(err, types.ErrTooManyIdentifiers):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, types.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, patent.ErrMissingCredentials), errors.Is(err, search.ErrMissingAPIKey):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
