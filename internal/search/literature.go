// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-tools/internal/httputil"
	"github.com/pdiddy/research-tools/internal/logging"
	"github.com/pdiddy/research-tools/internal/metrics"
	"github.com/pdiddy/research-tools/pkg/types"
)

// ErrMissingAPIKey marks a source that was skipped for lack of credentials.
var ErrMissingAPIKey = errors.New("api key not configured")

// defaultYearFloor is the start of the default publication year window.
const defaultYearFloor = 1960

// Request holds the literature search tool arguments.
type Request struct {
	Query         string `json:"query" yaml:"query" validate:"required"`
	YearRange     string `json:"year_range,omitempty" yaml:"year_range,omitempty"`
	DocumentType  string `json:"document_type,omitempty" yaml:"document_type,omitempty" validate:"omitempty,oneof=All Article Review"`
	FieldsOfStudy string `json:"fields_of_study,omitempty" yaml:"fields_of_study,omitempty"`

	// NumResults, when positive, caps both primary sources.
	NumResults int `json:"num_results,omitempty" yaml:"num_results,omitempty" validate:"gte=0,lte=10000"`

	// Filtered drops records without an abstract from the output. Nil means true.
	Filtered *bool `json:"filtered,omitempty" yaml:"filtered,omitempty"`

	// WosAPIKey overrides the configured Web of Science key for this call.
	WosAPIKey string `json:"wos_api_key,omitempty" yaml:"-"`
}

// IsFiltered reports whether abstract-less records are dropped.
func (r Request) IsFiltered() bool { return r.Filtered == nil || *r.Filtered }

var validate = validator.New()

// Validate checks r without touching the network.
func (r Request) Validate() error {
	if err := validationError(validate.Struct(r)); err != nil {
		return err
	}
	return ValidateYearRange(r.YearRange)
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
		return types.NewInvalidParameter(jsonFieldNames[fe.Field()], fmt.Sprint(fe.Value()), validationReason(fe))
	}
	return types.NewInvalidParameter("request", "", err.Error())
}

var jsonFieldNames = map[string]string{
	"Query":        "query",
	"DocumentType": "document_type",
	"NumResults":   "num_results",
	"Title":        "query",
	"DOI":          "doi",
	"Rows":         "rows",
	"Sort":         "sort",
	"Order":        "order",
	"ReturnType":   "return_type",
}

func validationReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "oneof":
		return "must be one of " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}

// Stats summarizes one aggregation run.
type Stats struct {
	SemanticRecords int `json:"semantic_records" yaml:"semantic_records"`
	WosRecords      int `json:"wos_records" yaml:"wos_records"`
	Merged          int `json:"merged" yaml:"merged"`
	Duplicates      int `json:"duplicates" yaml:"duplicates"`
	HadAbstract     int `json:"had_abstract" yaml:"had_abstract"`
	Backfilled      int `json:"backfilled" yaml:"backfilled"`
	FilteredOut     int `json:"filtered_out" yaml:"filtered_out"`
	Unresolvable    int `json:"unresolvable" yaml:"unresolvable"`
}

// Output is the result of one aggregation run.
type Output struct {
	RunID   string         `json:"run_id"`
	Records []types.Record `json:"records"`
	Stats   Stats          `json:"stats"`

	// Warnings lists sources that failed or were skipped.
	Warnings []string `json:"warnings,omitempty"`

	// Failures holds the *types.SourceFailure behind each warning.
	Failures []error `json:"-"`
}

// SemanticSearcher is the relevance/bulk search source.
type SemanticSearcher interface {
	Search(ctx context.Context, q SemanticQuery) ([]types.Record, error)
}

// WosSearcher is the citation index source.
type WosSearcher interface {
	Search(ctx context.Context, q WosQuery) ([]types.Record, error)
}

// Aggregator runs the literature pipeline: validate, search both primary
// sources, merge, backfill abstracts, and assemble the output.
type Aggregator struct {
	Semantic SemanticSearcher

	// Wos may be nil, in which case only Semantic Scholar is searched.
	Wos WosSearcher

	Resolver *Resolver

	// Defaults supplies per-source caps and the default fields of study.
	Defaults types.LiteratureConfig

	Logger  zerolog.Logger
	Metrics *metrics.Metrics

	// Now returns the current time; nil means time.Now.
	Now func() time.Time
}

func (a *Aggregator) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// Search runs the pipeline for req. A failing source is reported in
// Output.Warnings and the run continues with the other; Search returns an
// error only for invalid arguments, cancellation, or when every primary
// source failed.
func (a *Aggregator) Search(ctx context.Context, req Request) (Output, error) {
	if err := req.Validate(); err != nil {
		return Output{}, err
	}
	started := a.now()
	out := Output{RunID: uuid.NewString()}
	log := logging.WithRun(a.Logger, out.RunID)

	semanticNum, wosNum := a.Defaults.SemanticNum, a.Defaults.WosNum
	if req.NumResults > 0 {
		semanticNum, wosNum = req.NumResults, req.NumResults
	}
	year := req.YearRange
	if year == "" {
		year = fmt.Sprintf("%d-%d", defaultYearFloor, a.now().Year())
	}
	fieldsOfStudy := req.FieldsOfStudy
	if fieldsOfStudy == "" {
		fieldsOfStudy = a.Defaults.FieldsOfStudy
	}

	semQuery := SemanticQuery{
		Query:         req.Query,
		Year:          year,
		DocumentType:  req.DocumentType,
		FieldsOfStudy: fieldsOfStudy,
		Limit:         semanticNum,
		Mode:          ModeBulk,
	}
	wosQuery := WosQuery{
		Query:        req.Query,
		Year:         year,
		DocumentType: req.DocumentType,
		Database:     a.Defaults.WebOfScience.Database,
		Limit:        wosNum,
		APIKey:       req.WosAPIKey,
	}

	var (
		mu                     sync.Mutex
		semRecords, wosRecords []types.Record
		attempted              int
	)
	fail := func(source string, err error) {
		mu.Lock()
		defer mu.Unlock()
		out.Failures = append(out.Failures, &types.SourceFailure{Source: source, Err: err})
		out.Warnings = append(out.Warnings, fmt.Sprintf("%s: %v", source, err))
	}

	var g errgroup.Group
	attempted++
	g.Go(func() error {
		recs, err := a.Semantic.Search(ctx, semQuery)
		if err != nil {
			a.Metrics.RecordSource(SourceSemanticScholar, "error", 0)
			semLog := logging.WithSource(log, SourceSemanticScholar)
			semLog.Warn().Err(err).Msg("source failed")
			fail(SourceSemanticScholar, err)
			return nil
		}
		a.Metrics.RecordSource(SourceSemanticScholar, "ok", len(recs))
		semRecords = recs
		return nil
	})
	if a.Wos != nil {
		g.Go(func() error {
			recs, err := a.Wos.Search(ctx, wosQuery)
			wosLog := logging.WithSource(log, SourceWebOfScience)
			if errors.Is(err, ErrMissingAPIKey) {
				a.Metrics.RecordSource(SourceWebOfScience, "skipped", 0)
				wosLog.Warn().Msg("no API key, skipping source")
				fail(SourceWebOfScience, err)
				return nil
			}
			mu.Lock()
			attempted++
			mu.Unlock()
			if err != nil {
				a.Metrics.RecordSource(SourceWebOfScience, "error", 0)
				wosLog.Warn().Err(err).Msg("source failed")
				fail(SourceWebOfScience, err)
				return nil
			}
			a.Metrics.RecordSource(SourceWebOfScience, "ok", len(recs))
			wosRecords = recs
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Output{}, err
	}
	if allSourcesFailed(out.Failures, attempted) {
		return Output{}, fmt.Errorf("all literature sources failed: %w", errors.Join(out.Failures...))
	}

	out.Stats.SemanticRecords = len(semRecords)
	out.Stats.WosRecords = len(wosRecords)
	log.Info().Int("semantic", len(semRecords)).Int("wos", len(wosRecords)).Msg("primary sources done")

	merged := Merge(semRecords, wosRecords)
	out.Stats.Merged = len(merged.Records)
	out.Stats.Duplicates = merged.Duplicates
	a.Metrics.RecordDuplicates(merged.Duplicates)

	var withAbstract, byDOI, byPMID, leftovers []types.Record
	for _, r := range merged.Records {
		switch {
		case r.HasAbstract():
			withAbstract = append(withAbstract, r)
		case r.DOI != "":
			byDOI = append(byDOI, r)
		case r.PMID != "":
			byPMID = append(byPMID, r)
		default:
			leftovers = append(leftovers, r)
		}
	}
	leftovers = append(leftovers, merged.Unkeyable...)
	out.Stats.HadAbstract = len(withAbstract)
	out.Stats.Unresolvable = len(leftovers)

	var entries []BackfillEntry
	if len(byDOI)+len(byPMID) > 0 {
		if a.Resolver == nil {
			for _, r := range append(byDOI, byPMID...) {
				entries = append(entries, BackfillEntry{Record: r, State: StateFilteredOut})
			}
		} else {
			var err error
			entries, err = a.Resolver.Resolve(ctx, byDOI, byPMID)
			if err != nil {
				return Output{}, fmt.Errorf("abstract backfill: %w", err)
			}
		}
	}

	records := withAbstract
	var filteredOut []types.Record
	for _, e := range entries {
		if e.State == StateHasAbstract {
			records = append(records, e.Record)
			out.Stats.Backfilled++
			continue
		}
		filteredOut = append(filteredOut, e.Record)
	}
	out.Stats.FilteredOut = len(filteredOut)
	if !req.IsFiltered() {
		records = append(records, filteredOut...)
		records = append(records, leftovers...)
	}

	for i := range records {
		records[i].URL = records[i].DeriveURL()
	}
	if records == nil {
		records = []types.Record{}
	}
	out.Records = records

	a.Metrics.ObserveTool("literature_search", a.now().Sub(started).Seconds())
	log.Info().
		Int("records", len(records)).
		Int("duplicates", merged.Duplicates).
		Int("backfilled", out.Stats.Backfilled).
		Int("filtered_out", out.Stats.FilteredOut).
		Msg("literature search done")
	return out, nil
}

// allSourcesFailed reports whether every attempted source failed. Skipped
// sources do not count as attempted.
func allSourcesFailed(failures []error, attempted int) bool {
	if attempted == 0 {
		return true
	}
	failed := 0
	for _, f := range failures {
		if !errors.Is(f, ErrMissingAPIKey) {
			failed++
		}
	}
	return failed >= attempted
}

// NewAggregator wires the real source adapters from cfg.
func NewAggregator(cfg types.LiteratureConfig, logger zerolog.Logger, m *metrics.Metrics) *Aggregator {
	return NewToolkit(cfg, logger, m).Aggregator
}

// Toolkit holds every literature tool built from one configuration. The
// tools share one HTTP client and each source keeps a single pacer, so a
// direct source call and an aggregated search never overrun the same
// provider.
type Toolkit struct {
	Aggregator *Aggregator
	Semantic   *SemanticScholarSource
	Wos        *WebOfScienceSource
	Citations  *CitationSource
	Crossref   *CrossrefClient
}

// NewToolkit wires the real source adapters from cfg.
func NewToolkit(cfg types.LiteratureConfig, logger zerolog.Logger, m *metrics.Metrics) *Toolkit {
	client := httputil.NewClient(cfg.HTTPConfig)
	client.OnRateLimited = m.RecordRateLimited

	semantic := &SemanticScholarSource{
		HTTP:   client,
		APIKey: cfg.SemanticScholar.APIKey,
		Pacer:  httputil.NewPacer(cfg.SemanticScholar.PageDelay),
		OnPage: func() { m.RecordPage(SourceSemanticScholar) },
	}
	wos := &WebOfScienceSource{
		HTTP:   client,
		APIKey: cfg.WebOfScience.APIKey,
		Pacer:  httputil.NewPacer(cfg.WebOfScience.PageDelay),
		OnPage: func() { m.RecordPage(SourceWebOfScience) },
	}
	resolver := &Resolver{
		Batch: &SemanticBatchSource{HTTP: client, APIKey: cfg.SemanticScholar.APIKey},
		PubMed: &PubMedClient{
			HTTP:   client,
			APIKey: cfg.PubMed.APIKey,
			Email:  cfg.PubMed.Email,
			Tool:   cfg.PubMed.Tool,
			Pacer:  httputil.NewPacer(pubmedInterval(cfg.PubMed.APIKey)),
		},
		ChunkPacer:    httputil.NewPacer(cfg.SemanticScholar.BatchDelay),
		PMIDBatchSize: cfg.PubMed.BatchSize,
		Logger:        logger.With().Str("component", "backfill").Logger(),
		Metrics:       m,
	}
	return &Toolkit{
		Aggregator: &Aggregator{
			Semantic: semantic,
			Wos:      wos,
			Resolver: resolver,
			Defaults: cfg,
			Logger:   logger,
			Metrics:  m,
		},
		Semantic: semantic,
		Wos:      wos,
		Citations: &CitationSource{
			HTTP:   client,
			APIKey: cfg.SemanticScholar.APIKey,
			Pacer:  httputil.NewPacer(cfg.SemanticScholar.CitationDelay),
		},
		Crossref: &CrossrefClient{
			HTTP:     client,
			Mailto:   cfg.Crossref.Mailto,
			PageSize: cfg.Crossref.PageSize,
			Pacer:    httputil.NewPacer(cfg.Crossref.PageDelay),
			DOIPacer: httputil.NewPacer(cfg.Crossref.DOIDelay),
		},
	}
}

// pubmedInterval keeps calls under the NCBI limits: 3 requests per second
// without a key, 10 with one.
func pubmedInterval(apiKey string) time.Duration {
	if apiKey != "" {
		return 100 * time.Millisecond
	}
	return 334 * time.Millisecond
}
