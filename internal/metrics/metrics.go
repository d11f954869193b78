// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics defines the Prometheus instruments recorded by the tools.
// A nil *Metrics is valid and records nothing, so library callers that do
// not care about metrics can pass nil.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every instrument. Create one per registry with New.
type Metrics struct {
	SourceRequests    *prometheus.CounterVec
	SourceRateLimited *prometheus.CounterVec
	SourcePages       *prometheus.CounterVec
	SourceRecords     *prometheus.CounterVec
	BackfillOutcomes  *prometheus.CounterVec
	Duplicates        prometheus.Counter
	ToolDuration      *prometheus.HistogramVec
}

// New registers the instruments on reg under namespace.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SourceRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Source searches by outcome (ok, error, skipped).",
		}, []string{"source", "outcome"}),
		SourceRateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_rate_limited_total",
			Help:      "HTTP 429 responses that triggered a backoff retry.",
		}, []string{"source"}),
		SourcePages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_pages_total",
			Help:      "Result pages fetched from each source.",
		}, []string{"source"}),
		SourceRecords: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_records_total",
			Help:      "Records returned by each source.",
		}, []string{"source"}),
		BackfillOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backfill_outcomes_total",
			Help:      "Final backfill state of records that lacked an abstract.",
		}, []string{"state"}),
		Duplicates: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_merged_total",
			Help:      "Records folded into an earlier record with the same key.",
		}),
		ToolDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "Wall time of a tool invocation.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"tool"}),
	}
}

// RecordSource records the outcome of one source search.
func (m *Metrics) RecordSource(source, outcome string, records int) {
	if m == nil {
		return
	}
	m.SourceRequests.WithLabelValues(source, outcome).Inc()
	if records > 0 {
		m.SourceRecords.WithLabelValues(source).Add(float64(records))
	}
}

// RecordRateLimited records one 429 backoff.
func (m *Metrics) RecordRateLimited(source string) {
	if m == nil {
		return
	}
	m.SourceRateLimited.WithLabelValues(source).Inc()
}

// RecordPage records one fetched result page.
func (m *Metrics) RecordPage(source string) {
	if m == nil {
		return
	}
	m.SourcePages.WithLabelValues(source).Inc()
}

// RecordBackfill records the final state of one backfilled record.
func (m *Metrics) RecordBackfill(state string) {
	if m == nil {
		return
	}
	m.BackfillOutcomes.WithLabelValues(state).Inc()
}

// RecordDuplicates records n merged duplicates.
func (m *Metrics) RecordDuplicates(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Duplicates.Add(float64(n))
}

// ObserveTool records the duration of a tool invocation.
func (m *Metrics) ObserveTool(tool string, seconds float64) {
	if m == nil {
		return
	}
	m.ToolDuration.WithLabelValues(tool).Observe(seconds)
}
