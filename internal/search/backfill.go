// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pdiddy/research-tools/internal/httputil"
	"github.com/pdiddy/research-tools/internal/metrics"
	"github.com/pdiddy/research-tools/pkg/types"
)

// BackfillState tracks a record through abstract backfill.
type BackfillState string

const (
	StateHasAbstract         BackfillState = "HAS_ABSTRACT"
	StateNeedsAbstractByDOI  BackfillState = "NEEDS_ABSTRACT_BY_DOI"
	StateNeedsPMIDLookup     BackfillState = "NEEDS_PMID_LOOKUP"
	StateNeedsAbstractByPMID BackfillState = "NEEDS_ABSTRACT_BY_PMID"
	StateFilteredOut         BackfillState = "FILTERED_OUT"
)

// Terminal reports whether no further transition is possible from s.
func (s BackfillState) Terminal() bool {
	return s == StateHasAbstract || s == StateFilteredOut
}

// BackfillEntry is a record and the state it ended in.
type BackfillEntry struct {
	Record types.Record
	State  BackfillState
}

// BatchLookup resolves typed ids to records; see SemanticBatchSource.
type BatchLookup interface {
	Lookup(ctx context.Context, ids []Identifier, keepUnfiltered bool) ([]BatchHit, error)
}

// PubMedLookup maps DOIs to PMIDs and PMIDs to article text; see PubMedClient.
type PubMedLookup interface {
	PMIDForDOI(ctx context.Context, doi string) (string, error)
	FetchArticles(ctx context.Context, pmids []string) (map[string]PubMedArticle, error)
}

const defaultPMIDBatchSize = 200

// Resolver fills in missing abstracts. Records with a DOI are first looked
// up in the batch source; misses are mapped to a PMID and fetched from
// PubMed, as are records that only had a PMID to begin with.
type Resolver struct {
	Batch  BatchLookup
	PubMed PubMedLookup

	// ChunkSize bounds ids per batch call (default MaxBatchIdentifiers).
	ChunkSize int

	// ChunkPacer spaces consecutive batch calls.
	ChunkPacer *httputil.Pacer

	// PMIDBatchSize bounds ids per PubMed fetch (default 200).
	PMIDBatchSize int

	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// Resolve runs byDOI and byPMID through the backfill state machine and
// returns every record with its terminal state, byDOI first, each group in
// input order. Provider failures degrade the affected records rather than
// failing the call; only context cancellation is returned as an error.
func (r *Resolver) Resolve(ctx context.Context, byDOI, byPMID []types.Record) ([]BackfillEntry, error) {
	entries := make([]BackfillEntry, 0, len(byDOI)+len(byPMID))
	for _, rec := range byDOI {
		entries = append(entries, BackfillEntry{Record: cloneRecord(rec), State: StateNeedsAbstractByDOI})
	}
	for _, rec := range byPMID {
		entries = append(entries, BackfillEntry{Record: cloneRecord(rec), State: StateNeedsAbstractByPMID})
	}

	if err := r.resolveByDOI(ctx, entries); err != nil {
		return nil, err
	}
	if err := r.lookupPMIDs(ctx, entries); err != nil {
		return nil, err
	}
	if err := r.resolveByPMID(ctx, entries); err != nil {
		return nil, err
	}

	for _, e := range entries {
		r.Metrics.RecordBackfill(string(e.State))
	}
	return entries, nil
}

// resolveByDOI moves NEEDS_ABSTRACT_BY_DOI entries to HAS_ABSTRACT or
// NEEDS_PMID_LOOKUP.
func (r *Resolver) resolveByDOI(ctx context.Context, entries []BackfillEntry) error {
	var pending []int
	for i, e := range entries {
		if e.State == StateNeedsAbstractByDOI {
			pending = append(pending, i)
		}
	}

	size := r.ChunkSize
	if size <= 0 || size > MaxBatchIdentifiers {
		size = MaxBatchIdentifiers
	}

	for start := 0; start < len(pending); start += size {
		chunk := pending[start:min(start+size, len(pending))]
		if err := r.ChunkPacer.Wait(ctx); err != nil {
			return err
		}

		ids := make([]Identifier, len(chunk))
		for j, idx := range chunk {
			ids[j] = Identifier{Kind: KindDOI, Value: entries[idx].Record.DOI}
		}

		hit := make(map[int]bool, len(chunk))
		hits, err := r.Batch.Lookup(ctx, ids, false)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.Logger.Warn().Err(err).Int("ids", len(ids)).Msg("batch lookup failed, falling back to PubMed")
		}
		for _, h := range hits {
			if h.Index < 0 || h.Index >= len(chunk) {
				continue
			}
			e := &entries[chunk[h.Index]]
			if h.Record.Title != "" {
				e.Record.Title = h.Record.Title
			}
			e.Record.Abstract = h.Record.Abstract
			mergeInto(&e.Record, h.Record)
			e.State = StateHasAbstract
			hit[h.Index] = true
		}
		for j, idx := range chunk {
			if !hit[j] {
				entries[idx].State = StateNeedsPMIDLookup
			}
		}
	}
	return nil
}

// lookupPMIDs moves NEEDS_PMID_LOOKUP entries to NEEDS_ABSTRACT_BY_PMID or
// FILTERED_OUT.
func (r *Resolver) lookupPMIDs(ctx context.Context, entries []BackfillEntry) error {
	for i := range entries {
		e := &entries[i]
		if e.State != StateNeedsPMIDLookup {
			continue
		}
		if e.Record.PMID != "" {
			e.State = StateNeedsAbstractByPMID
			continue
		}
		pmid, err := r.PubMed.PMIDForDOI(ctx, e.Record.DOI)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.Logger.Debug().Err(err).Str("doi", e.Record.DOI).Msg("pmid lookup failed")
		}
		if err != nil || pmid == "" {
			e.State = StateFilteredOut
			continue
		}
		e.Record.PMID = pmid
		e.State = StateNeedsAbstractByPMID
	}
	return nil
}

// resolveByPMID moves NEEDS_ABSTRACT_BY_PMID entries to HAS_ABSTRACT or
// FILTERED_OUT. Articles are matched back by PMID, not by position.
func (r *Resolver) resolveByPMID(ctx context.Context, entries []BackfillEntry) error {
	var pending []int
	for i, e := range entries {
		if e.State == StateNeedsAbstractByPMID {
			pending = append(pending, i)
		}
	}

	size := r.PMIDBatchSize
	if size <= 0 {
		size = defaultPMIDBatchSize
	}

	for start := 0; start < len(pending); start += size {
		chunk := pending[start:min(start+size, len(pending))]
		pmids := make([]string, len(chunk))
		for j, idx := range chunk {
			pmids[j] = entries[idx].Record.PMID
		}

		articles, err := r.PubMed.FetchArticles(ctx, pmids)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.Logger.Warn().Err(err).Int("pmids", len(pmids)).Msg("pubmed fetch failed")
		}
		for _, idx := range chunk {
			e := &entries[idx]
			art, ok := articles[e.Record.PMID]
			if !ok || art.Abstract == "" {
				e.State = StateFilteredOut
				continue
			}
			if art.Title != "" {
				e.Record.Title = art.Title
			}
			e.Record.Abstract = art.Abstract
			if e.Record.DOI == "" {
				e.Record.DOI = art.DOI
			}
			e.State = StateHasAbstract
		}
	}
	return nil
}
