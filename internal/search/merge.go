// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"github.com/pdiddy/research-tools/pkg/types"
)

// MergeResult is the output of Merge.
type MergeResult struct {
	// Records holds one record per key, in first-seen order.
	Records []types.Record

	// Unkeyable holds records with no DOI, PMID or title. They never merge.
	Unkeyable []types.Record

	// Duplicates counts records folded into an earlier one.
	Duplicates int
}

// Merge concatenates lists and collapses records that share a Key. The first
// record seen for a key keeps its position; later ones only fill fields that
// are still empty. Merge never mutates its input, and merging its own output
// again returns the same records.
func Merge(lists ...[]types.Record) MergeResult {
	res := mergePass(lists...)
	// Filling a DOI or PMID can change a record's key and expose a new
	// collision, so repeat until a pass folds nothing.
	for res.Duplicates > 0 {
		again := mergePass(res.Records)
		if again.Duplicates == 0 {
			break
		}
		res.Records = again.Records
		res.Duplicates += again.Duplicates
	}
	return res
}

func mergePass(lists ...[]types.Record) MergeResult {
	var res MergeResult
	seen := make(map[string]int) // key → index in res.Records

	for _, list := range lists {
		for _, r := range list {
			key := r.Key()
			if key == "" {
				res.Unkeyable = append(res.Unkeyable, cloneRecord(r))
				continue
			}
			if idx, ok := seen[key]; ok {
				mergeInto(&res.Records[idx], r)
				res.Duplicates++
				continue
			}
			seen[key] = len(res.Records)
			res.Records = append(res.Records, cloneRecord(r))
		}
	}
	return res
}

// mergeInto fills empty fields of dst from src. A field already set on dst
// is never overwritten.
func mergeInto(dst *types.Record, src types.Record) {
	fillString(&dst.Title, src.Title)
	fillString(&dst.DOI, src.DOI)
	fillString(&dst.PMID, src.PMID)
	fillString(&dst.Abstract, src.Abstract)
	fillString(&dst.URL, src.URL)
	fillString(&dst.PublishedMonth, src.PublishedMonth)
	fillString(&dst.OpenAccessPDF, src.OpenAccessPDF)
	fillString(&dst.UID, src.UID)
	fillString(&dst.ISSN, src.ISSN)
	fillString(&dst.Link, src.Link)
	fillString(&dst.Journal, src.Journal)
	fillString(&dst.PublishedDate, src.PublishedDate)
	fillSlice(&dst.Types, src.Types)
	fillSlice(&dst.Authors, src.Authors)
	fillSlice(&dst.Keywords, src.Keywords)
	if dst.Year == 0 {
		dst.Year = src.Year
	}
	fillRank(&dst.SemanticOrder, src.SemanticOrder)
	fillRank(&dst.WosOrder, src.WosOrder)
	fillRank(&dst.CitationCount, src.CitationCount)
	fillRank(&dst.ReferenceCount, src.ReferenceCount)
}

func fillString(dst *string, src string) {
	if *dst == "" {
		*dst = src
	}
}

func fillSlice(dst *[]string, src []string) {
	if len(*dst) == 0 && len(src) > 0 {
		*dst = append([]string(nil), src...)
	}
}

func fillRank(dst **int, src *int) {
	if *dst == nil && src != nil {
		*dst = types.Rank(*src)
	}
}

// cloneRecord copies r so later fills never write through to caller memory.
func cloneRecord(r types.Record) types.Record {
	c := r
	c.Types = cloneStrings(r.Types)
	c.Authors = cloneStrings(r.Authors)
	c.Keywords = cloneStrings(r.Keywords)
	if r.SemanticOrder != nil {
		c.SemanticOrder = types.Rank(*r.SemanticOrder)
	}
	if r.WosOrder != nil {
		c.WosOrder = types.Rank(*r.WosOrder)
	}
	if r.CitationCount != nil {
		c.CitationCount = types.Rank(*r.CitationCount)
	}
	if r.ReferenceCount != nil {
		c.ReferenceCount = types.Rank(*r.ReferenceCount)
	}
	return c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
