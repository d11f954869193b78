// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// FormatTable writes records as a human-readable table to w.
func FormatTable(out Output, w io.Writer) {
	if len(out.Records) == 0 {
		fmt.Fprintln(w, "No results found.")
		printWarnings(out, w)
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-4s  %-8s  %s\n",
		"#", "Title", "Authors", "Year", "Abstract", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 130))

	for i, r := range out.Records {
		year := ""
		if r.Year > 0 {
			year = fmt.Sprintf("%d", r.Year)
		}
		abstract := "no"
		if r.HasAbstract() {
			abstract = "yes"
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-4s  %-8s  %s\n",
			i+1, truncate(r.Title, 60), formatAuthors(r.Authors), year, abstract, r.URL)
	}

	fmt.Fprintf(w, "\n%d results", len(out.Records))
	if out.Stats.Duplicates > 0 {
		fmt.Fprintf(w, " (%d duplicates merged", out.Stats.Duplicates)
		if out.Stats.Backfilled > 0 {
			fmt.Fprintf(w, ", %d abstracts backfilled", out.Stats.Backfilled)
		}
		fmt.Fprint(w, ")")
	} else if out.Stats.Backfilled > 0 {
		fmt.Fprintf(w, " (%d abstracts backfilled)", out.Stats.Backfilled)
	}
	fmt.Fprintln(w)
	printWarnings(out, w)
}

func printWarnings(out Output, w io.Writer) {
	for _, msg := range out.Warnings {
		fmt.Fprintf(w, "warning: %s\n", msg)
	}
}

// FormatJSON writes the records as indented JSON to w.
func FormatJSON(out Output, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Records)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
