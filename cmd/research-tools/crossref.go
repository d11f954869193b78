// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-tools/internal/search"
	"github.com/pdiddy/research-tools/pkg/types"
)

var crossrefCmd = &cobra.Command{
	Use:   "crossref",
	Short: "Look works up in Crossref by DOI or title",
	Long: `Crossref resolves works through the Crossref REST API. Requests carry the
literature.crossref.mailto contact address, which Crossref requires for its
polite pool.`,
}

var crossrefDOICmd = &cobra.Command{
	Use:     "doi <doi>",
	Short:   "Fetch the Crossref record of a DOI",
	Example: `  research-tools crossref doi 10.1038/nature12373 --return-type all`,
	Args:    cobra.ExactArgs(1),
	RunE:    runCrossrefDOI,
}

var crossrefTitleCmd = &cobra.Command{
	Use:   "title <title>",
	Short: "Find works by title",
	Long: `Title searches Crossref bibliographic metadata. Without --fuzzy the search
stops at the first work whose title equals the query, ignoring case, and
prints only that work.`,
	Example: `  research-tools crossref title "Nanometre-scale thermometry in a living cell"
  research-tools crossref title "thermometry" --fuzzy --rows 20 --sort published`,
	Args: cobra.ExactArgs(1),
	RunE: runCrossrefTitle,
}

func init() {
	crossrefDOICmd.Flags().String("return-type", search.CrossrefBasic, "basic or all")

	f := crossrefTitleCmd.Flags()
	f.Int("rows", search.DefaultCrossrefRows, "number of works to return")
	f.String("sort", "", "sort field, e.g. relevance, published or is-referenced-by-count")
	f.String("order", "", "asc or desc")
	f.Bool("fuzzy", false, "return every match instead of the exact title")
	f.String("return-type", search.CrossrefBasic, "basic or all")
	f.Bool("json", false, "print as JSON")

	crossrefCmd.AddCommand(crossrefDOICmd, crossrefTitleCmd)
	rootCmd.AddCommand(crossrefCmd)
}

func runCrossrefDOI(cmd *cobra.Command, args []string) error {
	q := search.CrossrefDOIQuery{DOI: args[0]}
	q.ReturnType, _ = cmd.Flags().GetString("return-type")

	work, err := newToolkit().Crossref.LookupDOI(cmd.Context(), q)
	if err != nil {
		return err
	}
	if work == nil {
		fmt.Fprintf(os.Stdout, "No Crossref work for %s.\n", args[0])
		return nil
	}
	return writeJSONOut(work)
}

func runCrossrefTitle(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	q := search.CrossrefTitleQuery{Title: args[0]}
	q.Rows, _ = flags.GetInt("rows")
	q.Sort, _ = flags.GetString("sort")
	q.Order, _ = flags.GetString("order")
	q.Fuzzy, _ = flags.GetBool("fuzzy")
	q.ReturnType, _ = flags.GetString("return-type")

	works, err := newToolkit().Crossref.SearchTitle(cmd.Context(), q)
	if err != nil {
		return err
	}
	if asJSON, _ := flags.GetBool("json"); asJSON || q.ReturnType == search.CrossrefAll {
		return writeJSONOut(works)
	}
	records := make([]types.Record, len(works))
	for i, w := range works {
		records[i] = w.Record()
	}
	search.FormatTable(search.Output{Records: records}, os.Stdout)
	return nil
}

// writeJSONOut prints v as indented JSON on stdout.
func writeJSONOut(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
