// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/pdiddy/research-tools/internal/export"
	"github.com/pdiddy/research-tools/internal/metrics"
	"github.com/pdiddy/research-tools/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search Semantic Scholar and Web of Science for papers",
	Long: `Search queries Semantic Scholar and Web of Science in parallel, merges the
results by DOI, PMID or title, and backfills missing abstracts from the
Semantic Scholar batch API and PubMed. By default only records with an
abstract are printed.`,
	Example: `  research-tools search --query "(crispr OR talen) AND plant" --year 2019-2023
  research-tools search --query CRISPR --document-type Review --num-results 50 --json
  research-tools search --query CRISPR --save crispr.yaml --format csv --output crispr.csv`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("query", "", "boolean query (AND, OR, NOT and parentheses)")
	searchCmd.Flags().String("year", "", "publication year range: YYYY, YYYY-YYYY, YYYY- or -YYYY")
	searchCmd.Flags().String("document-type", "", "All, Article or Review")
	searchCmd.Flags().String("fields-of-study", "", "comma-separated Semantic Scholar fields of study")
	searchCmd.Flags().Int("num-results", 0, "cap on records fetched from each source (0 uses the configured caps)")
	searchCmd.Flags().Bool("filtered", true, "drop records that still lack an abstract")
	searchCmd.Flags().String("wos-api-key", "", "Web of Science key for this call only")
	searchCmd.Flags().Bool("json", false, "print records as JSON")
	searchCmd.Flags().String("save", "", "write the request, stats and records to this search file")
	searchCmd.Flags().String("format", "", "also export records as json, yaml, csv or csl")
	searchCmd.Flags().String("output", "", "export path (default: timestamped file in the export dir)")
	_ = searchCmd.MarkFlagRequired("query")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	req := search.Request{}
	req.Query, _ = flags.GetString("query")
	req.YearRange, _ = flags.GetString("year")
	req.DocumentType, _ = flags.GetString("document-type")
	req.FieldsOfStudy, _ = flags.GetString("fields-of-study")
	req.NumResults, _ = flags.GetInt("num-results")
	req.WosAPIKey, _ = flags.GetString("wos-api-key")
	if flags.Changed("filtered") {
		filtered, _ := flags.GetBool("filtered")
		req.Filtered = &filtered
	}

	// Fail on bad arguments before any client is built.
	if err := req.Validate(); err != nil {
		return err
	}

	m := metrics.New(prometheus.NewRegistry(), metricsNamespace)
	agg := search.NewAggregator(cfg.Literature, logger, m)

	out, err := agg.Search(cmd.Context(), req)
	if err != nil {
		return err
	}

	if path, _ := flags.GetString("save"); path != "" {
		if err := export.WriteSearchFile(path, export.NewSearchFile(req, out, time.Now())); err != nil {
			return err
		}
		logger.Info().Str("path", path).Msg("search file written")
	}

	if format, _ := flags.GetString("format"); format != "" {
		output, _ := flags.GetString("output")
		path, err := exportRecords(format, output, out.Records)
		if err != nil {
			return err
		}
		logger.Info().Str("path", path).Int("records", len(out.Records)).Msg("records exported")
	}

	if asJSON, _ := flags.GetBool("json"); asJSON {
		return search.FormatJSON(out, os.Stdout)
	}
	search.FormatTable(out, os.Stdout)
	return nil
}
