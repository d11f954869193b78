// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/pdiddy/research-tools/internal/metrics"
	"github.com/pdiddy/research-tools/internal/search"
	"github.com/pdiddy/research-tools/pkg/types"
)

var semanticCmd = &cobra.Command{
	Use:   "semantic",
	Short: "Search Semantic Scholar only",
	Long: `Semantic queries Semantic Scholar alone. Bulk mode pages through the
boolean bulk endpoint in the provider's order; relevance mode ranks free text
with the relevance endpoint.`,
	Example: `  research-tools search semantic --query "crispr + plant" --year 2019-
  research-tools search semantic --query "gene editing in wheat" --mode relevance --num-results 20`,
	RunE: runSemantic,
}

var wosCmd = &cobra.Command{
	Use:   "wos",
	Short: "Search Web of Science only",
	Long: `Wos queries the Web of Science Starter API alone. The scope is the
field tag the query applies to and the sort uses sortField syntax.`,
	Example: `  research-tools search wos --query Doudna --scope AU --sort PY+D
  research-tools search wos --query "CRISPR" --sort TC+D,PY+D --database WOK --json`,
	RunE: runWos,
}

var citationsCmd = &cobra.Command{
	Use:   "citations",
	Short: "List the papers citing and cited by a paper",
	Example: `  research-tools search citations --paper-id DOI:10.1038/nature12373
  research-tools search citations --paper-id PMID:19872477 --reference=false --limit 200`,
	RunE: runCitations,
}

func init() {
	f := semanticCmd.Flags()
	f.String("query", "", "query text; boolean syntax in bulk mode")
	f.String("year", "", "publication year range: YYYY, YYYY-YYYY, YYYY- or -YYYY")
	f.String("document-type", "", "All, Article or Review")
	f.String("fields-of-study", "", "comma-separated fields of study")
	f.String("fields", "", "comma-separated paper fields to request")
	f.Int("num-results", search.DefaultSourceLimit, "number of records to fetch")
	f.Bool("filtered", false, "drop records without an abstract")
	f.String("mode", string(search.ModeBulk), "bulk or relevance")
	addOutputFlags(semanticCmd)
	_ = semanticCmd.MarkFlagRequired("query")

	f = wosCmd.Flags()
	f.String("query", "", "query text")
	f.String("scope", "", "field tag: TS (default), TI, AU, DO, IS or PMID")
	f.String("sort", "", "sort keys in sortField syntax, e.g. PY+D,TC+D")
	f.String("database", "", "collection, e.g. WOS or WOK")
	f.String("year", "", "publication year range: YYYY, YYYY-YYYY, YYYY- or -YYYY")
	f.String("document-type", "", "All, Article or Review")
	f.Int("num-results", search.DefaultSourceLimit, "number of records to fetch")
	f.String("wos-api-key", "", "Web of Science key for this call only")
	addOutputFlags(wosCmd)
	_ = wosCmd.MarkFlagRequired("query")

	f = citationsCmd.Flags()
	f.String("paper-id", "", "paper id, or DOI:, PMID:, ARXIV: prefixed external id")
	f.String("fields", "", "comma-separated paper fields to request")
	f.Int("limit", search.DefaultCitationLimit, "records per direction")
	f.Bool("citation", true, "list the papers citing this paper")
	f.Bool("reference", true, "list the papers this paper cites")
	addOutputFlags(citationsCmd)
	_ = citationsCmd.MarkFlagRequired("paper-id")

	searchCmd.AddCommand(semanticCmd, wosCmd, citationsCmd)
}

// addOutputFlags adds the print and export flags shared by the source commands.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "print as JSON")
	cmd.Flags().String("format", "", "also export as json, yaml, csv or csl")
	cmd.Flags().String("output", "", "export path (default: timestamped file in the export dir)")
}

func newToolkit() *search.Toolkit {
	m := metrics.New(prometheus.NewRegistry(), metricsNamespace)
	return search.NewToolkit(cfg.Literature, logger, m)
}

func runSemantic(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	req := search.SemanticRequest{}
	req.Query, _ = flags.GetString("query")
	req.YearRange, _ = flags.GetString("year")
	req.DocumentType, _ = flags.GetString("document-type")
	req.FieldsOfStudy, _ = flags.GetString("fields-of-study")
	req.Fields, _ = flags.GetString("fields")
	req.NumResults, _ = flags.GetInt("num-results")
	req.Filtered, _ = flags.GetBool("filtered")
	req.Mode, _ = flags.GetString("mode")

	q, err := req.ToQuery()
	if err != nil {
		return err
	}
	records, err := newToolkit().Semantic.Search(cmd.Context(), q)
	if err != nil {
		return err
	}
	return emitRecords(cmd, search.NewSourceOutput(search.SourceSemanticScholar, records).Records)
}

func runWos(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	req := search.WosRequest{}
	req.Query, _ = flags.GetString("query")
	req.QueryType, _ = flags.GetString("scope")
	req.Sort, _ = flags.GetString("sort")
	req.Database, _ = flags.GetString("database")
	req.YearRange, _ = flags.GetString("year")
	req.DocumentType, _ = flags.GetString("document-type")
	req.NumResults, _ = flags.GetInt("num-results")
	req.WosAPIKey, _ = flags.GetString("wos-api-key")

	q, err := req.ToQuery()
	if err != nil {
		return err
	}
	records, err := newToolkit().Wos.Search(cmd.Context(), q)
	if err != nil {
		return err
	}
	return emitRecords(cmd, search.NewSourceOutput(search.SourceWebOfScience, records).Records)
}

func runCitations(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	q := search.CitationQuery{}
	q.PaperID, _ = flags.GetString("paper-id")
	q.Fields, _ = flags.GetString("fields")
	q.Limit, _ = flags.GetInt("limit")
	citing, _ := flags.GetBool("citation")
	cited, _ := flags.GetBool("reference")
	q.Citations, q.References = &citing, &cited

	if err := q.Validate(); err != nil {
		return err
	}
	res, err := newToolkit().Citations.Citations(cmd.Context(), q)
	if err != nil {
		return err
	}
	for i := range res.Citations {
		res.Citations[i].URL = res.Citations[i].DeriveURL()
	}
	for i := range res.References {
		res.References[i].URL = res.References[i].DeriveURL()
	}

	if format, _ := flags.GetString("format"); format != "" {
		output, _ := flags.GetString("output")
		path, err := exportRecords(format, output, append(append([]types.Record{}, res.Citations...), res.References...))
		if err != nil {
			return err
		}
		logger.Info().Str("path", path).Msg("citations exported")
	}
	if asJSON, _ := flags.GetBool("json"); asJSON {
		return writeJSONOut(res)
	}
	if citing {
		fmt.Fprintln(os.Stdout, "Citing papers:")
		search.FormatTable(search.Output{Records: res.Citations}, os.Stdout)
	}
	if cited {
		if citing {
			fmt.Fprintln(os.Stdout)
		}
		fmt.Fprintln(os.Stdout, "Referenced papers:")
		search.FormatTable(search.Output{Records: res.References}, os.Stdout)
	}
	return nil
}

// emitRecords exports records when --format is set, then prints them.
func emitRecords(cmd *cobra.Command, records []types.Record) error {
	flags := cmd.Flags()
	if format, _ := flags.GetString("format"); format != "" {
		output, _ := flags.GetString("output")
		path, err := exportRecords(format, output, records)
		if err != nil {
			return err
		}
		logger.Info().Str("path", path).Int("records", len(records)).Msg("records exported")
	}
	out := search.Output{Records: records}
	if asJSON, _ := flags.GetBool("json"); asJSON {
		return search.FormatJSON(out, os.Stdout)
	}
	search.FormatTable(out, os.Stdout)
	return nil
}
