// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/pdiddy/research-tools/internal/metrics"
	"github.com/pdiddy/research-tools/internal/patent"
	"github.com/pdiddy/research-tools/pkg/types"
)

var patentCmd = &cobra.Command{
	Use:   "patent",
	Short: "Query PatSnap for patents",
	Long: `Patent runs a PatSnap query-search and prints the matching patents. The
similar and content subcommands find neighbours of one patent and fetch
patent text. Credentials come from the patent.api_key and
patent.client_secret settings.`,
	Example: `  research-tools patent --query "TACD: (lidar AND vehicle)" --num 20
  research-tools patent --query "TTL: battery" --sort PBDT_YEARMONTHDAY:desc --json`,
	RunE: runPatent,
}

func init() {
	patentCmd.Flags().String("query", "", "PatSnap query expression")
	patentCmd.Flags().Int("num", patent.DefaultNum, "number of patents to return (at most 1000)")
	patentCmd.Flags().Bool("stemming", false, "match plural and tense variants")
	patentCmd.Flags().StringSlice("sort", nil, "sort keys as FIELD:ORDER, e.g. SCORE:desc")
	patentCmd.Flags().String("collapse-type", "", "family collapse: ALL, APNO, DOCDB, INPADOC or EXTEND")
	patentCmd.Flags().String("collapse-by", "", "family member kept: APD, PBD, AUTHORITY or SCORE")
	patentCmd.Flags().String("collapse-order", "", "OLDEST or LATEST")
	patentCmd.Flags().Bool("json", false, "print patents as JSON")
	patentCmd.Flags().String("format", "", "also export patents as json, yaml, csv or csl")
	patentCmd.Flags().String("output", "", "export path (default: timestamped file in the export dir)")
	_ = patentCmd.MarkFlagRequired("query")

	rootCmd.AddCommand(patentCmd)
}

func runPatent(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	q := patent.Query{}
	q.Query, _ = flags.GetString("query")
	q.Num, _ = flags.GetInt("num")
	q.Stemming, _ = flags.GetBool("stemming")
	q.CollapseType, _ = flags.GetString("collapse-type")
	q.CollapseBy, _ = flags.GetString("collapse-by")
	q.CollapseOrder, _ = flags.GetString("collapse-order")

	sorts, _ := flags.GetStringSlice("sort")
	for _, s := range sorts {
		field, order, ok := strings.Cut(s, ":")
		if !ok {
			return types.NewInvalidParameter("sort", s, "must be FIELD:ORDER")
		}
		q.Sort = append(q.Sort, patent.Sort{Field: field, Order: order})
	}

	m := metrics.New(prometheus.NewRegistry(), metricsNamespace)
	client := patent.NewClient(cfg.Patent, logger, m)

	patents, err := client.Query(cmd.Context(), q)
	if err != nil {
		return err
	}

	if format, _ := flags.GetString("format"); format != "" {
		output, _ := flags.GetString("output")
		path, err := exportRecords(format, output, patents)
		if err != nil {
			return err
		}
		logger.Info().Str("path", path).Int("patents", len(patents)).Msg("patents exported")
	}

	if asJSON, _ := flags.GetBool("json"); asJSON {
		if patents == nil {
			patents = []types.Patent{}
		}
		return writeJSONOut(patents)
	}
	printPatents(patents, os.Stdout)
	return nil
}

func printPatents(patents []types.Patent, w io.Writer) {
	if len(patents) == 0 {
		fmt.Fprintln(w, "No patents found.")
		return
	}
	fmt.Fprintf(w, "%-4s  %-18s  %-10s  %-50s  %s\n", "#", "Number", "Published", "Title", "Assignee")
	fmt.Fprintln(w, strings.Repeat("-", 120))
	for i, p := range patents {
		published := ""
		if t := p.PublishedOn(); !t.IsZero() {
			published = t.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%-4d  %-18s  %-10s  %-50s  %s\n",
			i+1, p.PN, published, clip(p.Title, 50), clip(p.CurrentAssignee, 30))
	}
	fmt.Fprintf(w, "\n%d patents\n", len(patents))
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

var patentSimilarCmd = &cobra.Command{
	Use:   "similar",
	Short: "Find patents similar to a reference patent",
	Example: `  research-tools patent similar --patent-number CN112345678A --relevancy 70%
  research-tools patent similar --patent-id 4f1a... --country CNA,USB --num 50 --json`,
	RunE: runPatentSimilar,
}

var patentContentCmd = &cobra.Command{
	Use:   "content",
	Short: "Fetch the title, abstract, claims or technical summary of patents",
	Long: `Content fetches patent text, 100 patents per provider call. Identifiers
are comma-separated; --patent-id wins over --patent-number.`,
	Example: `  research-tools patent content --patent-number US11234567B2 --claim
  research-tools patent content --patent-id a1,b2 --title-abstract=false --tech-summary --lang cn`,
	RunE: runPatentContent,
}

func init() {
	f := patentSimilarCmd.Flags()
	f.String("patent-id", "", "PatSnap id of the reference patent")
	f.String("patent-number", "", "publication number of the reference patent")
	f.Int("num", patent.DefaultNum, "number of patents to return (at most 1000)")
	f.String("relevancy", patent.DefaultRelevancy, "minimum similarity, e.g. 70%")
	f.String("country", "", "comma-separated authority and kind codes, e.g. CNA,USB")
	f.Bool("json", false, "print patents as JSON")

	f = patentContentCmd.Flags()
	f.String("patent-id", "", "comma-separated PatSnap ids")
	f.String("patent-number", "", "comma-separated publication numbers")
	f.String("lang", "en", "preferred text language: en, cn or jp")
	f.Bool("title-abstract", true, "include title and abstract")
	f.Bool("claim", false, "include claims")
	f.Bool("tech-summary", false, "include the technical problem and benefit summary")

	patentCmd.AddCommand(patentSimilarCmd, patentContentCmd)
}

func runPatentSimilar(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	q := patent.SimilarQuery{}
	q.PatentID, _ = flags.GetString("patent-id")
	q.PatentNumber, _ = flags.GetString("patent-number")
	q.Num, _ = flags.GetInt("num")
	q.Relevancy, _ = flags.GetString("relevancy")
	q.Country, _ = flags.GetString("country")

	if err := q.Validate(); err != nil {
		return err
	}
	m := metrics.New(prometheus.NewRegistry(), metricsNamespace)
	patents, err := patent.NewClient(cfg.Patent, logger, m).Similar(cmd.Context(), q)
	if err != nil {
		return err
	}
	if asJSON, _ := flags.GetBool("json"); asJSON {
		if patents == nil {
			patents = []types.Patent{}
		}
		return writeJSONOut(patents)
	}
	printPatents(patents, os.Stdout)
	return nil
}

func runPatentContent(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	q := patent.ContentQuery{}
	q.PatentID, _ = flags.GetString("patent-id")
	q.PatentNumber, _ = flags.GetString("patent-number")
	q.Lang, _ = flags.GetString("lang")
	titleAbstract, _ := flags.GetBool("title-abstract")
	q.TitleAbstract = &titleAbstract
	q.Claims, _ = flags.GetBool("claim")
	q.TechSummary, _ = flags.GetBool("tech-summary")

	if err := q.Validate(); err != nil {
		return err
	}
	m := metrics.New(prometheus.NewRegistry(), metricsNamespace)
	content, err := patent.NewClient(cfg.Patent, logger, m).Content(cmd.Context(), q)
	if err != nil {
		return err
	}
	if content == nil {
		content = []types.PatentContent{}
	}
	return writeJSONOut(content)
}
