// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-tools/internal/export"
)

// metricsNamespace prefixes every metric the tools register.
const metricsNamespace = "research_tools"

var exportCmd = &cobra.Command{
	Use:   "export <search-file>",
	Short: "Convert a saved search file to another format",
	Long: `Export reads a search file written by "search --save" and writes its
records as JSON, YAML, CSV or CSL YAML.`,
	Example: `  research-tools export crispr.yaml --format csl --output crispr.csl.yaml`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sf, err := export.ReadSearchFile(args[0])
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		path, err := exportRecords(format, output, sf.Records)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("format", "json", "json, yaml, csv or csl")
	exportCmd.Flags().String("output", "", "output path (default: timestamped file in the export dir)")

	rootCmd.AddCommand(exportCmd)
}

// exportRecords writes data to output, or to a timestamped file under the
// configured export dir when output is empty.
func exportRecords(format, output string, data any) (string, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return "", err
	}
	if output != "" {
		return output, export.WriteFile(output, f, data)
	}
	e := export.Exporter{Dir: cfg.Server.ExportDir}
	return e.Export("", f, data)
}
