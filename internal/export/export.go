// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes result lists to files in JSON, YAML, CSV or
// CSL-YAML form.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-tools/pkg/types"
)

// Format is an export file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"

	// FormatCSL is CSL-YAML, readable by Pandoc and reference managers.
	FormatCSL Format = "csl"
)

// ParseFormat accepts json, yaml (or yml), csv and csl, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	case "csl":
		return FormatCSL, nil
	default:
		return "", types.NewInvalidParameter("format", s, "must be json, yaml, csv or csl")
	}
}

// Extension returns the file suffix for f, without the leading dot.
func (f Format) Extension() string {
	if f == FormatCSL {
		return "csl.yaml"
	}
	return string(f)
}

// Write encodes data to w. CSV and CSL accept []types.Record and
// []types.Patent; JSON and YAML accept any value.
func Write(w io.Writer, f Format, data any) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	case FormatCSV:
		return writeCSV(w, data)
	case FormatCSL:
		items, err := CSLItems(data)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(items); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}

// WriteFile writes data to path, creating parent directories as needed.
func WriteFile(path string, f Format, data any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := Write(file, f, data); err != nil {
		file.Close()
		return fmt.Errorf("writing %s export: %w", f, err)
	}
	return file.Close()
}

// Exporter names and places export files under Dir.
type Exporter struct {
	Dir string

	// Now returns the current time; nil means time.Now.
	Now func() time.Time
}

// Export writes data to Dir/name and returns the path written. An empty
// name becomes a timestamp; the format extension is appended when missing.
func (e Exporter) Export(name string, f Format, data any) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		now := time.Now
		if e.Now != nil {
			now = e.Now
		}
		name = now().Format("20060102_150405")
	}
	if filepath.Base(name) != name {
		return "", types.NewInvalidParameter("filename", name, "must not contain a path")
	}
	if ext := "." + f.Extension(); !strings.HasSuffix(name, ext) {
		name += ext
	}
	path := filepath.Join(e.Dir, name)
	if err := WriteFile(path, f, data); err != nil {
		return "", err
	}
	return path, nil
}

var recordColumns = []string{"title", "authors", "year", "doi", "pmid", "url", "abstract"}

var patentColumns = []string{"patent_id", "pn", "title", "original_assignee", "current_assignee", "inventor", "apdt", "pbdt"}

func writeCSV(w io.Writer, data any) error {
	cw := csv.NewWriter(w)
	switch v := data.(type) {
	case []types.Record:
		if err := cw.Write(recordColumns); err != nil {
			return err
		}
		for _, r := range v {
			row := []string{r.Title, strings.Join(r.Authors, "; "), yearString(r.Year), r.DOI, r.PMID, r.URL, r.Abstract}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	case []types.Patent:
		if err := cw.Write(patentColumns); err != nil {
			return err
		}
		for _, p := range v {
			row := []string{p.PatentID, p.PN, p.Title, p.OriginalAssignee, p.CurrentAssignee, p.Inventor,
				dateString(p.ApplicationDate), dateString(p.PublicationDate)}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("csv export does not support %T", data)
	}
	cw.Flush()
	return cw.Error()
}

func yearString(y int) string {
	if y == 0 {
		return ""
	}
	return strconv.Itoa(y)
}

func dateString(d int) string {
	if d == 0 {
		return ""
	}
	return strconv.Itoa(d)
}
