// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-tools/internal/search"
	"github.com/pdiddy/research-tools/pkg/types"
)

// SearchFile is a saved literature search: the arguments, what came back,
// and run statistics. A saved search can be reloaded and re-exported
// without querying the providers again.
type SearchFile struct {
	Request search.Request `yaml:"request"`
	Summary SearchSummary  `yaml:"summary"`
	Records []types.Record `yaml:"records"`
}

// SearchSummary records how a saved search went.
type SearchSummary struct {
	RunID     string       `yaml:"run_id"`
	Total     int          `yaml:"total"`
	Stats     search.Stats `yaml:"stats"`
	Warnings  []string     `yaml:"warnings,omitempty"`
	Timestamp time.Time    `yaml:"timestamp"`
}

// NewSearchFile captures req and out.
func NewSearchFile(req search.Request, out search.Output, at time.Time) SearchFile {
	return SearchFile{
		Request: req,
		Summary: SearchSummary{
			RunID:     out.RunID,
			Total:     len(out.Records),
			Stats:     out.Stats,
			Warnings:  out.Warnings,
			Timestamp: at.UTC(),
		},
		Records: out.Records,
	}
}

// WriteSearchFile saves sf as YAML.
func WriteSearchFile(path string, sf SearchFile) error {
	data, err := yaml.Marshal(&sf)
	if err != nil {
		return fmt.Errorf("marshaling search file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSearchFile loads a search saved by WriteSearchFile.
func ReadSearchFile(path string) (*SearchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading search file: %w", err)
	}
	var sf SearchFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing search file: %w", err)
	}
	return &sf, nil
}
