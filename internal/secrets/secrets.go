// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/research-tools/pkg/types"
)

// Key file names.
const (
	SemanticScholarAPIKey = "semantic-scholar-api-key"
	WosAPIKey             = "wos-api-key"
	NCBIAPIKey            = "ncbi-api-key"
	ContactEmail          = "contact-email"
	CrossrefMailto        = "crossref-mailto"
	PatSnapAPIKey         = "patsnap-api-key"
	PatSnapClientSecret   = "patsnap-client-secret"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged as warnings but do not abort.
func Load(dir string, logger zerolog.Logger) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn().Err(err).Str("secret", name).Msg("could not read secret")
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply copies known secrets into cfg. Values already set from the config
// file, environment or flags take precedence.
func Apply(cfg *types.Config, secrets map[string]string) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = secrets[key]
		}
	}
	lit := &cfg.Literature
	fill(&lit.SemanticScholar.APIKey, SemanticScholarAPIKey)
	fill(&lit.WebOfScience.APIKey, WosAPIKey)
	fill(&lit.PubMed.APIKey, NCBIAPIKey)
	fill(&lit.PubMed.Email, ContactEmail)
	fill(&lit.Crossref.Mailto, CrossrefMailto)
	fill(&lit.Crossref.Mailto, ContactEmail)
	fill(&cfg.Patent.APIKey, PatSnapAPIKey)
	fill(&cfg.Patent.ClientSecret, PatSnapClientSecret)
}
