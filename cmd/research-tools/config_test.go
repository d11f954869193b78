// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-tools/pkg/types"
)

func newViper(t *testing.T, file string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetEnvPrefix("RESEARCH_TOOLS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if file != "" {
		path := filepath.Join(t.TempDir(), "research-tools.yaml")
		require.NoError(t, os.WriteFile(path, []byte(file), 0o644))
		v.SetConfigFile(path)
		require.NoError(t, v.ReadInConfig())
	}
	return v
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(newViper(t, ""))
	require.NoError(t, err)
	assert.Equal(t, types.DefaultConfig(), cfg)
}

func TestLoadConfigFileOverrides(t *testing.T) {
	cfg, err := loadConfig(newViper(t, `
literature:
  timeout: 5s
  wos_num: 40
  web_of_science:
    database: WOS
  pubmed:
    email: lab@example.org
server:
  address: ":9090"
logging:
  level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Literature.Timeout)
	assert.Equal(t, 40, cfg.Literature.WosNum)
	assert.Equal(t, 20, cfg.Literature.SemanticNum)
	assert.Equal(t, "WOS", cfg.Literature.WebOfScience.Database)
	assert.Equal(t, time.Second, cfg.Literature.WebOfScience.PageDelay)
	assert.Equal(t, "lab@example.org", cfg.Literature.PubMed.Email)
	assert.Equal(t, 200, cfg.Literature.PubMed.BatchSize)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("RESEARCH_TOOLS_LITERATURE_WEB_OF_SCIENCE_API_KEY", "wos-key")
	t.Setenv("RESEARCH_TOOLS_PATENT_CLIENT_SECRET", "shh")
	t.Setenv("RESEARCH_TOOLS_SERVER_EXPORT_DIR", "/tmp/out")

	cfg, err := loadConfig(newViper(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "wos-key", cfg.Literature.WebOfScience.APIKey)
	assert.Equal(t, "shh", cfg.Patent.ClientSecret)
	assert.Empty(t, cfg.Patent.APIKey)
	assert.Equal(t, "/tmp/out", cfg.Server.ExportDir)
}

func TestLoadConfigCrossref(t *testing.T) {
	t.Setenv("RESEARCH_TOOLS_LITERATURE_CROSSREF_MAILTO", "lab@example.org")

	cfg, err := loadConfig(newViper(t, `
literature:
  crossref:
    page_size: 20
`))
	require.NoError(t, err)
	assert.Equal(t, "lab@example.org", cfg.Literature.Crossref.Mailto)
	assert.Equal(t, 20, cfg.Literature.Crossref.PageSize)
	assert.Equal(t, types.DefaultConfig().Literature.Crossref.DOIDelay, cfg.Literature.Crossref.DOIDelay)
}

func TestSourceCommandsRegistered(t *testing.T) {
	for _, path := range [][]string{
		{"search", "semantic"},
		{"search", "wos"},
		{"search", "citations"},
		{"crossref", "doi"},
		{"crossref", "title"},
		{"patent", "similar"},
		{"patent", "content"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[1], cmd.Name())
	}

	mode := semanticCmd.Flags().Lookup("mode")
	require.NotNil(t, mode)
	assert.Equal(t, "bulk", mode.DefValue)
	assert.NotNil(t, wosCmd.Flags().Lookup("scope"))
	assert.NotNil(t, wosCmd.Flags().Lookup("sort"))
}
