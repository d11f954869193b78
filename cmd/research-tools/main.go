// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-tools CLI.
package main

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-tools/internal/logging"
	"github.com/pdiddy/research-tools/internal/secrets"
	"github.com/pdiddy/research-tools/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg and logger are populated by the root PersistentPreRunE.
var (
	cfg    types.Config
	logger zerolog.Logger
)

// rootCmd is the base command for the research-tools CLI.
var rootCmd = &cobra.Command{
	Use:   "research-tools",
	Short: "Literature and patent search tools",
	Long: `research-tools searches Semantic Scholar and Web of Science in parallel,
merges the results by DOI, PMID or title, and fills in missing abstracts from
the Semantic Scholar batch API and PubMed. It also queries PatSnap for patents
and can serve every tool over HTTP.

Credentials are read from .secrets/ key files, RESEARCH_TOOLS_* environment
variables, or research-tools.yaml.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		logger = logging.NewLogger(cfg.Logging)
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug().Str("file", used).Msg("using config file")
		}

		dir, _ := cmd.Flags().GetString("secrets")
		s, err := secrets.Load(dir, logger)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug().Strs("keys", keys).Msg("loaded secrets")
		}
		secrets.Apply(&cfg, s)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./research-tools.yaml or ~/.config/research-tools/research-tools.yaml)")
	rootCmd.PersistentFlags().String("secrets", ".secrets/", "directory of credential key files")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (console or json)")
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("research-tools")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "research-tools"))
		}
	}

	viper.SetEnvPrefix("RESEARCH_TOOLS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine; defaults and the environment apply.
	_ = viper.ReadInConfig()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
