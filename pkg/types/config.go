// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by every adapter.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-tools/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds the 429 retries per request (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// RetryBaseDelay is the first backoff wait; each retry doubles it.
	RetryBaseDelay time.Duration `json:"retry_base_delay" yaml:"retry_base_delay" mapstructure:"retry_base_delay"`
}

// SemanticScholarConfig configures the Semantic Scholar search and batch adapters.
type SemanticScholarConfig struct {
	// APIKey is optional; it raises the provider's rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// PageDelay is the pause between bulk-search pages (default 15s).
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay" mapstructure:"page_delay"`

	// BatchDelay is the pause between batch lookup chunks (default 1s).
	BatchDelay time.Duration `json:"batch_delay" yaml:"batch_delay" mapstructure:"batch_delay"`

	// CitationDelay is the pause between citation and reference calls (default 1s).
	CitationDelay time.Duration `json:"citation_delay" yaml:"citation_delay" mapstructure:"citation_delay"`
}

// WebOfScienceConfig configures the Web of Science Starter adapter.
type WebOfScienceConfig struct {
	// APIKey is required; without it the source is skipped.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Database selects the WoS collection (default "WOK", all databases).
	Database string `json:"database" yaml:"database" mapstructure:"database"`

	// PageDelay is the pause between result pages (default 1s).
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay" mapstructure:"page_delay"`
}

// PubMedConfig configures the NCBI E-utilities lookups.
type PubMedConfig struct {
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Email and Tool identify the caller to NCBI.
	Email string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email"`
	Tool  string `json:"tool" yaml:"tool" mapstructure:"tool"`

	// BatchSize bounds the PMIDs per efetch call (default 200).
	BatchSize int `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`
}

// CrossrefConfig configures the Crossref works lookups.
type CrossrefConfig struct {
	// Mailto is required by the polite pool; it falls back to the contact
	// email secret.
	Mailto string `json:"mailto,omitempty" yaml:"mailto,omitempty" mapstructure:"mailto"`

	// PageSize is the rows per title query call until the provider
	// advertises its own limit (default 50).
	PageSize int `json:"page_size" yaml:"page_size" mapstructure:"page_size"`

	// PageDelay is the pause between calls until the provider advertises
	// its own interval (default 1s).
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay" mapstructure:"page_delay"`

	// DOIDelay is the pause between single-work lookups (default 500ms).
	DOIDelay time.Duration `json:"doi_delay" yaml:"doi_delay" mapstructure:"doi_delay"`
}

// LiteratureConfig holds settings for the literature aggregation tool.
type LiteratureConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	SemanticScholar SemanticScholarConfig `json:"semantic_scholar" yaml:"semantic_scholar" mapstructure:"semantic_scholar"`
	WebOfScience    WebOfScienceConfig    `json:"web_of_science" yaml:"web_of_science" mapstructure:"web_of_science"`
	PubMed          PubMedConfig          `json:"pubmed" yaml:"pubmed" mapstructure:"pubmed"`
	Crossref        CrossrefConfig        `json:"crossref" yaml:"crossref" mapstructure:"crossref"`

	// SemanticNum and WosNum are the per-source caps used when a request
	// does not set num_results (defaults 20 and 80).
	SemanticNum int `json:"semantic_num" yaml:"semantic_num" mapstructure:"semantic_num"`
	WosNum      int `json:"wos_num" yaml:"wos_num" mapstructure:"wos_num"`

	// FieldsOfStudy is the default Semantic Scholar filter.
	FieldsOfStudy string `json:"fields_of_study" yaml:"fields_of_study" mapstructure:"fields_of_study"`
}

// PatentConfig holds settings for the PatSnap patent query tool.
type PatentConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	APIKey       string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
	ClientSecret string `json:"client_secret,omitempty" yaml:"client_secret,omitempty" mapstructure:"client_secret"`

	// PageDelay is the pause between result pages (default 1s).
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay" mapstructure:"page_delay"`
}

// ServerConfig holds settings for the tool HTTP endpoint.
type ServerConfig struct {
	Address         string        `json:"address" yaml:"address" mapstructure:"address"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`

	// ExportDir receives files written by the export tool.
	ExportDir string `json:"export_dir" yaml:"export_dir" mapstructure:"export_dir"`
}

// LoggingConfig selects the log level, format (console or json) and
// destination (stderr or stdout).
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
	Output string `json:"output" yaml:"output" mapstructure:"output"`
}

// Config groups every tool configuration.
type Config struct {
	Literature LiteratureConfig `json:"literature" yaml:"literature" mapstructure:"literature"`
	Patent     PatentConfig     `json:"patent" yaml:"patent" mapstructure:"patent"`
	Server     ServerConfig     `json:"server" yaml:"server" mapstructure:"server"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging" mapstructure:"logging"`
}

// DefaultConfig returns the configuration used when no file, environment
// variable or flag overrides a value.
func DefaultConfig() Config {
	httpCfg := HTTPConfig{
		Timeout:        60 * time.Second,
		UserAgent:      "research-tools/0.1",
		MaxRetries:     5,
		RetryBaseDelay: 10 * time.Second,
	}
	return Config{
		Literature: LiteratureConfig{
			HTTPConfig: httpCfg,
			SemanticScholar: SemanticScholarConfig{
				PageDelay:     15 * time.Second,
				BatchDelay:    1 * time.Second,
				CitationDelay: 1 * time.Second,
			},
			WebOfScience: WebOfScienceConfig{
				Database:  "WOK",
				PageDelay: 1 * time.Second,
			},
			PubMed: PubMedConfig{
				Tool:      "research-tools",
				BatchSize: 200,
			},
			Crossref: CrossrefConfig{
				PageSize:  50,
				PageDelay: 1 * time.Second,
				DOIDelay:  500 * time.Millisecond,
			},
			SemanticNum:   20,
			WosNum:        80,
			FieldsOfStudy: "Medicine,Biology,Chemistry",
		},
		Patent: PatentConfig{
			HTTPConfig: httpCfg,
			PageDelay:  1 * time.Second,
		},
		Server: ServerConfig{
			Address:         ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    10 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
			ExportDir:       "export",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
	}
}
