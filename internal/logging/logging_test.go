// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-tools/pkg/types"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNewJSONWithContext(t *testing.T) {
	var buf bytes.Buffer
	log := WithSource(WithRun(New(&buf, types.LoggingConfig{Level: "info", Format: "json"}), "run-1"), "wos")

	log.Debug().Msg("hidden")
	log.Info().Int("records", 3).Msg("fetched")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "wos", entry["source"])
	assert.Equal(t, "fetched", entry["message"])
	assert.EqualValues(t, 3, entry["records"])
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, types.LoggingConfig{Format: "console"})
	log.Warn().Msg("skipping source")
	assert.Contains(t, buf.String(), "skipping source")
	assert.Contains(t, buf.String(), "WRN")
}
