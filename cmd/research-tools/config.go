// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-tools/pkg/types"
)

// credentialKeys are bound explicitly because they have no default and so
// would otherwise be invisible to AutomaticEnv during Unmarshal.
var credentialKeys = []string{
	"literature.semantic_scholar.api_key",
	"literature.web_of_science.api_key",
	"literature.pubmed.api_key",
	"literature.pubmed.email",
	"literature.crossref.mailto",
	"patent.api_key",
	"patent.client_secret",
}

// loadConfig layers the config file, environment and bound flags over
// types.DefaultConfig.
func loadConfig(v *viper.Viper) (types.Config, error) {
	if err := setDefaults(v, types.DefaultConfig()); err != nil {
		return types.Config{}, err
	}
	for _, key := range credentialKeys {
		if err := v.BindEnv(key); err != nil {
			return types.Config{}, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	cfg := types.DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every field of def as a viper default, keyed the
// same way the config file is.
func setDefaults(v *viper.Viper, def types.Config) error {
	data, err := yaml.Marshal(def)
	if err != nil {
		return fmt.Errorf("encoding default configuration: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("decoding default configuration: %w", err)
	}
	for key, value := range tree {
		v.SetDefault(key, value)
	}
	return nil
}
