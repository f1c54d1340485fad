// Package config loads the cmapd configuration from a YAML or JSON file with
// CMAPD_ environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/cmapd/core/journal"
	"github.com/kilianp07/cmapd/core/metrics"
	"github.com/kilianp07/cmapd/infra/mqtt"
)

// EnvPrefix prefixes environment overrides. Nested keys are separated by a
// double underscore: CMAPD_SEARCH__CAPACITY=2 sets search.capacity.
const EnvPrefix = "CMAPD_"

type Config struct {
	Instance InstanceConfig `json:"instance"`
	Search   SearchConfig   `json:"search"`
	Solver   SolverConfig   `json:"solver"`
	Output   OutputConfig   `json:"output"`
	Journal  journal.Config `json:"journal"`
	Metrics  metrics.Config `json:"metrics"`
	MQTT     mqtt.Config    `json:"mqtt"`
	Sentry   SentryConfig   `json:"sentry"`
}

// Default returns the configuration used when no file sets a value.
func Default() Config {
	cfg := Config{Search: SearchConfig{Capacity: DefaultCapacity}}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills every unset section value.
func (c *Config) SetDefaults() {
	c.Search.SetDefaults()
	c.Solver.SetDefaults()
	c.Output.SetDefaults()
	c.Journal.SetDefaults()
	c.MQTT.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"search", c.Search.Validate},
		{"solver", c.Solver.Validate},
		{"output", c.Output.Validate},
		{"journal", c.Journal.Validate},
		{"mqtt", c.MQTT.Validate},
	}
	for _, ch := range checks {
		if err := ch.fn(); err != nil {
			return fmt.Errorf("%s: %w", ch.name, err)
		}
	}
	return nil
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}
	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}
