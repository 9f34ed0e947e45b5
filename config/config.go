// Package config loads the formflight configuration from a YAML or JSON file
// with environment overrides.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/formflight/core/assignment"
	"github.com/kilianp07/formflight/core/metrics"
	"github.com/kilianp07/formflight/core/output"
	"github.com/kilianp07/formflight/core/scenario"
	"github.com/kilianp07/formflight/core/sim"
	"github.com/kilianp07/formflight/infra/logger"
	// registers the prometheus and influx sink types
	_ "github.com/kilianp07/formflight/infra/metrics"
	"github.com/kilianp07/formflight/infra/mqtt"
)

// EnvPrefix prefixes environment overrides. FF_SIMULATION__STEPS=10 sets
// simulation.steps.
const EnvPrefix = "FF_"

type Config struct {
	Simulation sim.Config                `json:"simulation"`
	Scenario   scenario.TrackingScenario `json:"scenario"`
	Assignment assignment.Config         `json:"assignment"`
	Metrics    metrics.Config            `json:"metrics"`
	Logging    logger.Config             `json:"logging"`
	Output     output.Config             `json:"output"`
	MQTT       mqtt.Config               `json:"mqtt"`
	API        APIConfig                 `json:"api"`
}

// SetDefaults fills every section's zero values.
func (c *Config) SetDefaults() {
	c.Simulation.SetDefaults()
	c.Scenario.SetDefaults()
	c.Assignment.SetDefaults()
	c.Logging.SetDefaults()
	c.Output.SetDefaults()
	if c.MQTT.Enabled {
		c.MQTT.SetDefaults()
	}
}

// Validate checks every section and reports all failures.
func (c Config) Validate() error {
	var errs []error
	add := func(section string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", section, err))
		}
	}
	add("simulation", c.Simulation.Validate())
	add("scenario", c.Scenario.Validate())
	add("assignment", c.Assignment.Validate())
	add("metrics", c.Metrics.Validate())
	add("logging", c.Logging.Validate())
	add("output", c.Output.Validate())
	add("mqtt", c.MQTT.Validate())
	add("api", c.API.Validate())
	return errors.Join(errs...)
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// Load reads path, applies environment overrides and defaults, then
// validates the result. An empty path loads only the environment.
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
	var cfg Config
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
