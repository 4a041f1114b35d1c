// Package config handles domdiff run configuration from YAML files and the
// save/load of derived calibration settings. The engine itself performs no
// I/O; these helpers exist for the callers that drive it.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RunConfig is the top-level configuration for a comparison or calibration
// run.
type RunConfig struct {
	// Strictness scales derived tolerances: low | medium | high.
	Strictness string `yaml:"strictness"`

	// ToleranceVariant selects the percentage-tolerance formula:
	// linear | banded.
	ToleranceVariant string `yaml:"tolerance_variant"`

	// Workers bounds concurrent pair calibrations.
	Workers int `yaml:"workers"`

	// MoveEpsilon is the differ's move threshold in pixels. Zero means any
	// nonzero position delta counts as a move.
	MoveEpsilon float64 `yaml:"move_epsilon"`

	// ObservabilityDB is the path of the run-event database. Empty disables
	// event recording.
	ObservabilityDB string `yaml:"observability_db"`
}

// LoadFile reads a YAML run configuration file.
func LoadFile(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *RunConfig) applyDefaults() {
	if c.Strictness == "" {
		c.Strictness = "medium"
	}
	if c.ToleranceVariant == "" {
		c.ToleranceVariant = "linear"
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.MoveEpsilon < 0 {
		c.MoveEpsilon = 0
	}
}

func (c *RunConfig) validate() error {
	switch c.Strictness {
	case "low", "medium", "high":
	default:
		return fmt.Errorf("config: unknown strictness %q", c.Strictness)
	}
	switch c.ToleranceVariant {
	case "linear", "banded":
	default:
		return fmt.Errorf("config: unknown tolerance variant %q", c.ToleranceVariant)
	}
	return nil
}
