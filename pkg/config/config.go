// Package config provides configuration loading and management for labelfill.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"labelfill/pkg/editor"
	"labelfill/pkg/labeling"
	"labelfill/pkg/raster"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Fill parameters
	Fill struct {
		// Rounding is the tie-break used when turning samples into voxels:
		// "half-away-from-zero" or "half-even"
		Rounding string `yaml:"rounding"`

		// Bounds decides what happens to voxels outside a bounded volume:
		// "clip" or "reject"
		Bounds string `yaml:"bounds"`

		// Step is the in-plane sampling distance in voxel units
		Step float64 `yaml:"step"`
	} `yaml:"fill"`

	// Prompt annotation parameters
	Prompts struct {
		// Inset shrinks prompt boxes in the stand-in responder
		Inset float64 `yaml:"inset"`
	} `yaml:"prompts"`

	// Output parameters
	Output struct {
		// Verbose enables debug logging
		Verbose bool `yaml:"verbose"`

		// Slices enables exporting per-label mask slices
		Slices bool `yaml:"slices"`

		// Axes lists the axes to export slices along
		Axes []string `yaml:"axes"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Fill.Rounding = labeling.RoundHalfAwayFromZero.String()
	cfg.Fill.Bounds = labeling.ClipToBounds.String()
	cfg.Fill.Step = 1.0

	cfg.Prompts.Inset = 1.0

	cfg.Output.Verbose = false
	cfg.Output.Slices = true
	cfg.Output.Axes = []string{"z"}

	return cfg
}

// Validate checks that every value can be used
func (c *Config) Validate() error {
	if _, err := c.EditorParams(); err != nil {
		return err
	}
	if c.Prompts.Inset < 0 {
		return errors.Errorf("prompts.inset must be non-negative, got %g", c.Prompts.Inset)
	}
	for _, axis := range c.Output.Axes {
		switch axis {
		case "x", "y", "z", "X", "Y", "Z":
		default:
			return errors.Errorf("invalid output axis %q (must be x, y, or z)", axis)
		}
	}
	return nil
}

// EditorParams converts the fill section into editor parameters
func (c *Config) EditorParams() (editor.Params, error) {
	rounding, err := labeling.ParseRoundingMode(c.Fill.Rounding)
	if err != nil {
		return editor.Params{}, errors.Wrap(err, "fill.rounding")
	}
	bounds, err := labeling.ParseBoundsPolicy(c.Fill.Bounds)
	if err != nil {
		return editor.Params{}, errors.Wrap(err, "fill.bounds")
	}
	if c.Fill.Step < 0 {
		return editor.Params{}, errors.Errorf("fill.step must be non-negative, got %g", c.Fill.Step)
	}
	return editor.Params{
		Rounding: rounding,
		Bounds:   bounds,
		Raster:   raster.Options{Step: c.Fill.Step},
	}, nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading config file %s", configPath)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "error parsing config file %s", configPath)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config file %s", configPath)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "error creating config directory")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "error marshaling config")
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.Wrap(err, "error writing config file")
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
