// Package config loads and validates model configuration from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config describes a spherical decoder.
//
// Degrees and Shells drive the pipeline depth together: entry k
// configures convolution stage k, so both lists must have the same
// length and at least two entries (one S2 stage plus the output side of
// its nonlinearity).
type Config struct {
	NTI int `yaml:"n_ti"`
	NTE int `yaml:"n_te"`

	// Degrees holds the maximum spherical-harmonic degree per stage.
	Degrees []int `yaml:"degrees"`
	// Shells holds the channel count per stage.
	Shells []int `yaml:"shells"`

	HeadInputSize  int `yaml:"head_input_size"`
	HeadOutputSize int `yaml:"head_output_size"`

	LearningRate float64 `yaml:"learning_rate"`
}

// Default returns a config with the standard defaults filled in.
func Default() *Config {
	return &Config{
		NTI:          1,
		NTE:          1,
		LearningRate: 1e-3,
	}
}

// Load reads and validates a YAML config file. Missing optional fields
// take their defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks internal consistency.
func (c *Config) Validate() error {
	if c.NTI < 1 || c.NTE < 1 {
		return fmt.Errorf("n_ti and n_te must be positive, got %d and %d", c.NTI, c.NTE)
	}
	if len(c.Degrees) != len(c.Shells) {
		return fmt.Errorf("degrees (%d entries) and shells (%d entries) must have equal length",
			len(c.Degrees), len(c.Shells))
	}
	if len(c.Degrees) < 2 {
		return fmt.Errorf("need at least 2 degree/shell entries, got %d", len(c.Degrees))
	}
	for i, l := range c.Degrees {
		if l < 0 || l%2 != 0 {
			return fmt.Errorf("degrees[%d] must be even and non-negative, got %d", i, l)
		}
	}
	for i, s := range c.Shells {
		if s < 1 {
			return fmt.Errorf("shells[%d] must be positive, got %d", i, s)
		}
	}
	if c.HeadInputSize < 1 || c.HeadOutputSize < 1 {
		return fmt.Errorf("head sizes must be positive, got %d and %d", c.HeadInputSize, c.HeadOutputSize)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive, got %g", c.LearningRate)
	}
	return nil
}

// Stages returns the number of convolution stages the config describes:
// one S2 stage plus Stages()-1 SO3 stages.
func (c *Config) Stages() int {
	return len(c.Degrees) - 1
}
