// Package config provides configuration loading and management for mriregdata.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Sampling modes for training pairs
const (
	ModeRandom = "random"
	ModeEpoch  = "epoch"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Data describes the training collection
	Data struct {
		// Pattern is a glob matching the training volumes
		Pattern string `yaml:"pattern"`

		// Norm min-max normalizes every image after loading
		Norm bool `yaml:"norm"`

		// Batched loads volumes with both channel and batch axes
		Batched bool `yaml:"batched"`
	} `yaml:"data"`

	// Sampling controls how training pairs are drawn
	Sampling struct {
		// Mode is "random" (fixed iteration count) or "epoch" (all ordered pairs)
		Mode string `yaml:"mode"`

		// Iterations is the length of a random-pair dataset
		Iterations int `yaml:"iterations"`

		// Seed makes random draws and epoch shuffles reproducible
		Seed int64 `yaml:"seed"`

		// Shuffle permutes the epoch pair order with Seed
		Shuffle bool `yaml:"shuffle"`
	} `yaml:"sampling"`

	// Prediction describes the inference collection
	Prediction struct {
		Fixed              string `yaml:"fixed"`
		FixedLabel         string `yaml:"fixedLabel"`
		MovingPattern      string `yaml:"movingPattern"`
		MovingLabelPattern string `yaml:"movingLabelPattern"`
	} `yaml:"prediction"`

	// Grid parameters for sampling grid generation
	Grid struct {
		// Shape is the (X, Y, Z) volume size
		Shape []int `yaml:"shape"`

		// Unit selects the normalized [-1, 1] grid instead of voxel indices
		Unit bool `yaml:"unit"`
	} `yaml:"grid"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many loads run in parallel
		NumCores int `yaml:"numCores"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// Dir receives generated grids, reports and previews
		Dir string `yaml:"dir"`

		// SaveIntermediaryResults writes every processed volume to Dir
		SaveIntermediaryResults bool `yaml:"saveIntermediaryResults"`

		// Verbose enables debug logging
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Data.Pattern = "data/*.nii"
	cfg.Data.Norm = false

	cfg.Sampling.Mode = ModeRandom
	cfg.Sampling.Iterations = 160001
	cfg.Sampling.Seed = 1

	cfg.Grid.Shape = []int{160, 192, 144}

	cfg.Processing.NumCores = runtime.NumCPU()

	cfg.Output.Dir = "output"
	cfg.Output.Verbose = false

	return cfg
}

// Validate reports the first inconsistent setting
func (c *Config) Validate() error {
	switch c.Sampling.Mode {
	case ModeRandom, ModeEpoch:
	default:
		return fmt.Errorf("unknown sampling mode %q (must be %s or %s)", c.Sampling.Mode, ModeRandom, ModeEpoch)
	}
	if c.Sampling.Iterations < 0 {
		return fmt.Errorf("iterations must be non-negative, got %d", c.Sampling.Iterations)
	}
	if len(c.Grid.Shape) != 3 {
		return fmt.Errorf("grid shape must have 3 dimensions, got %v", c.Grid.Shape)
	}
	for _, d := range c.Grid.Shape {
		if d <= 0 {
			return fmt.Errorf("grid shape must be positive, got %v", c.Grid.Shape)
		}
	}
	if c.Processing.NumCores < 1 {
		return fmt.Errorf("numCores must be at least 1, got %d", c.Processing.NumCores)
	}
	return nil
}

// GridShape returns Grid.Shape as a fixed-size array. Call Validate first.
func (c *Config) GridShape() [3]int {
	var shape [3]int
	copy(shape[:], c.Grid.Shape)
	return shape
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
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
