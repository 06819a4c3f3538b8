// Package config provides configuration loading and management for niimgs.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Data locates previously downloaded datasets
	Data struct {
		// CacheDir is the dataset cache root; empty means $HOME/nilearn_data
		CacheDir string `yaml:"cacheDir"`
	} `yaml:"data"`

	// Output parameters
	Output struct {
		// Dir is where figures and extracted images are written
		Dir string `yaml:"dir"`

		// Format is the image format of figures: png or jpg
		Format string `yaml:"format"`

		// Axis is the cut direction of figures: x, y or z
		Axis string `yaml:"axis"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`

	// Plot parameters for heat map figures
	Plot struct {
		// SizeInches is the width and height of each figure
		SizeInches float64 `yaml:"sizeInches"`

		// Colors is the number of palette entries
		Colors int `yaml:"colors"`
	} `yaml:"plot"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Output.Dir = "figures"
	cfg.Output.Format = "png"
	cfg.Output.Axis = "z"
	cfg.Output.Verbose = false

	cfg.Plot.SizeInches = 4
	cfg.Plot.Colors = 64

	return cfg
}

// Validate checks values that have a closed set of choices
func (c *Config) Validate() error {
	switch strings.ToLower(c.Output.Axis) {
	case "x", "y", "z":
	default:
		return fmt.Errorf("invalid output axis %q (must be x, y, or z)", c.Output.Axis)
	}

	switch strings.ToLower(c.Output.Format) {
	case "png", "jpg", "jpeg":
	default:
		return fmt.Errorf("invalid output format %q (must be png or jpg)", c.Output.Format)
	}

	if c.Plot.SizeInches <= 0 {
		return fmt.Errorf("plot size must be positive, got %v", c.Plot.SizeInches)
	}

	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		return cfg, nil
	}

	// Check if config file exists
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

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error in config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
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
