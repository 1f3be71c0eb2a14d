// Package config loads CLI and server configuration from YAML
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"matrixforge/hardware/matrix"
)

// Config is the process configuration. Flags and environment variables
// override file values at the CLI layer.
type Config struct {
	Server struct {
		Port        int      `yaml:"port"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`

	Database struct {
		// Postgres DSN for the optional pricing catalog store. Empty uses
		// the built-in catalogs.
		DSN string `yaml:"dsn"`
	} `yaml:"database"`

	Limits struct {
		MaxMatrixDimension int `yaml:"max_matrix_dimension"`
	} `yaml:"limits"`
}

// Default returns the built-in configuration
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Server.CORSOrigins = []string{"*"}
	cfg.Limits.MaxMatrixDimension = matrix.DefaultMaxDimension
	return cfg
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Limits.MaxMatrixDimension <= 0 {
		cfg.Limits.MaxMatrixDimension = matrix.DefaultMaxDimension
	}
	return cfg, nil
}
