package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	hjson "github.com/hjson/hjson-go/v4"
	"gopkg.in/yaml.v2"

	"property_feasibility/pkg/core/assumption"
)

// Environment overrides, applied after the file is parsed.
const (
	EnvTrials  = "FEAS_TRIALS"
	EnvSeed    = "FEAS_SEED"
	EnvWorkers = "FEAS_WORKERS"
)

// LoadConfig reads, parses, normalizes and validates a config file. The
// format follows the extension: .yaml/.yml or .hjson/.json (HJSON is a
// superset of JSON, so plain JSON parses too).
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := parse(data, strings.ToLower(filepath.Ext(path)))
	if err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parse(data []byte, ext string) (*Config, error) {
	var cfg Config
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse yaml config: %w", err)
		}
	case ".hjson", ".json":
		if err := hjson.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse hjson config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q (want .yaml, .yml, .hjson or .json)", ext)
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvTrials); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &assumption.ValidationError{Field: EnvTrials, Reason: fmt.Sprintf("not an integer: %q", v)}
		}
		ensureMonteCarlo(cfg).Trials = n
	}
	if v := os.Getenv(EnvSeed); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return &assumption.ValidationError{Field: EnvSeed, Reason: fmt.Sprintf("not an unsigned integer: %q", v)}
		}
		ensureMonteCarlo(cfg).Seed = &n
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &assumption.ValidationError{Field: EnvWorkers, Reason: fmt.Sprintf("not an integer: %q", v)}
		}
		ensureMonteCarlo(cfg).Workers = n
	}
	return nil
}

func ensureMonteCarlo(cfg *Config) *MonteCarloConfig {
	if cfg.MonteCarlo == nil {
		cfg.MonteCarlo = &MonteCarloConfig{}
	}
	return cfg.MonteCarlo
}
