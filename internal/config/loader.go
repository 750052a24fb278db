package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file. ${VAR} references are expanded from
// the environment before parsing, and unknown keys are rejected so a
// typoed setting fails loudly instead of silently falling back to a
// default.
func Load(path string) (*EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return parse([]byte(os.ExpandEnv(string(data))))
}

// LoadWithDefaults loads config and applies default values.
func LoadWithDefaults(path string) (*EngineConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadAndValidate loads config, applies defaults, and validates.
func LoadAndValidate(path string) (*EngineConfig, error) {
	cfg, err := LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func parse(data []byte) (*EngineConfig, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg EngineConfig
	if err := dec.Decode(&cfg); err != nil {
		// An empty file is a valid config; everything defaults.
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	return &cfg, nil
}
