// Package config handles titi.toml configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents a titi.toml configuration file.
type Config struct {
	Engine  Engine  `toml:"engine"`
	Logging Logging `toml:"logging"`
	Script  Script  `toml:"script"`

	// Dir is the directory containing the titi.toml file (set at load time).
	Dir string `toml:"-"`
}

// Engine configures the execution context.
type Engine struct {
	// GCThreshold is the live-object count that triggers automatic
	// collection after an evaluation. Zero disables automatic collection.
	GCThreshold int `toml:"gc-threshold"`

	// LivenessSweep controls whether the liveness registry sweep is
	// installed as a collection pre-cycle hook.
	LivenessSweep bool `toml:"liveness-sweep"`
}

// Logging configures log output.
type Logging struct {
	Verbosity int `toml:"verbosity"`
}

// Script configures the default script entry.
type Script struct {
	Entry string `toml:"entry"`
}

// Default returns the configuration used when no titi.toml is present.
func Default() *Config {
	return &Config{
		Engine: Engine{
			GCThreshold:   4096,
			LivenessSweep: true,
		},
	}
}

// Load parses a titi.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, "titi.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	c.Dir = dir

	if c.Engine.GCThreshold < 0 {
		return nil, fmt.Errorf("invalid gc-threshold %d in %s", c.Engine.GCThreshold, path)
	}
	return c, nil
}

// LoadOrDefault loads titi.toml from dir, falling back to defaults when
// the file does not exist.
func LoadOrDefault(dir string) (*Config, error) {
	c, err := Load(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	return c, nil
}
