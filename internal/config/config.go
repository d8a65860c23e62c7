// Copyright 2025 the EVUA Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config holds the migration run configuration. A Config is
// loaded once per session and recorded into the session metadata so
// every run stays reproducible from its audit trail.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "15s" as well as bare nanosecond integers.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err == nil {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", raw, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var ns int64
	if err := value.Decode(&ns); err != nil {
		return fmt.Errorf("invalid duration node %q", value.Value)
	}
	*d = Duration(ns)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full configuration for one pipeline run.
type Config struct {
	// SessionsDir is the root under which session directories are created.
	SessionsDir string `yaml:"sessions_dir"`

	// LegacyImage and ModernImage are the two runtime environments the
	// verification engine executes each unit under.
	LegacyImage string `yaml:"legacy_image"`
	ModernImage string `yaml:"modern_image"`

	// LegacyCommand and ModernCommand are the interpreter invocations used
	// inside (or, on local fallback, instead of) the images.
	LegacyCommand string `yaml:"legacy_command"`
	ModernCommand string `yaml:"modern_command"`

	// MaxRepairAttempts bounds the repair loop.
	MaxRepairAttempts int `yaml:"max_repair_attempts"`

	// ExecTimeout bounds a single harness execution.
	ExecTimeout Duration `yaml:"exec_timeout"`

	// Workers bounds the verification worker pool.
	Workers int `yaml:"workers"`

	// Excludes are directory names skipped during source discovery.
	Excludes []string `yaml:"excludes"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.SessionsDir == "" {
		cfg.SessionsDir = "sessions"
	}
	if cfg.LegacyImage == "" {
		cfg.LegacyImage = "python:2.7"
	}
	if cfg.ModernImage == "" {
		cfg.ModernImage = "python:3.11"
	}
	if cfg.LegacyCommand == "" {
		cfg.LegacyCommand = "python"
	}
	if cfg.ModernCommand == "" {
		cfg.ModernCommand = "python3"
	}
	if cfg.MaxRepairAttempts == 0 {
		cfg.MaxRepairAttempts = 3
	}
	if cfg.ExecTimeout == 0 {
		cfg.ExecTimeout = Duration(15 * time.Second)
	}
	if cfg.Workers == 0 {
		cfg.Workers = 4
	}
	if cfg.Excludes == nil {
		cfg.Excludes = []string{".git", "__pycache__", ".venv", "venv", ".pytest_cache", "node_modules"}
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.MaxRepairAttempts < 1 {
		return fmt.Errorf("max_repair_attempts must be >= 1, got %d", c.MaxRepairAttempts)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if c.ExecTimeout <= 0 {
		return fmt.Errorf("exec_timeout must be positive, got %s", c.ExecTimeout.Std())
	}
	if c.LegacyImage == c.ModernImage {
		return fmt.Errorf("legacy_image and modern_image must differ, both are %q", c.LegacyImage)
	}
	return nil
}
