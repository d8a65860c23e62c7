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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.LegacyImage == cfg.ModernImage {
		t.Error("default images must differ")
	}
	if cfg.MaxRepairAttempts != 3 {
		t.Errorf("max repair attempts = %d, want 3", cfg.MaxRepairAttempts)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero attempts", func(c *Config) { c.MaxRepairAttempts = -1 }},
		{"zero workers", func(c *Config) { c.Workers = -1 }},
		{"negative timeout", func(c *Config) { c.ExecTimeout = Duration(-time.Second) }},
		{"same images", func(c *Config) { c.ModernImage = c.LegacyImage }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evua.yaml")
	body := "legacy_image: python:2.6\nworkers: 8\nexec_timeout: 30s\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LegacyImage != "python:2.6" {
		t.Errorf("legacy image = %q", cfg.LegacyImage)
	}
	if cfg.Workers != 8 {
		t.Errorf("workers = %d, want 8", cfg.Workers)
	}
	if cfg.ExecTimeout.Std() != 30*time.Second {
		t.Errorf("timeout = %s, want 30s", cfg.ExecTimeout.Std())
	}
	if cfg.ModernImage != "python:3.11" {
		t.Errorf("modern image default missing: %q", cfg.ModernImage)
	}
	if cfg.MaxRepairAttempts != 3 {
		t.Errorf("attempts default missing: %d", cfg.MaxRepairAttempts)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evua.yaml")
	body := "legacy_image: same\nmodern_image: same\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for identical images")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
