// Copyright 2025 The Sigstore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
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

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.CacheDir == "" {
		t.Error("default cache dir is empty")
	}
	if cfg.RefreshInterval != DefaultRefreshInterval {
		t.Errorf("refresh interval = %v, want %v", cfg.RefreshInterval, DefaultRefreshInterval)
	}
	if cfg.FetchTimeout != DefaultFetchTimeout {
		t.Errorf("fetch timeout = %v, want %v", cfg.FetchTimeout, DefaultFetchTimeout)
	}
	if cfg.TrustEnabled() {
		t.Error("trust should be disabled without a base URL")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
cache_dir: /var/cache/image-provenance
trust_base_url: https://trust.example.com/lists
refresh_interval: 1h
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CacheDir != "/var/cache/image-provenance" {
		t.Errorf("cache dir = %q", cfg.CacheDir)
	}
	if cfg.TrustBaseURL != "https://trust.example.com/lists" {
		t.Errorf("trust base URL = %q", cfg.TrustBaseURL)
	}
	if cfg.RefreshInterval != time.Hour {
		t.Errorf("refresh interval = %v, want 1h", cfg.RefreshInterval)
	}
	// Unset fields keep their defaults.
	if cfg.FetchTimeout != DefaultFetchTimeout {
		t.Errorf("fetch timeout = %v, want default %v", cfg.FetchTimeout, DefaultFetchTimeout)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() on missing file should fail")
	}
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("cache_dir: [not a string"), 0600); err != nil {
		t.Fatalf("writing config fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() on malformed YAML should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults with URL", func(c *Config) { c.TrustBaseURL = "https://trust.example.com" }, false},
		{"defaults without URL", func(c *Config) {}, false},
		{"empty cache dir", func(c *Config) { c.CacheDir = "" }, true},
		{"bad URL", func(c *Config) { c.TrustBaseURL = "not-a-url" }, true},
		{"zero interval", func(c *Config) { c.RefreshInterval = 0 }, true},
		{"negative timeout", func(c *Config) { c.FetchTimeout = -time.Second }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
