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

// Package config holds the service configuration: where the trust-list cache
// lives, where the trust resources are fetched from, and how often they are
// refreshed. Configuration can be built programmatically or loaded from a
// YAML file; missing fields fall back to defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sigstore/image-provenance/pkg/utils"
)

const (
	// DefaultRefreshInterval is how long cached trust resources stay fresh.
	DefaultRefreshInterval = 24 * time.Hour
	// DefaultFetchTimeout bounds a single trust-resource download.
	DefaultFetchTimeout = 30 * time.Second
)

// Config is the service configuration. The zero value is not usable;
// construct via Default or Load.
type Config struct {
	// CacheDir is the directory holding the cached trust resources and the
	// cache metadata file.
	CacheDir string `yaml:"cache_dir"`
	// TrustBaseURL is the base URL the four trust resources are fetched
	// from. Empty disables trust-list caching entirely.
	TrustBaseURL string `yaml:"trust_base_url"`
	// RefreshInterval is the time-to-live of a successfully refreshed cache.
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	// FetchTimeout bounds each individual resource download.
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// Default returns a configuration with all fields set to their defaults.
// The cache directory is placed under the user cache dir, falling back to
// the system temp dir when no user cache dir is available.
func Default() *Config {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return &Config{
		CacheDir:        filepath.Join(base, "image-provenance", "trust"),
		RefreshInterval: DefaultRefreshInterval,
		FetchTimeout:    DefaultFetchTimeout,
	}
}

// Load reads a YAML configuration file and merges it over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %q: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// UnmarshalYAML decodes the configuration, accepting durations in Go
// notation ("30s", "24h"). Fields absent from the document keep their
// current values, so decoding over Default() merges rather than replaces.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		CacheDir        string `yaml:"cache_dir"`
		TrustBaseURL    string `yaml:"trust_base_url"`
		RefreshInterval string `yaml:"refresh_interval"`
		FetchTimeout    string `yaml:"fetch_timeout"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.CacheDir != "" {
		c.CacheDir = raw.CacheDir
	}
	if raw.TrustBaseURL != "" {
		c.TrustBaseURL = raw.TrustBaseURL
	}
	if raw.RefreshInterval != "" {
		d, err := time.ParseDuration(raw.RefreshInterval)
		if err != nil {
			return fmt.Errorf("parsing refresh_interval: %w", err)
		}
		c.RefreshInterval = d
	}
	if raw.FetchTimeout != "" {
		d, err := time.ParseDuration(raw.FetchTimeout)
		if err != nil {
			return fmt.Errorf("parsing fetch_timeout: %w", err)
		}
		c.FetchTimeout = d
	}
	return nil
}

// applyDefaults restores defaults for fields the YAML file zeroed out.
func (c *Config) applyDefaults() {
	d := Default()
	if c.CacheDir == "" {
		c.CacheDir = d.CacheDir
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = d.RefreshInterval
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = d.FetchTimeout
	}
}

// TrustEnabled reports whether trust-list caching is configured.
func (c *Config) TrustEnabled() bool {
	return c.TrustBaseURL != ""
}

// Validate checks the configuration for use by the trust-list cache manager.
// The cache directory itself may not exist yet (it is created on first
// refresh), but its parent must be a directory when present on disk.
func (c *Config) Validate() error {
	if c.CacheDir == "" {
		return fmt.Errorf("cache directory is required")
	}
	if parent := filepath.Dir(c.CacheDir); parent != "." {
		if info, err := os.Stat(parent); err == nil && !info.IsDir() {
			return fmt.Errorf("cache directory parent %q is not a directory", parent)
		}
	}
	if c.TrustBaseURL != "" {
		if err := utils.ValidateBaseURL("trust base URL", c.TrustBaseURL); err != nil {
			return err
		}
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %v", c.RefreshInterval)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %v", c.FetchTimeout)
	}
	return nil
}
