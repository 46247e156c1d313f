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

package options

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sigstore/image-provenance/pkg/config"
)

// TrustFlags contains flags for the trust-list cache. They override the
// corresponding configuration-file fields when set.
type TrustFlags struct {
	// CacheDir overrides the trust-list cache directory.
	CacheDir string
	// BaseURL overrides the base URL the trust resources are fetched from.
	BaseURL string
	// RefreshInterval overrides the cache time-to-live.
	RefreshInterval time.Duration
	// FetchTimeout overrides the per-download timeout.
	FetchTimeout time.Duration
}

var _ FlagAdder = (*TrustFlags)(nil)

// AddFlags adds trust-list cache flags to the cobra command.
func (o *TrustFlags) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.CacheDir, "cache-dir", "",
		"directory holding the cached trust resources")
	_ = cmd.MarkFlagDirname("cache-dir")

	cmd.Flags().StringVar(&o.BaseURL, "trust-base-url", "",
		"base URL the trust resources are fetched from")

	cmd.Flags().DurationVar(&o.RefreshInterval, "refresh-interval", 0,
		"how long cached trust resources stay fresh")

	cmd.Flags().DurationVar(&o.FetchTimeout, "fetch-timeout", 0,
		"timeout for a single trust-resource download")
}

// Apply overlays the flags that were set onto the configuration.
func (o *TrustFlags) Apply(cfg *config.Config) {
	if o.CacheDir != "" {
		cfg.CacheDir = o.CacheDir
	}
	if o.BaseURL != "" {
		cfg.TrustBaseURL = o.BaseURL
	}
	if o.RefreshInterval > 0 {
		cfg.RefreshInterval = o.RefreshInterval
	}
	if o.FetchTimeout > 0 {
		cfg.FetchTimeout = o.FetchTimeout
	}
}
