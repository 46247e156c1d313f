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
	"github.com/spf13/cobra"
)

// VerifyFlags contains flags for the verify command.
type VerifyFlags struct {
	// ManifestStore is the path of the manifest-store JSON produced by the
	// provenance engine for the image. Defaults to <image>.manifest.json.
	ManifestStore string
	// MimeType is the MIME type of the image, passed through to the engine.
	MimeType string
	// SkipTrustList disables the trust-list cache for this verification.
	SkipTrustList bool
}

var _ FlagAdder = (*VerifyFlags)(nil)

// AddFlags adds verification flags to the cobra command.
func (o *VerifyFlags) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.ManifestStore, "manifest-store", "",
		"path of the manifest-store JSON for the image. Defaults to <image>.manifest.json")
	_ = cmd.MarkFlagFilename("manifest-store", "json")

	cmd.Flags().StringVar(&o.MimeType, "mime-type", "",
		"MIME type of the image, detected from the extension when empty")

	cmd.Flags().BoolVar(&o.SkipTrustList, "skip-trust-list", false,
		"verify without refreshing or consulting the trust-list cache")
}
