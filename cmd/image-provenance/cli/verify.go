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

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sigstore/image-provenance/cmd/image-provenance/cli/options"
	"github.com/sigstore/image-provenance/pkg/interfaces"
	"github.com/sigstore/image-provenance/pkg/provenance"
	"github.com/sigstore/image-provenance/pkg/trustlist"
	"github.com/sigstore/image-provenance/pkg/utils"
	"github.com/sigstore/image-provenance/pkg/verify"
)

// sidecarEngine reads provenance from a manifest-store JSON file written next
// to the asset by an out-of-process provenance engine. Assets without a
// sidecar file have no provenance data.
type sidecarEngine struct {
	storePath string
}

var _ interfaces.Engine = (*sidecarEngine)(nil)

func (e *sidecarEngine) Read(_ context.Context, asset interfaces.Asset) (*provenance.ManifestStore, error) {
	path := e.storePath
	if path == "" {
		path = asset.Path + ".manifest.json"
	}
	return provenance.LoadStore(path)
}

func (e *sidecarEngine) Sign(context.Context, interfaces.Asset, []byte) (*interfaces.SignedAsset, error) {
	return nil, errors.New("signing requires an embedding provenance engine")
}

// Verify returns the command verifying the provenance of a single image.
func Verify() *cobra.Command {
	o := &options.VerifyFlags{}
	to := &options.TrustFlags{}

	cmd := &cobra.Command{
		Use:   "verify IMAGE_PATH",
		Short: "Verify the provenance manifests of an image.",
		Long: `Verify the provenance manifests of an image.

The manifest store extracted by the provenance engine is read from the
sidecar JSON file next to the image (or from --manifest-store) and reduced
into a validation report, printed as JSON on stdout. When a trust base URL
is configured the cached trust list provides the certificate-trust context;
a stale or unavailable trust list never fails verification.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), ro.Timeout)
			defer cancel()

			imagePath := args[0]
			if err := utils.ValidateFileExists("image", imagePath); err != nil {
				return err
			}

			logger := ro.NewLogger()
			cfg, err := ro.LoadConfig()
			if err != nil {
				return err
			}
			to.Apply(cfg)

			var manager *trustlist.Manager
			if cfg.TrustEnabled() && !o.SkipTrustList {
				manager, err = trustlist.NewManager(cfg, logger)
				if err != nil {
					return err
				}
			}

			mimeType := o.MimeType
			if mimeType == "" {
				mimeType = mime.TypeByExtension(filepath.Ext(imagePath))
			}

			engine := &sidecarEngine{storePath: o.ManifestStore}
			verifier := verify.NewImageVerifier(engine, manager, logger)
			resp, err := verifier.Verify(ctx, interfaces.Asset{
				Path:     imagePath,
				MimeType: mimeType,
			})
			if err != nil {
				return fmt.Errorf("verifying %s: %w", imagePath, err)
			}

			out, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding report: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	options.AddAllFlags(cmd, o, to)
	return cmd
}
