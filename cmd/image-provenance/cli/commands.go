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

// Package cli wires the image-provenance commands together.
package cli

import (
	"github.com/spf13/cobra"
	"sigs.k8s.io/release-utils/version"

	"github.com/sigstore/image-provenance/cmd/image-provenance/cli/options"
)

var (
	ro = &options.RootOptions{}
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "image-provenance",
		Short:             "Image provenance verification and trust-list management.",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}
	ro.AddFlags(cmd)

	// Add sub-commands.
	cmd.AddCommand(Verify())
	cmd.AddCommand(Trust())
	cmd.AddCommand(version.WithFont("starwars"))
	return cmd
}
