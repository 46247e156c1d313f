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
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/sigstore/image-provenance/cmd/image-provenance/cli/options"
	"github.com/sigstore/image-provenance/pkg/trustlist"
)

var (
	statusOK   = color.New(color.FgGreen).SprintfFunc()
	statusWarn = color.New(color.FgYellow).SprintfFunc()
)

// Trust returns the parent command for trust-list cache management.
func Trust() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trust",
		Short: "Manage the trust-list cache.",
	}
	cmd.AddCommand(trustStatus())
	cmd.AddCommand(trustRefresh())
	cmd.AddCommand(trustShow())
	return cmd
}

// trustManager builds a manager from the configuration and the flag
// overrides. Errors out when no trust base URL is configured anywhere.
func trustManager(to *options.TrustFlags) (*trustlist.Manager, error) {
	cfg, err := ro.LoadConfig()
	if err != nil {
		return nil, err
	}
	to.Apply(cfg)
	if !cfg.TrustEnabled() {
		return nil, fmt.Errorf("no trust base URL configured; set --trust-base-url or trust_base_url in the config file")
	}
	return trustlist.NewManager(cfg, ro.NewLogger())
}

func trustStatus() *cobra.Command {
	to := &options.TrustFlags{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of the cached trust resources.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager, err := trustManager(to)
			if err != nil {
				return err
			}
			st, err := manager.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if st.Available {
				fmt.Fprintln(out, statusOK("trust list: available (last updated %s, next refresh %s)",
					st.LastUpdated.Format(time.RFC3339), st.NextRefresh.Format(time.RFC3339)))
			} else {
				fmt.Fprintln(out, statusWarn("trust list: never populated"))
			}

			table := tablewriter.NewTable(out)
			table.Header([]string{"RESOURCE", "FILE", "SIZE", "UPDATED", "URL"})
			for _, key := range trustlist.ResourceKeys() {
				row := []string{key, trustlist.ResourceFileName(key), "-", "never", "-"}
				if fs, ok := st.Files[key]; ok {
					row[2] = fmt.Sprintf("%d", fs.Size)
					row[3] = fs.LastUpdated.Format(time.RFC3339)
					row[4] = fs.URL
				}
				if err := table.Append(row); err != nil {
					return fmt.Errorf("building status table: %w", err)
				}
			}
			return table.Render()
		},
	}

	to.AddFlags(cmd)
	return cmd
}

func trustRefresh() *cobra.Command {
	to := &options.TrustFlags{}

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch the trust resources now, regardless of cache age.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), ro.Timeout)
			defer cancel()

			manager, err := trustManager(to)
			if err != nil {
				return err
			}
			ok, err := manager.Refresh(ctx)
			if err != nil {
				return fmt.Errorf("refreshing trust list: %w", err)
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), statusWarn("refresh incomplete, serving previously cached resources"))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), statusOK("trust list refreshed"))
			return nil
		},
	}

	to.AddFlags(cmd)
	return cmd
}

func trustShow() *cobra.Command {
	to := &options.TrustFlags{}

	cmd := &cobra.Command{
		Use:       "show RESOURCE",
		Short:     "Print a cached trust resource (anchors, allowed, hashes, config).",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"anchors", "allowed", "hashes", "config"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), ro.Timeout)
			defer cancel()

			manager, err := trustManager(to)
			if err != nil {
				return err
			}
			contents, err := manager.Contents(ctx)
			if err != nil {
				return fmt.Errorf("reading trust-list cache: %w", err)
			}
			if contents == nil {
				return fmt.Errorf("trust list never populated; run `image-provenance trust refresh` first")
			}

			var blob string
			switch args[0] {
			case "anchors":
				blob = contents.TrustAnchors
			case "allowed":
				blob = contents.AllowedList
			case "hashes":
				blob = contents.AllowedHashes
			case "config":
				blob = contents.TrustConfig
			default:
				return fmt.Errorf("unknown resource %q, want anchors, allowed, hashes or config", args[0])
			}
			fmt.Fprint(cmd.OutOrStdout(), blob)
			return nil
		},
	}

	to.AddFlags(cmd)
	return cmd
}
