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

// Package options defines the command-line options and flags for the
// image-provenance CLI. It provides option structures for the root command,
// verification, and trust-list management.
package options

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sigstore/image-provenance/pkg/config"
	"github.com/sigstore/image-provenance/pkg/logging"
)

// DefaultTimeout specifies the default timeout duration for commands.
const DefaultTimeout = 3 * time.Minute

// RootOptions defines flags and options for the root CLI command.
// These options are available globally across all subcommands.
type RootOptions struct {
	// ConfigFile is an optional YAML configuration file.
	ConfigFile string
	// LogLevel sets the minimum log level (debug, info, warn, error, silent).
	LogLevel string
	// LogFormat sets the log output format (text, json).
	LogFormat string
	// Timeout sets the maximum duration for command execution.
	Timeout time.Duration
}

var _ FlagAdder = (*RootOptions)(nil)

// AddFlags adds root-level flags to the cobra command.
func (o *RootOptions) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&o.ConfigFile, "config", "",
		"path to a YAML configuration file")
	_ = cmd.MarkFlagFilename("config", "yaml", "yml")

	cmd.PersistentFlags().StringVar(&o.LogLevel, "log-level", "info",
		"set the minimum log level (debug, info, warn, error, silent)")

	cmd.PersistentFlags().StringVar(&o.LogFormat, "log-format", "text",
		"set the log output format (text, json)")

	cmd.PersistentFlags().DurationVarP(&o.Timeout, "timeout", "t", DefaultTimeout,
		"timeout for commands")
}

// NewLogger creates a new logger based on the root options.
func (o *RootOptions) NewLogger() logging.Logger {
	return logging.NewLogger(logging.LoggerOptions{
		Level:  logging.ParseLogLevel(o.LogLevel),
		Format: logging.ParseLogFormat(o.LogFormat),
	})
}

// LoadConfig builds the service configuration: the config file when one was
// given, defaults otherwise.
func (o *RootOptions) LoadConfig() (*config.Config, error) {
	if o.ConfigFile != "" {
		return config.Load(o.ConfigFile)
	}
	return config.Default(), nil
}
