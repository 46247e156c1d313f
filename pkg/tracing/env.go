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

//go:build !otel

// Default no-op InitFromEnv and Shutdown. Building with -tags=otel swaps in
// env_otel.go, which wires up the OTLP exporter.

package tracing

import "context"

// InitFromEnv initializes tracing from environment variables. Without the
// "otel" build tag this does nothing.
func InitFromEnv() error {
	return nil
}

// Shutdown flushes and stops the tracer provider. Without the "otel" build
// tag this does nothing.
func Shutdown(context.Context) error {
	return nil
}
