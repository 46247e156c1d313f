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

package verify

import (
	"context"

	"github.com/sigstore/image-provenance/pkg/interfaces"
	"github.com/sigstore/image-provenance/pkg/logging"
	"github.com/sigstore/image-provenance/pkg/tracing"
	"github.com/sigstore/image-provenance/pkg/trustlist"
)

// ImageVerifier orchestrates a verify request: it reads the manifest store
// from the provenance engine, derives the certificate-trust verdict and
// reduces everything into the caller-facing report.
type ImageVerifier struct {
	engine     interfaces.Engine
	trust      *trustlist.Manager
	extractor  *TrustExtractor
	aggregator *Aggregator
	logger     logging.Logger
}

// NewImageVerifier creates a verifier around the given engine. trust may be
// nil when trust-list caching is disabled; verification then proceeds
// without trust-list context.
func NewImageVerifier(engine interfaces.Engine, trust *trustlist.Manager, logger logging.Logger) *ImageVerifier {
	return &ImageVerifier{
		engine:     engine,
		trust:      trust,
		extractor:  NewTrustExtractor(),
		aggregator: NewAggregator(),
		logger:     logging.EnsureLogger(logger),
	}
}

// Verify runs the full verification flow for one asset. An asset without
// provenance data, or one the engine cannot read, yields a Response with
// HasC2pa set to false rather than an error: engine-internal failures on
// unreadable inputs are logged, never surfaced raw to the caller.
func (v *ImageVerifier) Verify(ctx context.Context, asset interfaces.Asset) (*Response, error) {
	var response *Response
	err := tracing.Run(ctx, "verify.image", map[string]interface{}{
		"asset_path": asset.Path,
		"mime_type":  asset.MimeType,
	}, func(ctx context.Context) error {
		response = v.run(ctx, asset)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

func (v *ImageVerifier) run(ctx context.Context, asset interfaces.Asset) *Response {
	v.ensureTrustContext(ctx)

	store, err := v.engine.Read(ctx, asset)
	if err != nil {
		v.logger.Info("provenance engine could not read %s: %v", asset.Path, err)
		return &Response{HasC2pa: false}
	}
	if store == nil {
		v.logger.Debug("no provenance data in %s", asset.Path)
		return &Response{HasC2pa: false}
	}

	verdict := v.extractor.Extract(store)
	report := v.aggregator.Aggregate(store, verdict)
	return &Response{HasC2pa: true, Report: report}
}

// ensureTrustContext refreshes the trust-list cache best-effort. A missing
// or stale cache never blocks verification; the result is then "trust
// unknown", not "invalid".
func (v *ImageVerifier) ensureTrustContext(ctx context.Context) {
	if v.trust == nil {
		return
	}
	contents, err := v.trust.Contents(ctx)
	if err != nil {
		v.logger.Warn("trust-list cache unavailable: %v", err)
		return
	}
	if contents == nil {
		v.logger.Warn("trust list never populated, verifying without trust-list context")
	}
}
