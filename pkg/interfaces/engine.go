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

// Package interfaces defines the collaborator interfaces the verification
// core depends on. The provenance engine is the external component that
// performs all cryptographic manifest parsing and signing; this service
// only consumes its output.
package interfaces

import (
	"context"

	"github.com/sigstore/image-provenance/pkg/provenance"
)

// Asset is a content reference handed to the provenance engine.
type Asset struct {
	// Path is the local filesystem path of the asset.
	Path string
	// MimeType is the declared media type, e.g. "image/jpeg".
	MimeType string
}

// SignedAsset is the engine's output after embedding a signed manifest.
type SignedAsset struct {
	// Path is where the signed asset was written.
	Path string
	// Size is the byte size of the signed asset.
	Size int64
}

// Engine is the content-provenance engine collaborator.
//
// Implementations wrap an external manifest toolchain. Read returns nil with
// a nil error when the asset carries no provenance data at all; errors are
// reserved for assets the engine could not process.
type Engine interface {
	// Read extracts the manifest store embedded in an asset.
	Read(ctx context.Context, asset Asset) (*provenance.ManifestStore, error)

	// Sign embeds a new manifest into an asset and signs it. The manifest
	// bytes are an engine-specific manifest definition and are opaque to
	// this service.
	Sign(ctx context.Context, asset Asset, manifest []byte) (*SignedAsset, error)
}
