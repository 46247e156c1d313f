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

// Package provenance defines the manifest-store data model produced by the
// content-provenance engine. The engine performs all cryptographic parsing
// and signing; the types here only describe its output so the rest of the
// service can classify and summarize it. All fields except the top-level
// store reference are optional and default to their zero value.
package provenance

import "sort"

// Overall validation status values reported by the provenance engine.
const (
	// StatusValid indicates every engine check passed.
	StatusValid = "valid"
	// StatusInvalid indicates at least one integrity check failed.
	StatusInvalid = "invalid"
	// StatusUnknown indicates the engine could not determine a result.
	StatusUnknown = "unknown"
)

// ValidationStatus is a single check outcome the engine attaches to a
// manifest or ingredient.
type ValidationStatus struct {
	// Code identifies the check, e.g. "assertion.hashedURI.mismatch".
	Code string `json:"code"`
	// Explanation is a human-readable description of the outcome.
	Explanation string `json:"explanation,omitempty"`
	// URL points at documentation for the code, when the engine provides one.
	URL string `json:"url,omitempty"`
}

// SignatureInfo describes the signature metadata of a manifest.
type SignatureInfo struct {
	// Issuer is the display name of the signing certificate's issuer.
	Issuer string `json:"issuer,omitempty"`
	// Time is the RFC 3339 signing time, empty when the engine reports none.
	Time string `json:"time,omitempty"`
}

// Assertion is a labeled claim recorded inside a manifest. The content of
// an assertion is opaque to this service.
type Assertion struct {
	Label string `json:"label"`
}

// Ingredient is an input asset referenced by a manifest, for example the
// source image a derivative was made from.
type Ingredient struct {
	Title            string             `json:"title,omitempty"`
	ValidationStatus []ValidationStatus `json:"validation_status,omitempty"`
}

// Manifest is a single provenance manifest embedded in an asset.
type Manifest struct {
	Label            string             `json:"label,omitempty"`
	Title            string             `json:"title,omitempty"`
	ClaimGenerator   string             `json:"claim_generator,omitempty"`
	SignatureInfo    *SignatureInfo     `json:"signature_info,omitempty"`
	Assertions       []Assertion        `json:"assertions,omitempty"`
	Ingredients      []Ingredient       `json:"ingredients,omitempty"`
	ValidationStatus []ValidationStatus `json:"validation_status,omitempty"`
}

// ManifestStore is the engine's description of every provenance manifest
// found in an asset, plus the overall validation outcome. It is read-only
// input to the verification layer and is never mutated by it.
type ManifestStore struct {
	// ActiveManifest is the label of the manifest that applies to the asset
	// as delivered.
	ActiveManifest string `json:"active_manifest,omitempty"`
	// Manifests maps manifest labels to their content.
	Manifests map[string]*Manifest `json:"manifests,omitempty"`
	// ValidationStatus is the engine's overall verdict (valid, invalid or
	// anything else, treated as unknown).
	ValidationStatus string `json:"validation_status,omitempty"`
}

// Active returns the active manifest, or nil when the store has none or the
// active label does not resolve.
func (s *ManifestStore) Active() *Manifest {
	if s == nil || s.ActiveManifest == "" {
		return nil
	}
	return s.Manifests[s.ActiveManifest]
}

// Labels returns the manifest labels in sorted order so that callers
// iterating the store produce deterministic output.
func (s *ManifestStore) Labels() []string {
	if s == nil {
		return nil
	}
	labels := make([]string, 0, len(s.Manifests))
	for label := range s.Manifests {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// FlattenedStatuses returns every validation-status entry in the store:
// each manifest's own entries followed by its ingredients' entries,
// in sorted manifest-label order.
func (s *ManifestStore) FlattenedStatuses() []ValidationStatus {
	if s == nil {
		return nil
	}
	var out []ValidationStatus
	for _, label := range s.Labels() {
		m := s.Manifests[label]
		if m == nil {
			continue
		}
		out = append(out, m.ValidationStatus...)
		for _, ing := range m.Ingredients {
			out = append(out, ing.ValidationStatus...)
		}
	}
	return out
}
