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

// Package verify reduces the provenance engine's manifest-store output into
// a single caller-facing verdict: an overall status, separated error and
// warning lists, per-manifest detail and a certificate-trust judgment. It
// classifies findings the engine already made; it performs no cryptographic
// validation of its own.
package verify

import "github.com/sigstore/image-provenance/pkg/provenance"

// Report status values.
const (
	// StatusValid means every engine check passed.
	StatusValid = "valid"
	// StatusInvalid means at least one integrity check failed.
	StatusInvalid = "invalid"
	// StatusWarning means the engine result was neither valid nor invalid.
	StatusWarning = "warning"
)

// TrustVerdict is the certificate-trust judgment for the active manifest's
// signer.
type TrustVerdict struct {
	// IsTrusted is false when any engine finding relates to certificates
	// or trust.
	IsTrusted bool `json:"isTrusted"`
	// Issuer is the active manifest's signing-certificate issuer, empty
	// when the engine reports none.
	Issuer string `json:"issuer,omitempty"`
	// Timestamp is the active manifest's signing time, empty when absent.
	Timestamp string `json:"timestamp,omitempty"`
	// ErrorMessage joins the trust-related findings, empty when trusted.
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// ManifestInfo is the per-manifest detail block of a report.
type ManifestInfo struct {
	Label    string `json:"label"`
	Title    string `json:"title"`
	IsActive bool   `json:"isActive"`
	// SignatureInfo is the manifest's signature metadata, verbatim from the
	// engine.
	SignatureInfo *provenance.SignatureInfo `json:"signatureInfo,omitempty"`
	// ValidationDetails records every validation-status entry of the
	// manifest verbatim.
	ValidationDetails []provenance.ValidationStatus `json:"validationDetails,omitempty"`
	// IngredientIssues lists human-readable issue strings for the
	// manifest's ingredients, present only when non-empty.
	IngredientIssues []string `json:"ingredientIssues,omitempty"`
}

// StoreSummary is the manifest-store summary block of a report.
type StoreSummary struct {
	ValidationStatus string `json:"validationStatus"`
	ActiveManifest   string `json:"activeManifest,omitempty"`
	ManifestCount    int    `json:"manifestCount"`
}

// ActiveManifestSummary is a snapshot of the active manifest's counts.
type ActiveManifestSummary struct {
	Generator       string `json:"generator,omitempty"`
	AssertionCount  int    `json:"assertionCount"`
	IngredientCount int    `json:"ingredientCount"`
}

// ValidationReport is the consolidated verification verdict returned to the
// request-handling layer. It is JSON-serializable as-is.
type ValidationReport struct {
	IsValid             bool                   `json:"isValid"`
	Status              string                 `json:"status"`
	Errors              []string               `json:"errors"`
	Warnings            []string               `json:"warnings"`
	ManifestValidations []ManifestInfo         `json:"manifestValidations"`
	ManifestStore       *StoreSummary          `json:"manifestStore,omitempty"`
	ActiveManifest      *ActiveManifestSummary `json:"activeManifest,omitempty"`
	CertificateTrust    *TrustVerdict          `json:"certificateTrust,omitempty"`
}

// Response is the outermost verification result. HasC2pa is false when the
// asset carries no provenance data at all or the engine could not read it,
// in which case Report is nil.
type Response struct {
	HasC2pa bool              `json:"hasC2pa"`
	Report  *ValidationReport `json:"report,omitempty"`
}
