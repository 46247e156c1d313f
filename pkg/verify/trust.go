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
	"strings"

	"github.com/sigstore/image-provenance/pkg/provenance"
)

// trustKeywords are the substrings that mark an engine finding as
// certificate/trust related. Matching is case-insensitive over both the
// status code and the explanation. This is a deliberate heuristic over the
// engine's human-readable findings, kept in one place so the matching rules
// stay a single test-covered table.
var trustKeywords = []string{"certificate", "trusted", "cert", "trust"}

// unknownTrustError is the per-finding fallback when an entry carries
// neither explanation nor code.
const unknownTrustError = "unknown error"

// TrustExtractor derives a certificate-trust verdict from a manifest
// store's validation metadata. It classifies findings the engine already
// reported; it does not re-derive trust cryptographically.
type TrustExtractor struct{}

// NewTrustExtractor creates a TrustExtractor.
func NewTrustExtractor() *TrustExtractor {
	return &TrustExtractor{}
}

// Extract scans the store's flattened validation-status entries for
// certificate/trust-related findings. Any match makes the verdict
// untrusted, with ErrorMessage joining the matched findings. Issuer and
// timestamp are read from the active manifest's signature metadata.
func (e *TrustExtractor) Extract(store *provenance.ManifestStore) TrustVerdict {
	if store == nil {
		return TrustVerdict{IsTrusted: false, ErrorMessage: "no data"}
	}

	verdict := TrustVerdict{IsTrusted: true}
	if active := store.Active(); active != nil && active.SignatureInfo != nil {
		verdict.Issuer = active.SignatureInfo.Issuer
		verdict.Timestamp = active.SignatureInfo.Time
	}

	var findings []string
	for _, status := range store.FlattenedStatuses() {
		if isTrustRelated(status) {
			findings = append(findings, trustFinding(status))
		}
	}
	if len(findings) > 0 {
		verdict.IsTrusted = false
		verdict.ErrorMessage = strings.Join(findings, "; ")
	}
	return verdict
}

// isTrustRelated reports whether a validation-status entry mentions
// certificates or trust in its code or explanation.
func isTrustRelated(status provenance.ValidationStatus) bool {
	haystack := strings.ToLower(status.Code + " " + status.Explanation)
	for _, keyword := range trustKeywords {
		if strings.Contains(haystack, keyword) {
			return true
		}
	}
	return false
}

// trustFinding renders one matched entry: explanation, falling back to the
// code, then to a generic string.
func trustFinding(status provenance.ValidationStatus) string {
	if status.Explanation != "" {
		return status.Explanation
	}
	if status.Code != "" {
		return status.Code
	}
	return unknownTrustError
}
