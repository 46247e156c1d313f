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
	"encoding/json"
	"slices"
	"testing"
	"time"

	"github.com/sigstore/image-provenance/pkg/provenance"
)

// fixedAggregator returns an aggregator with a pinned clock so the
// signature-age advisory is deterministic.
func fixedAggregator(now time.Time) *Aggregator {
	a := NewAggregator()
	a.now = func() time.Time { return now }
	return a
}

// testNow is the pinned clock for aggregation tests.
var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func validStore() *provenance.ManifestStore {
	return &provenance.ManifestStore{
		ActiveManifest: "urn:manifest:1",
		Manifests: map[string]*provenance.Manifest{
			"urn:manifest:1": {
				Label:          "urn:manifest:1",
				Title:          "photo.jpg",
				ClaimGenerator: "editor/2.1",
				SignatureInfo: &provenance.SignatureInfo{
					Issuer: "Example CA",
					Time:   testNow.AddDate(0, 0, -10).Format(time.RFC3339),
				},
				Assertions:  []provenance.Assertion{{Label: "c2pa.actions"}},
				Ingredients: []provenance.Ingredient{{Title: "source.jpg"}},
			},
		},
		ValidationStatus: provenance.StatusValid,
	}
}

func trusted() TrustVerdict {
	return TrustVerdict{IsTrusted: true, Issuer: "Example CA"}
}

func TestAggregate_ValidStore(t *testing.T) {
	report := fixedAggregator(testNow).Aggregate(validStore(), trusted())

	if !report.IsValid {
		t.Error("IsValid = false for a valid store")
	}
	if report.Status != StatusValid {
		t.Errorf("status = %q, want valid", report.Status)
	}
	if len(report.Errors) != 0 {
		t.Errorf("errors = %v, want none", report.Errors)
	}
	if len(report.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", report.Warnings)
	}
	if len(report.ManifestValidations) != 1 {
		t.Fatalf("manifest validations = %d, want 1", len(report.ManifestValidations))
	}
	info := report.ManifestValidations[0]
	if !info.IsActive || info.Title != "photo.jpg" {
		t.Errorf("manifest info = %+v", info)
	}
	if report.ManifestStore == nil || report.ManifestStore.ManifestCount != 1 {
		t.Errorf("store summary = %+v", report.ManifestStore)
	}
	if report.ActiveManifest == nil || report.ActiveManifest.AssertionCount != 1 ||
		report.ActiveManifest.IngredientCount != 1 || report.ActiveManifest.Generator != "editor/2.1" {
		t.Errorf("active manifest summary = %+v", report.ActiveManifest)
	}
	if report.CertificateTrust == nil || !report.CertificateTrust.IsTrusted {
		t.Errorf("certificate trust = %+v", report.CertificateTrust)
	}
}

func TestAggregate_InvalidStoreWithHashMismatch(t *testing.T) {
	store := validStore()
	store.ValidationStatus = provenance.StatusInvalid
	store.Manifests["urn:manifest:1"].ValidationStatus = []provenance.ValidationStatus{
		{Code: "assertion.hashedURI.mismatch", Explanation: "hash mismatch"},
	}

	report := fixedAggregator(testNow).Aggregate(store, trusted())

	if report.IsValid {
		t.Error("IsValid = true for an invalid store")
	}
	if report.Status != StatusInvalid {
		t.Errorf("status = %q, want invalid", report.Status)
	}
	if !slices.Contains(report.Errors, "hash mismatch") {
		t.Errorf("errors = %v, want entry %q", report.Errors, "hash mismatch")
	}
	if !slices.Contains(report.Errors, manifestTamperError) {
		t.Errorf("errors = %v, missing generic tamper string", report.Errors)
	}
	// The entry is recorded verbatim in the detail block too.
	details := report.ManifestValidations[0].ValidationDetails
	if len(details) != 1 || details[0].Code != "assertion.hashedURI.mismatch" {
		t.Errorf("validation details = %+v", details)
	}
}

func TestAggregate_UnknownStatusIsWarning(t *testing.T) {
	store := validStore()
	store.ValidationStatus = provenance.StatusUnknown

	report := fixedAggregator(testNow).Aggregate(store, trusted())
	if report.IsValid {
		t.Error("IsValid = true for unknown status")
	}
	if report.Status != StatusWarning {
		t.Errorf("status = %q, want warning", report.Status)
	}
	if !slices.Contains(report.Warnings, manifestIssueWarning) {
		t.Errorf("warnings = %v, missing per-manifest warning", report.Warnings)
	}
	if len(report.Errors) != 0 {
		t.Errorf("errors = %v, want none for unknown status", report.Errors)
	}
}

func TestAggregate_UntrustedCertificateIsWarningOnly(t *testing.T) {
	verdict := TrustVerdict{IsTrusted: false, ErrorMessage: "certificate not on the trust list"}

	report := fixedAggregator(testNow).Aggregate(validStore(), verdict)
	if report.Status != StatusValid || !report.IsValid {
		t.Errorf("certificate failure changed status to %q", report.Status)
	}
	want := "certificate trust: certificate not on the trust list"
	if !slices.Contains(report.Warnings, want) {
		t.Errorf("warnings = %v, want %q", report.Warnings, want)
	}
	if len(report.Errors) != 0 {
		t.Errorf("errors = %v, want none", report.Errors)
	}
}

func TestAggregate_IngredientClassification(t *testing.T) {
	store := validStore()
	store.Manifests["urn:manifest:1"].Ingredients = []provenance.Ingredient{
		{
			Title: "source.jpg",
			ValidationStatus: []provenance.ValidationStatus{
				{Code: "warning.unverified", Explanation: "ingredient could not be verified"},
			},
		},
		{
			// No title: rendered as "unknown".
			ValidationStatus: []provenance.ValidationStatus{
				{Code: "ingredient.hashedURI.invalid"},
			},
		},
	}

	report := fixedAggregator(testNow).Aggregate(store, trusted())

	wantWarning := "ingredient 1 (source.jpg): ingredient could not be verified"
	if !slices.Contains(report.Warnings, wantWarning) {
		t.Errorf("warnings = %v, want %q", report.Warnings, wantWarning)
	}
	if slices.Contains(report.Errors, wantWarning) {
		t.Error("warning-class ingredient issue classified as error")
	}

	wantError := "ingredient 2 (unknown): ingredient.hashedURI.invalid"
	if !slices.Contains(report.Errors, wantError) {
		t.Errorf("errors = %v, want %q", report.Errors, wantError)
	}

	issues := report.ManifestValidations[0].IngredientIssues
	if len(issues) != 2 {
		t.Errorf("ingredient issues = %v, want both entries", issues)
	}
}

func TestAggregate_SignatureAge(t *testing.T) {
	tests := []struct {
		name     string
		sigTime  string
		wantWarn string
	}{
		{"recent signature", testNow.AddDate(0, 0, -10).Format(time.RFC3339), ""},
		{"old signature", testNow.AddDate(0, 0, -400).Format(time.RFC3339), staleSignatureWarning},
		{"missing timestamp", "", missingTimestampWarning},
		{"garbage timestamp", "not-a-time", missingTimestampWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := validStore()
			store.Manifests["urn:manifest:1"].SignatureInfo.Time = tt.sigTime

			report := fixedAggregator(testNow).Aggregate(store, trusted())

			hasStale := slices.Contains(report.Warnings, staleSignatureWarning)
			hasMissing := slices.Contains(report.Warnings, missingTimestampWarning)
			switch tt.wantWarn {
			case "":
				if hasStale || hasMissing {
					t.Errorf("unexpected age warnings: %v", report.Warnings)
				}
			case staleSignatureWarning:
				if !hasStale {
					t.Errorf("warnings = %v, want stale-signature advisory", report.Warnings)
				}
			case missingTimestampWarning:
				if !hasMissing {
					t.Errorf("warnings = %v, want missing-timestamp advisory", report.Warnings)
				}
			}
			// Age is advisory only, never an error.
			if len(report.Errors) != 0 {
				t.Errorf("errors = %v, want none", report.Errors)
			}
		})
	}
}

func TestAggregate_MissingOptionalFieldsDefault(t *testing.T) {
	store := &provenance.ManifestStore{
		ActiveManifest: "m",
		Manifests: map[string]*provenance.Manifest{
			"m": {
				ValidationStatus: []provenance.ValidationStatus{
					{Code: "assertion.invalid"},
				},
			},
		},
		ValidationStatus: provenance.StatusInvalid,
	}

	report := fixedAggregator(testNow).Aggregate(store, TrustVerdict{IsTrusted: true})

	if report.ManifestValidations[0].Title != "untitled" {
		t.Errorf("title = %q, want untitled", report.ManifestValidations[0].Title)
	}
	if !slices.Contains(report.Errors, noDetail) {
		t.Errorf("errors = %v, want %q for an explanation-free entry", report.Errors, noDetail)
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	store := validStore()
	store.ValidationStatus = provenance.StatusInvalid
	store.Manifests["urn:manifest:2"] = &provenance.Manifest{
		Title: "older edit",
		ValidationStatus: []provenance.ValidationStatus{
			{Code: "claimSignature.mismatch", Explanation: "signature mismatch"},
		},
	}
	verdict := TrustVerdict{IsTrusted: false, ErrorMessage: "untrusted"}
	agg := fixedAggregator(testNow)

	first, err := json.Marshal(agg.Aggregate(store, verdict))
	if err != nil {
		t.Fatalf("marshaling first report: %v", err)
	}
	second, err := json.Marshal(agg.Aggregate(store, verdict))
	if err != nil {
		t.Fatalf("marshaling second report: %v", err)
	}
	if string(first) != string(second) {
		t.Errorf("reports differ between identical calls:\n%s\n%s", first, second)
	}
}

func TestAggregate_NilStore(t *testing.T) {
	report := fixedAggregator(testNow).Aggregate(nil, TrustVerdict{IsTrusted: false, ErrorMessage: "no data"})
	if report == nil {
		t.Fatal("Aggregate(nil) returned nil report")
	}
	if report.IsValid || report.Status != StatusWarning {
		t.Errorf("nil store report = %+v", report)
	}
}
