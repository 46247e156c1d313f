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
	"fmt"
	"strings"
	"time"

	"github.com/sigstore/image-provenance/pkg/provenance"
)

// Messages assembled into reports. Kept as constants so classification
// stays a single test-covered table.
const (
	// manifestTamperError is appended to errors once per manifest when the
	// overall engine verdict is invalid.
	manifestTamperError = "manifest integrity check failed, the image may have been modified"
	// manifestIssueWarning is appended to warnings once per manifest when
	// the overall engine verdict is anything but valid.
	manifestIssueWarning = "manifest validation reported issues"
	// missingTimestampWarning flags an active manifest without a signature
	// time.
	missingTimestampWarning = "active manifest has no signature timestamp, reduced trust"
	// staleSignatureWarning flags a signature older than one year. Age
	// alone never raises an error; this is advisory only.
	staleSignatureWarning = "signature is over one year old, the signing certificate may have expired"
	// noDetail substitutes for a manifest finding without an explanation.
	noDetail = "no detail"
	// noIngredientDetail substitutes for an ingredient finding without an
	// explanation or code.
	noIngredientDetail = "validation error"
)

// issueClass is the bucket a validation-status entry falls into.
type issueClass int

const (
	issueNone issueClass = iota
	issueError
	issueWarning
)

// classifyCode buckets a status code by substring: codes mentioning
// "invalid" or "error" are errors, codes mentioning "warning" are warnings,
// anything else is informational.
func classifyCode(code string) issueClass {
	lower := strings.ToLower(code)
	if strings.Contains(lower, "invalid") || strings.Contains(lower, "error") {
		return issueError
	}
	if strings.Contains(lower, "warning") {
		return issueWarning
	}
	return issueNone
}

// Aggregator reduces a manifest store plus a trust verdict into a
// ValidationReport. Aggregation is pure and performs no I/O; calling it
// twice with identical inputs yields identical reports.
type Aggregator struct {
	// now is the clock used for the signature-age advisory, replaceable in
	// tests.
	now func() time.Time
}

// NewAggregator creates an Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{now: time.Now}
}

// Aggregate builds the consolidated report. Missing optional fields in the
// store default rather than fail; manifests are visited in sorted label
// order so the output is deterministic.
func (a *Aggregator) Aggregate(store *provenance.ManifestStore, trust TrustVerdict) *ValidationReport {
	report := &ValidationReport{
		Errors:              []string{},
		Warnings:            []string{},
		ManifestValidations: []ManifestInfo{},
		CertificateTrust:    &trust,
	}
	if store == nil {
		report.Status = StatusWarning
		return report
	}

	overall := store.ValidationStatus
	report.IsValid = overall == provenance.StatusValid
	switch overall {
	case provenance.StatusValid:
		report.Status = StatusValid
	case provenance.StatusInvalid:
		report.Status = StatusInvalid
	default:
		report.Status = StatusWarning
	}

	// A certificate-trust failure downgrades to a warning; it does not by
	// itself make the report invalid.
	if !trust.IsTrusted && trust.ErrorMessage != "" {
		report.Warnings = append(report.Warnings, "certificate trust: "+trust.ErrorMessage)
	}

	for _, label := range store.Labels() {
		manifest := store.Manifests[label]
		if manifest == nil {
			continue
		}
		report.ManifestValidations = append(report.ManifestValidations,
			a.reduceManifest(report, store, label, manifest, overall))
	}

	a.checkSignatureAge(report, store.Active())

	summaryStatus := overall
	if summaryStatus == "" {
		summaryStatus = provenance.StatusUnknown
	}
	report.ManifestStore = &StoreSummary{
		ValidationStatus: summaryStatus,
		ActiveManifest:   store.ActiveManifest,
		ManifestCount:    len(store.Manifests),
	}
	if active := store.Active(); active != nil {
		report.ActiveManifest = &ActiveManifestSummary{
			Generator:       active.ClaimGenerator,
			AssertionCount:  len(active.Assertions),
			IngredientCount: len(active.Ingredients),
		}
	}
	return report
}

// reduceManifest builds one ManifestInfo and folds the manifest's findings
// into the report's error and warning lists.
func (a *Aggregator) reduceManifest(report *ValidationReport, store *provenance.ManifestStore, label string, manifest *provenance.Manifest, overall string) ManifestInfo {
	title := manifest.Title
	if title == "" {
		title = "untitled"
	}
	info := ManifestInfo{
		Label:         label,
		Title:         title,
		IsActive:      label == store.ActiveManifest,
		SignatureInfo: manifest.SignatureInfo,
	}

	if overall == provenance.StatusInvalid {
		report.Errors = append(report.Errors, manifestTamperError)
	}
	if overall != provenance.StatusValid {
		report.Warnings = append(report.Warnings, manifestIssueWarning)
	}

	for _, status := range manifest.ValidationStatus {
		detail := status.Explanation
		if detail == "" {
			detail = noDetail
		}
		switch classifyCode(status.Code) {
		case issueError:
			report.Errors = append(report.Errors, detail)
		case issueWarning:
			report.Warnings = append(report.Warnings, detail)
		case issueNone:
			// Informational entries are recorded in the detail block only.
		}
		info.ValidationDetails = append(info.ValidationDetails, status)
	}

	if issues := a.reduceIngredients(report, manifest.Ingredients); len(issues) > 0 {
		info.IngredientIssues = issues
	}
	return info
}

// reduceIngredients classifies ingredient findings into the report and
// returns the issue strings for the manifest's detail block.
func (a *Aggregator) reduceIngredients(report *ValidationReport, ingredients []provenance.Ingredient) []string {
	var issues []string
	for i, ingredient := range ingredients {
		title := ingredient.Title
		if title == "" {
			title = "unknown"
		}
		for _, status := range ingredient.ValidationStatus {
			detail := status.Explanation
			if detail == "" {
				detail = status.Code
			}
			if detail == "" {
				detail = noIngredientDetail
			}
			issue := fmt.Sprintf("ingredient %d (%s): %s", i+1, title, detail)
			issues = append(issues, issue)
			if classifyCode(status.Code) == issueError {
				report.Errors = append(report.Errors, issue)
			} else {
				report.Warnings = append(report.Warnings, issue)
			}
		}
	}
	return issues
}

// checkSignatureAge appends the timestamp advisories for the active
// manifest: a missing signature time reduces trust, and a signature over
// one year old may outlive its certificate.
func (a *Aggregator) checkSignatureAge(report *ValidationReport, active *provenance.Manifest) {
	var sigTime string
	if active != nil && active.SignatureInfo != nil {
		sigTime = active.SignatureInfo.Time
	}
	if sigTime == "" {
		report.Warnings = append(report.Warnings, missingTimestampWarning)
		return
	}

	signedAt, err := time.Parse(time.RFC3339, sigTime)
	if err != nil {
		// An unparseable time gives the same reduced-trust advisory as a
		// missing one.
		report.Warnings = append(report.Warnings, missingTimestampWarning)
		return
	}
	if signedAt.Before(a.now().AddDate(-1, 0, 0)) {
		report.Warnings = append(report.Warnings, staleSignatureWarning)
	}
}
