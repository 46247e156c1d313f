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

package trustlist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMetadataStore_LoadMissing(t *testing.T) {
	store := NewMetadataStore(t.TempDir())

	meta, err := store.Load()
	if err != nil {
		t.Fatalf("Load() on missing file: %v", err)
	}
	if meta.LastUpdated != 0 || meta.NextRefreshAt != 0 {
		t.Errorf("empty metadata has timestamps: %+v", meta)
	}
	if meta.Files == nil || len(meta.Files) != 0 {
		t.Errorf("empty metadata files = %v, want empty map", meta.Files)
	}
	if meta.complete() {
		t.Error("empty metadata reported complete")
	}
}

func TestMetadataStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewMetadataStore(dir)

	meta := newMetadata()
	meta.LastUpdated = 1700000000
	meta.NextRefreshAt = 1700086400
	for _, key := range ResourceKeys() {
		meta.Files[key] = FileRecord{
			Path:        filepath.Join(dir, ResourceFileName(key)),
			URL:         "https://trust.example.com/" + ResourceFileName(key),
			LastUpdated: 1700000000,
			Size:        42,
		}
	}

	if err := store.Save(meta); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.LastUpdated != meta.LastUpdated || loaded.NextRefreshAt != meta.NextRefreshAt {
		t.Errorf("timestamps = %d/%d, want %d/%d",
			loaded.LastUpdated, loaded.NextRefreshAt, meta.LastUpdated, meta.NextRefreshAt)
	}
	if !loaded.complete() {
		t.Error("round-tripped metadata not complete")
	}
	rec := loaded.Files[ResourceAnchorCerts]
	if rec.Size != 42 || !strings.HasSuffix(rec.Path, "anchors.pem") {
		t.Errorf("anchor record = %+v", rec)
	}
}

func TestMetadataStore_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewMetadataStore(dir)

	if err := store.Save(newMetadata()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading cache dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != metadataFile {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("cache dir contents = %v, want only %s", names, metadataFile)
	}
}

func TestMetadataStore_LoadMalformed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, metadataFile), []byte("{not json"), 0600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := NewMetadataStore(dir).Load(); err == nil {
		t.Error("Load() on malformed metadata should fail")
	}
}

func TestMetadataComplete_PartialFiles(t *testing.T) {
	meta := newMetadata()
	meta.Files[ResourceAnchorCerts] = FileRecord{Path: "a"}
	meta.Files[ResourceAllowedCerts] = FileRecord{Path: "b"}
	if meta.complete() {
		t.Error("metadata with two of four resources reported complete")
	}
}
