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

// Package trustlist keeps a local, time-to-live cache of the remote trust
// configuration resources: anchor certificates, allowed certificates,
// allowed hashes and the store configuration. The Manager refreshes the four
// resources in the background without blocking verification and serves
// stale-but-present data when the remote host is unreachable.
package trustlist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Resource keys identifying the four cached trust resources.
const (
	ResourceAnchorCerts   = "anchorCerts"
	ResourceAllowedCerts  = "allowedCerts"
	ResourceAllowedHashes = "allowedHashes"
	ResourceStoreConfig   = "storeCfg"
)

// metadataFile is the name of the cache metadata file inside the cache dir.
const metadataFile = "cache-metadata.json"

// resourceFiles maps resource keys to their remote (and local) file names.
var resourceFiles = map[string]string{
	ResourceAnchorCerts:   "anchors.pem",
	ResourceAllowedCerts:  "allowed.pem",
	ResourceAllowedHashes: "allowed.sha256.txt",
	ResourceStoreConfig:   "store.cfg",
}

// ResourceKeys returns the four resource keys in a stable order.
func ResourceKeys() []string {
	return []string{
		ResourceAnchorCerts,
		ResourceAllowedCerts,
		ResourceAllowedHashes,
		ResourceStoreConfig,
	}
}

// ResourceFileName returns the file name for a resource key, or "" for an
// unknown key.
func ResourceFileName(key string) string {
	return resourceFiles[key]
}

// FileRecord describes one cached resource file.
type FileRecord struct {
	// Path is the local path of the cached file.
	Path string `json:"path"`
	// URL is the remote URL the file was fetched from.
	URL string `json:"url"`
	// LastUpdated is the Unix timestamp of the last successful fetch.
	LastUpdated int64 `json:"lastUpdated"`
	// Size is the byte size of the cached file.
	Size int64 `json:"size"`
}

// Metadata is the durable record of the cache state. It is the single
// source of truth for refresh scheduling.
//
// Invariant: NextRefreshAt == LastUpdated + refresh interval whenever a full
// refresh (all four resources) succeeds. A partial refresh updates only the
// per-resource records, never the global schedule.
type Metadata struct {
	// LastUpdated is the Unix timestamp of the most recent successful full
	// refresh, 0 if none has ever completed.
	LastUpdated int64 `json:"lastUpdated"`
	// NextRefreshAt is the Unix timestamp after which a refresh is due.
	NextRefreshAt int64 `json:"nextRefreshAt"`
	// Files maps resource keys to their cached-file records.
	Files map[string]FileRecord `json:"files"`
}

// newMetadata returns an empty metadata record.
func newMetadata() *Metadata {
	return &Metadata{Files: make(map[string]FileRecord)}
}

// complete reports whether every trust resource has been cached at least
// once.
func (m *Metadata) complete() bool {
	if m == nil {
		return false
	}
	for _, key := range ResourceKeys() {
		if _, ok := m.Files[key]; !ok {
			return false
		}
	}
	return true
}

// MetadataStore reads and writes the cache metadata file.
type MetadataStore struct {
	path string
}

// NewMetadataStore creates a store for the metadata file inside dir.
func NewMetadataStore(dir string) *MetadataStore {
	return &MetadataStore{path: filepath.Join(dir, metadataFile)}
}

// Load reads the metadata file. A missing file yields an empty record, not
// an error; a present but unreadable or malformed file is an error.
func (s *MetadataStore) Load() (*Metadata, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return newMetadata(), nil
		}
		return nil, fmt.Errorf("reading cache metadata %q: %w", s.path, err)
	}

	meta := newMetadata()
	if err := json.Unmarshal(data, meta); err != nil {
		return nil, fmt.Errorf("parsing cache metadata %q: %w", s.path, err)
	}
	if meta.Files == nil {
		meta.Files = make(map[string]FileRecord)
	}
	return meta, nil
}

// Save atomically replaces the metadata file. The record is written to a
// temporary file in the same directory and renamed into place so concurrent
// readers never observe a partially written record.
func (s *MetadataStore) Save(meta *Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache metadata: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), metadataFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary metadata file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing cache metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temporary metadata file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing cache metadata %q: %w", s.path, err)
	}
	return nil
}
