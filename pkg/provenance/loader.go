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

package provenance

import (
	"encoding/json"
	"fmt"
	"os"
)

// ParseStore decodes a manifest store from the JSON the provenance engine
// emits. An empty input yields a nil store: the asset carries no provenance
// data.
func ParseStore(data []byte) (*ManifestStore, error) {
	if len(data) == 0 {
		return nil, nil
	}
	store := &ManifestStore{}
	if err := json.Unmarshal(data, store); err != nil {
		return nil, fmt.Errorf("parsing manifest store: %w", err)
	}
	return store, nil
}

// LoadStore reads and decodes a manifest-store JSON file, as written by an
// out-of-process provenance engine. A missing file yields a nil store.
func LoadStore(path string) (*ManifestStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading manifest store %q: %w", path, err)
	}
	return ParseStore(data)
}
