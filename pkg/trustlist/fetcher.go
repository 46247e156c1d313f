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
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sigstore/sigstore/pkg/cryptoutils"

	"github.com/sigstore/image-provenance/pkg/logging"
)

// FetchResult reports the outcome of a single resource download.
type FetchResult struct {
	// Key is the resource key that was fetched.
	Key string
	// Path is the local path the resource was persisted to.
	Path string
	// URL is the remote URL the resource was fetched from.
	URL string
	// Size is the byte size of the downloaded body.
	Size int64
	// FetchedAt is when the download completed.
	FetchedAt time.Time
	// Err is non-nil when the download failed; the other fields except Key
	// and URL are then meaningless.
	Err error
}

// ResourceFetcher downloads a single trust resource over HTTP and persists
// the body verbatim to the cache directory.
type ResourceFetcher struct {
	client   *http.Client
	baseURL  string
	cacheDir string
	logger   logging.Logger
}

// NewResourceFetcher creates a fetcher downloading from baseURL into
// cacheDir. Each download is bounded by timeout.
func NewResourceFetcher(baseURL, cacheDir string, timeout time.Duration, logger logging.Logger) *ResourceFetcher {
	return &ResourceFetcher{
		client:   &http.Client{Timeout: timeout},
		baseURL:  strings.TrimRight(baseURL, "/"),
		cacheDir: cacheDir,
		logger:   logging.EnsureLogger(logger),
	}
}

// Fetch performs one HTTP GET of the named resource and writes the body to
// the cache directory. The body is treated as opaque UTF-8 text and
// persisted byte-for-byte; the write replaces any previous version
// atomically so readers never see a truncated file.
func (f *ResourceFetcher) Fetch(ctx context.Context, key string) FetchResult {
	name := ResourceFileName(key)
	if name == "" {
		return FetchResult{Key: key, Err: fmt.Errorf("unknown trust resource %q", key)}
	}

	url := f.baseURL + "/" + name
	result := FetchResult{Key: key, URL: url}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		result.Err = fmt.Errorf("building request for %q: %w", url, err)
		return result
	}

	resp, err := f.client.Do(req)
	if err != nil {
		result.Err = fmt.Errorf("fetching %q: %w", url, err)
		return result
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result.Err = fmt.Errorf("fetching %q: unexpected status %d", url, resp.StatusCode)
		return result
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		result.Err = fmt.Errorf("reading body of %q: %w", url, err)
		return result
	}

	f.inspectPEM(key, name, body)

	path := filepath.Join(f.cacheDir, name)
	if err := writeFileAtomic(path, body); err != nil {
		result.Err = fmt.Errorf("persisting %q: %w", path, err)
		return result
	}

	result.Path = path
	result.Size = int64(len(body))
	result.FetchedAt = time.Now()
	f.logger.Debug("fetched trust resource %s (%d bytes)", name, result.Size)
	return result
}

// inspectPEM runs an advisory check on certificate resources: a blob that
// does not parse as PEM certificates is logged but still cached verbatim.
// The provenance engine is the authority on the resource contents.
func (f *ResourceFetcher) inspectPEM(key, name string, body []byte) {
	if key != ResourceAnchorCerts && key != ResourceAllowedCerts {
		return
	}
	certs, err := cryptoutils.UnmarshalCertificatesFromPEM(body)
	if err != nil {
		f.logger.Warn("trust resource %s does not parse as PEM certificates: %v", name, err)
		return
	}
	f.logger.Debug("trust resource %s contains %d certificates", name, len(certs))
}

// writeFileAtomic writes data to path via a temporary file and rename.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
