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
	"os"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/sigstore/image-provenance/pkg/config"
	"github.com/sigstore/image-provenance/pkg/logging"
	"github.com/sigstore/image-provenance/pkg/tracing"
)

// contentsCacheKey is the memoization key for the assembled Contents blob.
const contentsCacheKey = "contents"

// Contents holds the raw text of the four cached trust resources. The blobs
// are opaque to this service; the provenance engine interprets them.
type Contents struct {
	TrustAnchors  string `json:"trustAnchors"`
	AllowedList   string `json:"allowedList"`
	AllowedHashes string `json:"allowedHashes"`
	TrustConfig   string `json:"trustConfig"`
}

// FileStatus describes one cached resource for diagnostics.
type FileStatus struct {
	Path        string    `json:"path"`
	URL         string    `json:"url"`
	Size        int64     `json:"size"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Status is a point-in-time view of the cache for health endpoints. It is
// derived purely from metadata; building it performs no network I/O.
type Status struct {
	// Enabled reports whether a trust base URL is configured.
	Enabled bool `json:"enabled"`
	// Available reports whether a full refresh has ever succeeded.
	Available bool `json:"available"`
	// LastUpdated is the time of the most recent full refresh, zero if none.
	LastUpdated time.Time `json:"lastUpdated,omitempty"`
	// NextRefresh is when the next refresh is due, zero if never refreshed.
	NextRefresh time.Time `json:"nextRefresh,omitempty"`
	// Files maps resource keys to their cached-file status.
	Files map[string]FileStatus `json:"files"`
}

// Manager orchestrates the resource fetcher and the metadata store. It
// decides when a refresh is due, fans out the four downloads in parallel,
// and exposes the cached contents and a status summary.
//
// Verification is never blocked on a slow or unreachable trust host: the
// manager always prefers serving a stale-but-present cache over failing the
// caller, and reports unavailability only when no cache has ever been
// populated.
type Manager struct {
	cfg     *config.Config
	fetcher *ResourceFetcher
	meta    *MetadataStore
	logger  logging.Logger

	// refreshMu serializes refresh cycles: exactly one refresh is in flight
	// at a time. Callers that find a refresh running serve stale data
	// instead of starting a duplicate.
	refreshMu sync.Mutex

	// lastAttempt records when the most recent refresh cycle started,
	// whatever its outcome. A failed or partial cycle does not advance the
	// durable schedule, so without this an inline EnsureFresh would retry
	// on every request; instead retries wait for the scheduled cycle.
	// Guarded by refreshMu.
	lastAttempt time.Time

	// memo caches the assembled Contents between disk reads; invalidated on
	// every refresh that changes any resource.
	memo *gocache.Cache

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// NewManager creates a cache manager from the service configuration. The
// cache directory is created lazily on the first refresh, so construction
// never touches the filesystem.
func NewManager(cfg *config.Config, logger logging.Logger) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid trust-list configuration: %w", err)
	}
	logger = logging.EnsureLogger(logger)
	return &Manager{
		cfg:     cfg,
		fetcher: NewResourceFetcher(cfg.TrustBaseURL, cfg.CacheDir, cfg.FetchTimeout, logger),
		meta:    NewMetadataStore(cfg.CacheDir),
		logger:  logger,
		memo:    gocache.New(cfg.RefreshInterval, 2*cfg.RefreshInterval),
		now:     time.Now,
	}, nil
}

// EnsureFresh loads the cache metadata and triggers a refresh when the
// cache has expired or was never populated. When a refresh is already in
// flight the call returns immediately; the still-valid stale data remains
// authoritative. Returns whether the cache is in a usable state after the
// call.
func (m *Manager) EnsureFresh(ctx context.Context) (bool, error) {
	meta, err := m.meta.Load()
	if err != nil {
		return false, err
	}

	if meta.LastUpdated > 0 && m.now().Unix() < meta.NextRefreshAt {
		return meta.complete(), nil
	}

	if !m.refreshMu.TryLock() {
		// A refresh is running; serve whatever is cached.
		return meta.complete(), nil
	}
	defer m.refreshMu.Unlock()

	if !m.lastAttempt.IsZero() && m.now().Sub(m.lastAttempt) < m.cfg.RefreshInterval {
		// The last attempt failed to advance the schedule; leave the retry
		// to the background cycle instead of hammering the remote host.
		return meta.complete(), nil
	}

	if _, err := m.refreshLocked(ctx); err != nil {
		m.logger.Warn("trust-list refresh failed: %v", err)
	}

	meta, err = m.meta.Load()
	if err != nil {
		return false, err
	}
	return meta.complete(), nil
}

// Refresh downloads all four trust resources in parallel and updates the
// cache metadata. Each download is independent; one failure does not abort
// or roll back the others. The global schedule (lastUpdated/nextRefreshAt)
// advances only when all four succeed. Returns true iff all four succeeded.
//
// Concurrent calls are serialized; the second caller waits for the first
// cycle to finish and then runs its own.
func (m *Manager) Refresh(ctx context.Context) (bool, error) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()
	return m.refreshLocked(ctx)
}

// refreshLocked runs one refresh cycle. Caller must hold refreshMu.
func (m *Manager) refreshLocked(ctx context.Context) (ok bool, err error) {
	err = tracing.Run(ctx, "trustlist.refresh", map[string]interface{}{
		"cache_dir": m.cfg.CacheDir,
	}, func(ctx context.Context) error {
		ok, err = m.runRefreshCycle(ctx)
		return err
	})
	return ok, err
}

func (m *Manager) runRefreshCycle(ctx context.Context) (bool, error) {
	m.lastAttempt = m.now()

	if err := os.MkdirAll(m.cfg.CacheDir, 0o755); err != nil {
		// Cache directory unavailable: fatal for this cycle, previous cache
		// (if any) remains authoritative.
		return false, fmt.Errorf("creating cache directory %q: %w", m.cfg.CacheDir, err)
	}

	meta, err := m.meta.Load()
	if err != nil {
		return false, err
	}

	keys := ResourceKeys()
	results := make([]FetchResult, len(keys))
	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			results[i] = m.fetcher.Fetch(ctx, key)
		}(i, key)
	}
	wg.Wait()

	succeeded := 0
	for _, res := range results {
		if res.Err != nil {
			m.logger.Warn("trust resource %s failed to refresh: %v", res.Key, res.Err)
			continue
		}
		meta.Files[res.Key] = FileRecord{
			Path:        res.Path,
			URL:         res.URL,
			LastUpdated: res.FetchedAt.Unix(),
			Size:        res.Size,
		}
		succeeded++
	}

	allOK := succeeded == len(keys)
	if allOK {
		now := m.now()
		meta.LastUpdated = now.Unix()
		meta.NextRefreshAt = now.Add(m.cfg.RefreshInterval).Unix()
	}

	// One atomic metadata write per cycle, after every download resolved:
	// readers never observe a record reflecting only part of a cycle.
	if err := m.meta.Save(meta); err != nil {
		return false, err
	}

	if succeeded > 0 {
		m.memo.Delete(contentsCacheKey)
	}

	if allOK {
		m.logger.Info("trust list refreshed, next refresh at %s",
			time.Unix(meta.NextRefreshAt, 0).Format(time.RFC3339))
	} else {
		m.logger.Warn("trust list partially refreshed (%d/%d resources)", succeeded, len(keys))
	}
	return allOK, nil
}

// Contents ensures freshness best-effort, then returns the raw text of the
// four cached resources. A failed refresh does not fail this call. Returns
// nil (with nil error) when any resource has never been cached, i.e. a cold
// start with no network; the caller must then treat trust as unknown.
func (m *Manager) Contents(ctx context.Context) (*Contents, error) {
	if _, err := m.EnsureFresh(ctx); err != nil {
		m.logger.Warn("trust-list freshness check failed: %v", err)
	}

	if cached, hit := m.memo.Get(contentsCacheKey); hit {
		return cached.(*Contents), nil
	}

	meta, err := m.meta.Load()
	if err != nil {
		return nil, err
	}
	if !meta.complete() {
		return nil, nil
	}

	blobs := make(map[string]string, len(meta.Files))
	for key, rec := range meta.Files {
		data, err := os.ReadFile(rec.Path)
		if err != nil {
			return nil, fmt.Errorf("reading cached trust resource %q: %w", rec.Path, err)
		}
		blobs[key] = string(data)
	}

	contents := &Contents{
		TrustAnchors:  blobs[ResourceAnchorCerts],
		AllowedList:   blobs[ResourceAllowedCerts],
		AllowedHashes: blobs[ResourceAllowedHashes],
		TrustConfig:   blobs[ResourceStoreConfig],
	}
	m.memo.Set(contentsCacheKey, contents, gocache.DefaultExpiration)
	return contents, nil
}

// Status returns a diagnostics view of the cache derived purely from
// metadata. It performs no network I/O.
func (m *Manager) Status() (*Status, error) {
	meta, err := m.meta.Load()
	if err != nil {
		return nil, err
	}

	st := &Status{
		Enabled:   m.cfg.TrustEnabled(),
		Available: meta.LastUpdated > 0,
		Files:     make(map[string]FileStatus, len(meta.Files)),
	}
	if meta.LastUpdated > 0 {
		st.LastUpdated = time.Unix(meta.LastUpdated, 0)
		st.NextRefresh = time.Unix(meta.NextRefreshAt, 0)
	}
	for key, rec := range meta.Files {
		st.Files[key] = FileStatus{
			Path:        rec.Path,
			URL:         rec.URL,
			Size:        rec.Size,
			LastUpdated: time.Unix(rec.LastUpdated, 0),
		}
	}
	return st, nil
}

// Run refreshes the cache on a fixed interval until ctx is canceled. It is
// meant to be started once as a background goroutine at service startup; the
// in-flight guard keeps it from colliding with request-triggered refreshes.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.RefreshInterval)
	defer ticker.Stop()

	if _, err := m.Refresh(ctx); err != nil {
		m.logger.Warn("initial trust-list refresh failed: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Refresh(ctx); err != nil {
				m.logger.Warn("scheduled trust-list refresh failed: %v", err)
			}
		}
	}
}
