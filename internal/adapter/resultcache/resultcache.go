// Package resultcache is the persistent per-(station,resolution) result
// cache (§4.F): a JSON file per key, fresh if mtime is younger than TTL.
package resultcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/smhi-weather/location-engine/internal/domain"
)

// Cache reads and writes station aggregation results to disk.
type Cache struct {
	dir string
	ttl time.Duration
}

// New builds a Cache rooted at dir with the given freshness TTL (§6 "Cache
// layout": 7 days by default).
func New(dir string, ttl time.Duration) *Cache {
	return &Cache{dir: dir, ttl: ttl}
}

func (c *Cache) path(stationID string, resolution domain.Resolution) string {
	return filepath.Join(c.dir, "results", fmt.Sprintf("station_%s_%s.json", stationID, resolution))
}

// Read returns the decoded result or nil if absent, stale, or unreadable.
// A corrupt cache file is treated as a miss rather than an error (§7: the
// disk cache absorbs transient failures, it never surfaces one).
func (c *Cache) Read(stationID string, resolution domain.Resolution) *domain.StationResult {
	path := c.path(stationID, resolution)

	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	if time.Since(info.ModTime()) >= c.ttl {
		return nil
	}

	//nolint:gosec // G304: path built from configured cache dir + validated station id.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var result domain.StationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}

	return &result
}

// Write persists a result, replacing the file via a write-then-rename.
// Concurrent writes of the same key are benign: content is idempotent
// within the TTL window (§5).
func (c *Cache) Write(stationID string, resolution domain.Resolution, result domain.StationResult) error {
	path := c.path(stationID, resolution)

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("resultcache: marshal result for station %s: %w", stationID, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("resultcache: create cache dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil { //nolint:gosec // G306: cache files are not secrets.
		return fmt.Errorf("resultcache: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("resultcache: rename into place: %w", err)
	}

	return nil
}
