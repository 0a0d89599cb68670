package weather

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"poster/pkg/utils"
)

// CacheFileName is stored next to the state file so the TTL spans runs.
const CacheFileName = "weather_cache.json"

// Cache holds the last report with its fetch time. The zero value and a nil
// *Cache are both valid and simply never fresh.
type Cache struct {
	mu        sync.Mutex
	path      string
	ttl       time.Duration
	Report    *Report   `json:"report"`
	FetchedAt time.Time `json:"fetched_at"`
}

// LoadCache reads the cache from dir. A missing or corrupt file yields an empty cache.
func LoadCache(dir string, ttl time.Duration) *Cache {
	c := &Cache{path: filepath.Join(dir, CacheFileName), ttl: ttl}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return c
	}
	if err := json.Unmarshal(data, c); err != nil {
		c.Report, c.FetchedAt = nil, time.Time{}
	}
	return c
}

// Fresh returns the cached report when it is younger than the TTL.
func (c *Cache) Fresh(now time.Time) *Report {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Report == nil || c.FetchedAt.IsZero() {
		return nil
	}
	if age := now.Sub(c.FetchedAt); age < 0 || age >= c.ttl {
		return nil
	}
	r := *c.Report
	return &r
}

// Store replaces the cached report and persists it when the cache has a path.
func (c *Cache) Store(r *Report, now time.Time) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Report = r
	c.FetchedAt = now
	if c.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode weather cache: %w", err)
	}
	if err := utils.WriteFileAtomic(c.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write weather cache: %w", err)
	}
	return nil
}
