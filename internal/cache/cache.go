// Package cache stores resolved registry versions on disk with a TTL.
//
// Each package gets its own JSON record under the cache directory, keyed by a
// filesystem-safe transform of its name. Records are replaced atomically so a
// concurrent reader never observes a partial write. The cache is a best-effort
// optimization: stale or unreadable records are simply treated as misses.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultTTL is used when a caller passes a non-positive TTL to Get.
const DefaultTTL = time.Hour

// memEntries bounds the in-memory front so a huge cache directory cannot
// balloon resident memory during a single run.
const memEntries = 512

// record is the on-disk shape of one cache entry.
type record struct {
	Version   string    `json:"version"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Cache is an on-disk version cache with a small in-memory LRU front.
// It is safe for concurrent use by resolver workers.
type Cache struct {
	dir string
	mem *lru.Cache[string, record]
}

// New creates a Cache rooted at dir, creating the directory if needed.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	mem, err := lru.New[string, record](memEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}

	return &Cache{dir: dir, mem: mem}, nil
}

// keyFor maps a package name to a filesystem-safe cache key. The slash in
// scoped names (@vue/cli) becomes a double underscore, so "@vue/cli" and a
// literal "vue_cli" never collide. A package literally named "@vue__cli"
// would collide, but npm does not publish such names; this is a documented
// limitation rather than a solved problem.
func keyFor(name string) string {
	return strings.ReplaceAll(name, "/", "__")
}

func (c *Cache) recordPath(name string) string {
	return filepath.Join(c.dir, keyFor(name)+".json")
}

// Get returns the cached version for name if it was fetched within ttl.
// A non-positive ttl selects DefaultTTL. Stale records are ignored, not
// deleted; deletion only happens through Clear or the next Put.
func (c *Cache) Get(name string, ttl time.Duration) (string, bool) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	// Within one invocation the memory front is never older than disk:
	// Put refreshes both, so a stale memory record means a stale disk record.
	if rec, ok := c.mem.Get(name); ok {
		if time.Since(rec.FetchedAt) < ttl {
			return rec.Version, true
		}
		return "", false
	}

	data, err := os.ReadFile(c.recordPath(name))
	if err != nil {
		return "", false
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil || rec.Version == "" {
		// Corrupt record: treat as a miss, self-heals on the next Put.
		return "", false
	}

	c.mem.Add(name, rec)

	if time.Since(rec.FetchedAt) < ttl {
		return rec.Version, true
	}
	return "", false
}

// Put stores version for name with the current timestamp. The record is
// written to a temporary file in the same directory and renamed into place,
// so readers either see the old record or the new one, never a torn write.
func (c *Cache) Put(name, version string) error {
	rec := record{Version: version, FetchedAt: time.Now()}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal cache record for %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(c.dir, keyFor(name)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache record for %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp cache file for %s: %w", name, err)
	}

	if err := os.Rename(tmpName, c.recordPath(name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace cache record for %s: %w", name, err)
	}

	c.mem.Add(name, rec)
	return nil
}

// Clear removes every cache record and empties the memory front.
func (c *Cache) Clear() error {
	c.mem.Purge()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			return fmt.Errorf("failed to remove cache record %s: %w", entry.Name(), err)
		}
	}

	return nil
}

// Stats reports the number of records on disk and the oldest fetch time.
// The zero time is returned when the cache is empty.
func (c *Cache) Stats() (count int, oldest time.Time, err error) {
	entries, readErr := os.ReadDir(c.dir)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return 0, time.Time{}, nil
		}
		return 0, time.Time{}, fmt.Errorf("failed to read cache directory: %w", readErr)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, readErr := os.ReadFile(filepath.Join(c.dir, entry.Name()))
		if readErr != nil {
			continue
		}

		var rec record
		if json.Unmarshal(data, &rec) != nil {
			continue
		}

		count++
		if oldest.IsZero() || rec.FetchedAt.Before(oldest) {
			oldest = rec.FetchedAt
		}
	}

	return count, oldest, nil
}
