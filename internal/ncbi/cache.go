package ncbi

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type cachedEntry struct {
	FASTA       string `json:"fasta"`
	RetrievedAt int64  `json:"retrieved_at"`
}

// Cache is a JSON file of fetched FASTA records keyed by accession. Entries
// older than the TTL are ignored (a TTL <= 0 keeps entries forever).
type Cache struct {
	mu      sync.RWMutex
	path    string
	ttl     time.Duration
	entries map[string]cachedEntry
	loaded  bool
	dirty   bool
	now     func() time.Time
}

// DefaultCachePath returns <user cache dir>/seqanalyzer/ncbi_cache.json,
// falling back to the temp dir.
func DefaultCachePath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "seqanalyzer", "ncbi_cache.json")
	}
	return filepath.Join(os.TempDir(), "seqanalyzer_ncbi_cache.json")
}

// NewCache returns a cache backed by path (DefaultCachePath when empty). The
// file is read lazily on first use.
func NewCache(path string, ttl time.Duration) *Cache {
	if path == "" {
		path = DefaultCachePath()
	}
	return &Cache{path: path, ttl: ttl, now: time.Now}
}

// Path returns the backing file path.
func (c *Cache) Path() string { return c.path }

func (c *Cache) load() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return
	}
	c.entries = make(map[string]cachedEntry)
	c.loaded = true
	data, err := os.ReadFile(c.path)
	if err != nil {
		return
	}
	// a corrupt cache is treated as empty and rewritten on the next Flush
	_ = json.Unmarshal(data, &c.entries)
}

// Get returns the cached FASTA text for acc if present and fresh.
func (c *Cache) Get(acc string) (string, bool) {
	c.load()
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[acc]
	if !ok {
		return "", false
	}
	if c.ttl > 0 && c.now().Sub(time.Unix(e.RetrievedAt, 0)) > c.ttl {
		return "", false
	}
	return e.FASTA, true
}

// Set stores text for acc. Empty values are ignored.
func (c *Cache) Set(acc, text string) {
	if acc == "" || text == "" {
		return
	}
	c.load()
	c.mu.Lock()
	c.entries[acc] = cachedEntry{FASTA: text, RetrievedAt: c.now().Unix()}
	c.dirty = true
	c.mu.Unlock()
}

// Flush writes the cache to disk if it changed.
func (c *Cache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("ncbi cache: create dir: %w", err)
	}
	b, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.path, b, 0o644); err != nil {
		return fmt.Errorf("ncbi cache: write: %w", err)
	}
	c.dirty = false
	return nil
}
