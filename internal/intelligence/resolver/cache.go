package resolver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/renameio/v2"

	"github.com/turtacn/OntoGround/internal/domain/ontology"
	"github.com/turtacn/OntoGround/pkg/errors"
)

// expiry holds positive and negative entry lifetimes. Zero means no expiry.
type expiry struct {
	ttl    time.Duration
	negTTL time.Duration
}

func (x expiry) expired(e ontology.CacheEntry, now time.Time) bool {
	ttl := x.ttl
	if !e.Found {
		ttl = x.negTTL
	}
	return ttl > 0 && !e.CachedAt.IsZero() && now.Sub(e.CachedAt) > ttl
}

// ─────────────────────────────────────────────────────────────────────────────
// MemoryCache
// ─────────────────────────────────────────────────────────────────────────────

// MemoryCache is a process-local LookupCache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]ontology.CacheEntry
	expiry  expiry
	now     func() time.Time
}

// NewMemoryCache returns an empty cache. Zero TTLs disable expiry.
func NewMemoryCache(ttl, negativeTTL time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]ontology.CacheEntry),
		expiry:  expiry{ttl: ttl, negTTL: negativeTTL},
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (ontology.CacheEntry, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.expiry.expired(e, c.now()) {
		return ontology.CacheEntry{}, false, nil
	}
	return e, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, e ontology.CacheEntry) error {
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Load(context.Context) error  { return nil }
func (c *MemoryCache) Flush(context.Context) error { return nil }

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// ─────────────────────────────────────────────────────────────────────────────
// FileCache
// ─────────────────────────────────────────────────────────────────────────────

// FileCache is a MemoryCache persisted as one JSON object. Load reads the
// file (a missing file is an empty cache); Flush replaces it atomically when
// anything changed since the last Load or Flush.
type FileCache struct {
	*MemoryCache
	path  string
	dirty bool
	fmu   sync.Mutex
}

// NewFileCache returns a cache backed by path.
func NewFileCache(path string, ttl, negativeTTL time.Duration) *FileCache {
	return &FileCache{MemoryCache: NewMemoryCache(ttl, negativeTTL), path: path}
}

// Path returns the backing file.
func (c *FileCache) Path() string { return c.path }

func (c *FileCache) Set(ctx context.Context, key string, e ontology.CacheEntry) error {
	c.fmu.Lock()
	c.dirty = true
	c.fmu.Unlock()
	return c.MemoryCache.Set(ctx, key, e)
}

func (c *FileCache) Load(_ context.Context) error {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Persistence(err, "failed to read lookup cache").WithDetail(c.path)
	}
	entries := make(map[string]ontology.CacheEntry)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &entries); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "lookup cache is corrupt").WithDetail(c.path)
		}
	}

	c.mu.Lock()
	for k, e := range entries {
		if _, exists := c.entries[k]; !exists {
			c.entries[k] = e
		}
	}
	c.mu.Unlock()
	return nil
}

func (c *FileCache) Flush(_ context.Context) error {
	c.fmu.Lock()
	defer c.fmu.Unlock()
	if !c.dirty {
		return nil
	}

	c.mu.RLock()
	now := c.now()
	live := make(map[string]ontology.CacheEntry, len(c.entries))
	for k, e := range c.entries {
		if !c.expiry.expired(e, now) {
			live[k] = e
		}
	}
	data, err := json.MarshalIndent(live, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode lookup cache")
	}

	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Persistence(err, "failed to create lookup cache directory").WithDetail(dir)
		}
	}
	if err := renameio.WriteFile(c.path, data, 0o644); err != nil {
		return errors.Persistence(err, "failed to write lookup cache").WithDetail(c.path)
	}
	c.dirty = false
	return nil
}

//Personal.AI order the ending
