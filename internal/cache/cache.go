// Package cache stores compiled templates so unchanged sources are not
// recompiled. Entries are keyed by template path and validated against a
// fingerprint of the source and compiler settings.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

const indexVersion = "1"

// Cache is a directory-backed store of compiled templates
type Cache struct {
	mu         sync.RWMutex
	dir        string
	index      *Index
	maxEntries int
	stats      Stats
}

// Index tracks all cached entries
type Index struct {
	Version string            `json:"version"`
	Entries map[string]*Entry `json:"entries"`
	Updated time.Time         `json:"updated"`
}

// Entry is a single compiled template
type Entry struct {
	Key          string    `json:"key"`
	Fingerprint  string    `json:"fingerprint"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	Created      time.Time `json:"created"`
	LastAccess   time.Time `json:"last_access"`
	Dependencies []string  `json:"dependencies,omitempty"`
}

// Artifact is what a lookup returns
type Artifact struct {
	Data         []byte
	Dependencies []string
}

// Stats tracks cache performance
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Entries   int   `json:"entries"`
}

// Config holds cache configuration
type Config struct {
	Dir        string // Cache directory (default: $HOME/.cache/lune)
	MaxEntries int    // Entries kept before evicting the least recently used (0: unlimited)
}

// DefaultConfig returns the default cache configuration
func DefaultConfig() Config {
	homeDir, _ := os.UserHomeDir()
	return Config{
		Dir:        filepath.Join(homeDir, ".cache", "lune"),
		MaxEntries: 4096,
	}
}

// New opens the cache in config.Dir, creating it if needed. A missing or
// corrupt index starts an empty cache.
func New(config Config) (*Cache, error) {
	if config.Dir == "" {
		config.Dir = DefaultConfig().Dir
	}

	if err := os.MkdirAll(filepath.Join(config.Dir, "artifacts"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	c := &Cache{
		dir:        config.Dir,
		maxEntries: config.MaxEntries,
		index:      newIndex(),
	}
	if err := c.loadIndex(); err != nil {
		c.index = newIndex()
	}
	c.stats.Entries = len(c.index.Entries)

	return c, nil
}

// Get returns the artifact stored for key if it was built from fingerprint.
func (c *Cache) Get(key, fingerprint string) (*Artifact, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.index.Entries[key]
	if !ok || entry.Fingerprint != fingerprint {
		c.stats.Misses++
		return nil, false
	}

	data, err := os.ReadFile(entry.Path)
	if err != nil {
		// artifact vanished underneath us
		c.removeLocked(key)
		c.stats.Misses++
		return nil, false
	}

	entry.LastAccess = time.Now()
	c.stats.Hits++

	return &Artifact{Data: data, Dependencies: entry.Dependencies}, true
}

// Put stores data for key, replacing any previous artifact.
func (c *Cache) Put(key, fingerprint string, data []byte, deps []string) error {
	path := filepath.Join(c.dir, "artifacts", sanitizeKey(key)+"_"+fingerprint[:min(8, len(fingerprint))])
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.index.Entries[key]; ok && old.Path != path {
		removeFile(old.Path)
	}

	now := time.Now()
	c.index.Entries[key] = &Entry{
		Key:          key,
		Fingerprint:  fingerprint,
		Path:         path,
		Size:         int64(len(data)),
		Created:      now,
		LastAccess:   now,
		Dependencies: deps,
	}
	c.evictLocked()
	c.index.Updated = now
	c.stats.Entries = len(c.index.Entries)

	return c.saveIndexLocked()
}

// Delete removes key from the cache
func (c *Cache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.index.Entries[key]; !ok {
		return nil
	}
	c.removeLocked(key)
	return c.saveIndexLocked()
}

// Clear removes every entry
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.RemoveAll(filepath.Join(c.dir, "artifacts")); err != nil {
		return fmt.Errorf("failed to clear artifacts: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(c.dir, "artifacts"), 0755); err != nil {
		return fmt.Errorf("failed to recreate artifacts directory: %w", err)
	}

	c.index = newIndex()
	c.stats = Stats{}
	return c.saveIndexLocked()
}

// GetStats returns a snapshot of the statistics
func (c *Cache) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Fingerprint hashes its inputs into a stable hex digest
func Fingerprint(inputs ...string) string {
	h := sha256.New()
	for _, input := range inputs {
		h.Write([]byte(input))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Private methods

func newIndex() *Index {
	return &Index{
		Version: indexVersion,
		Entries: make(map[string]*Entry),
		Updated: time.Now(),
	}
}

func (c *Cache) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(c.dir, "index.json"))
	if err != nil {
		return err
	}

	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return err
	}
	if index.Version != indexVersion || index.Entries == nil {
		return fmt.Errorf("unsupported cache index version %q", index.Version)
	}

	c.index = &index
	return nil
}

// saveIndexLocked writes the index. Caller must hold c.mu.
func (c *Cache) saveIndexLocked() error {
	data, err := json.MarshalIndent(c.index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, "index.json"), data, 0644)
}

func (c *Cache) removeLocked(key string) {
	if entry, ok := c.index.Entries[key]; ok {
		removeFile(entry.Path)
		delete(c.index.Entries, key)
	}
	c.stats.Entries = len(c.index.Entries)
}

// evictLocked drops least recently used entries above maxEntries
func (c *Cache) evictLocked() {
	if c.maxEntries <= 0 {
		return
	}
	for len(c.index.Entries) > c.maxEntries {
		var oldest *Entry
		for _, entry := range c.index.Entries {
			if oldest == nil || entry.LastAccess.Before(oldest.LastAccess) {
				oldest = entry
			}
		}
		c.removeLocked(oldest.Key)
		c.stats.Evictions++
	}
}

func removeFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: failed to remove cache file %s: %v\n", path, err)
	}
}

func sanitizeKey(key string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	sanitized := replacer.Replace(key)

	if len(sanitized) > 100 {
		sanitized = sanitized[len(sanitized)-100:]
	}

	return sanitized
}
