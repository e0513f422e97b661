// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache memoizes external-call results under composite string keys.
// FileCache mirrors a single JSON file in memory and rewrites the whole file
// on every Set. It assumes a single writing process.
package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/afero"
)

// Cache is the key/value memo shared by the source adapters. Values are raw
// JSON payloads; entries never expire.
type Cache interface {
	// Get returns the stored value, or false on a miss.
	Get(key string) (json.RawMessage, bool)
	// Set stores value under key. On error the cache is left unchanged.
	Set(key string, value json.RawMessage) error
	// GetAll returns a snapshot of every entry.
	GetAll() map[string]json.RawMessage
}

// FileCache is a Cache persisted as one JSON object in a file.
type FileCache struct {
	mu      sync.RWMutex
	fs      afero.Fs
	path    string
	entries map[string]json.RawMessage
}

// Open loads the cache file at path. A missing file yields an empty cache;
// the file is created on the first Set.
func Open(fs afero.Fs, path string) (*FileCache, error) {
	c := &FileCache{
		fs:      fs,
		path:    path,
		entries: make(map[string]json.RawMessage),
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("reading cache file %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, fmt.Errorf("parsing cache file %s: %w", path, err)
	}
	return c, nil
}

// Path returns the backing file path.
func (c *FileCache) Path() string { return c.path }

// Get returns a copy of the stored value.
func (c *FileCache) Get(key string) (json.RawMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return clone(v), true
}

// Set stores value and rewrites the cache file. If the write fails the
// in-memory entry is rolled back and the error returned.
func (c *FileCache) Set(key string, value json.RawMessage) error {
	compacted, err := compact(key, value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prev, had := c.entries[key]
	c.entries[key] = compacted

	if err := c.flush(); err != nil {
		if had {
			c.entries[key] = prev
		} else {
			delete(c.entries, key)
		}
		return err
	}
	return nil
}

// GetAll returns a snapshot of every entry.
func (c *FileCache) GetAll() map[string]json.RawMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]json.RawMessage, len(c.entries))
	for k, v := range c.entries {
		out[k] = clone(v)
	}
	return out
}

// Keys returns every cache key in sorted order.
func (c *FileCache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedKeys(c.entries)
}

// flush writes the whole map to a temporary file and renames it over the
// cache file. Callers hold c.mu.
func (c *FileCache) flush() error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(c.entries); err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}
	data := buf.Bytes()

	if dir := filepath.Dir(c.path); dir != "." {
		if err := c.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating cache directory: %w", err)
		}
	}

	tmp := c.path + ".tmp"
	if err := afero.WriteFile(c.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err := c.fs.Rename(tmp, c.path); err != nil {
		c.fs.Remove(tmp)
		return fmt.Errorf("replacing cache file: %w", err)
	}
	return nil
}

// MemoryCache is a Cache that never touches disk.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]json.RawMessage
}

// NewMemory returns an empty in-memory cache.
func NewMemory() *MemoryCache {
	return &MemoryCache{entries: make(map[string]json.RawMessage)}
}

func (c *MemoryCache) Get(key string) (json.RawMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return clone(v), true
}

func (c *MemoryCache) Set(key string, value json.RawMessage) error {
	compacted, err := compact(key, value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = compacted
	return nil
}

func (c *MemoryCache) GetAll() map[string]json.RawMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]json.RawMessage, len(c.entries))
	for k, v := range c.entries {
		out[k] = clone(v)
	}
	return out
}

// compact validates value and strips insignificant whitespace so stored
// bytes survive a save/load round trip unchanged.
func compact(key string, value json.RawMessage) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, value); err != nil {
		return nil, fmt.Errorf("cache value for %q is not valid JSON: %w", key, err)
	}
	return json.RawMessage(buf.Bytes()), nil
}

func clone(v json.RawMessage) json.RawMessage {
	return append(json.RawMessage(nil), v...)
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
