// Package jsonstore persists cooldown records and the inventory ledger as
// flat JSON files, byte-compatible with the artifacts the original desktop
// build wrote (cooldowns.json, inventory.json). A missing or corrupt file
// loads as an empty structure with a warning; writes rewrite the whole file.
package jsonstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/onnwee/casebox/settings"
)

// CooldownFile implements cooldown.Store over a single JSON file mapping
// username to the last grant time as unix seconds (stored as a string, the
// original's convention).
type CooldownFile struct {
	Path string

	mu      sync.Mutex
	records map[string]time.Time
}

// NewCooldownFile creates a store at path (directories are not created).
func NewCooldownFile(path string) *CooldownFile {
	return &CooldownFile{Path: path, records: make(map[string]time.Time)}
}

// Load reads the file. Missing or corrupt file yields an empty map, not an
// error; an unreadable file is the only failure.
func (c *CooldownFile) Load(_ context.Context) (map[string]time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := os.ReadFile(c.Path)
	if os.IsNotExist(err) {
		c.records = make(map[string]time.Time)
		return map[string]time.Time{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.Path, err)
	}
	var enc map[string]string
	if err := json.Unmarshal(raw, &enc); err != nil {
		slog.Warn("cooldown file corrupt, starting empty", slog.String("path", c.Path), slog.Any("err", err))
		c.records = make(map[string]time.Time)
		return map[string]time.Time{}, nil
	}
	c.records = make(map[string]time.Time, len(enc))
	out := make(map[string]time.Time, len(enc))
	for user, v := range enc {
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil {
			continue
		}
		t := time.Unix(int64(secs), 0).UTC()
		c.records[user] = t
		out[user] = t
	}
	return out, nil
}

// Save updates one record and rewrites the file.
func (c *CooldownFile) Save(_ context.Context, username string, last time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[username] = last
	return c.flush()
}

// Clear empties the store and removes the file.
func (c *CooldownFile) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = make(map[string]time.Time)
	err := os.Remove(c.Path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (c *CooldownFile) flush() error {
	enc := make(map[string]string, len(c.records))
	for user, t := range c.records {
		enc[user] = strconv.FormatInt(t.Unix(), 10)
	}
	raw, err := json.MarshalIndent(enc, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(c.Path, raw)
}

// InventoryFile implements inventory.Store over the original inventory.json
// layout: username to an ordered list of owned items.
type InventoryFile struct {
	Path string

	mu    sync.Mutex
	owned map[string][]settings.Item
}

// NewInventoryFile creates a store at path.
func NewInventoryFile(path string) *InventoryFile {
	return &InventoryFile{Path: path, owned: make(map[string][]settings.Item)}
}

// Load reads the file, tolerating absence and corruption.
func (i *InventoryFile) Load(_ context.Context) (map[string][]settings.Item, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	raw, err := os.ReadFile(i.Path)
	if os.IsNotExist(err) {
		i.owned = make(map[string][]settings.Item)
		return map[string][]settings.Item{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", i.Path, err)
	}
	var owned map[string][]settings.Item
	if err := json.Unmarshal(raw, &owned); err != nil {
		slog.Warn("inventory file corrupt, starting empty", slog.String("path", i.Path), slog.Any("err", err))
		i.owned = make(map[string][]settings.Item)
		return map[string][]settings.Item{}, nil
	}
	if owned == nil {
		owned = make(map[string][]settings.Item)
	}
	i.owned = owned
	out := make(map[string][]settings.Item, len(owned))
	for user, items := range owned {
		cp := make([]settings.Item, len(items))
		copy(cp, items)
		out[user] = cp
	}
	return out, nil
}

// Append records one grant and rewrites the file.
func (i *InventoryFile) Append(_ context.Context, username string, item settings.Item) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.owned[username] = append(i.owned[username], item)
	raw, err := json.MarshalIndent(i.owned, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(i.Path, raw)
}

// Clear empties the store and removes the file.
func (i *InventoryFile) Clear(_ context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.owned = make(map[string][]settings.Item)
	err := os.Remove(i.Path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// writeFileAtomic writes via a temp file + rename so a crash mid-write never
// leaves a truncated store behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
