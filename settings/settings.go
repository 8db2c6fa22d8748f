// Package settings loads and holds the case configuration: the weighted rarity
// table, the item catalog, and the channel/bot credentials. The on-disk format
// is the settings.json the companion editor writes. A missing or corrupt file
// never fails startup; defaults are substituted and the problem is logged.
//
// The loaded snapshot is immutable. Reload parses the file again and swaps the
// snapshot atomically, so a selection that started against the old table
// finishes against it.
package settings

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync/atomic"
)

// Rarity is one weighted tier of the drop table.
type Rarity struct {
	Key    string  `json:"key"`
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	Weight float64 `json:"weight"`
}

// Item is one obtainable drop. Rarity references a Rarity.Key; items whose
// rarity is unknown stay in the catalog but are never selected.
type Item struct {
	Name     string `json:"name"`
	Rarity   string `json:"rarity"`
	ImageURL string `json:"image_url,omitempty"`
}

// Snapshot is one immutable view of the settings file. All lookup helpers are
// safe for concurrent use.
type Snapshot struct {
	Channel    string
	OAuthToken string
	Rarities   []Rarity
	Items      []Item

	rarityIndex map[string]int
	itemsByKey  map[string][]Item
}

// RarityByKey returns the rarity for a key, if known.
func (s *Snapshot) RarityByKey(key string) (Rarity, bool) {
	i, ok := s.rarityIndex[key]
	if !ok {
		return Rarity{}, false
	}
	return s.Rarities[i], true
}

// ItemsByRarity returns the catalog items configured for a rarity key, in
// catalog order.
func (s *Snapshot) ItemsByRarity(key string) []Item {
	return s.itemsByKey[key]
}

// SelectableItems returns every item whose rarity key is known, in catalog
// order. Items referencing an unknown rarity are excluded.
func (s *Snapshot) SelectableItems() []Item {
	out := make([]Item, 0, len(s.Items))
	for _, it := range s.Items {
		if _, ok := s.rarityIndex[it.Rarity]; ok {
			out = append(out, it)
		}
	}
	return out
}

// FallbackRarity is the designated lowest tier: the first configured rarity.
func (s *Snapshot) FallbackRarity() string {
	if len(s.Rarities) > 0 {
		return s.Rarities[0].Key
	}
	return "common"
}

// New builds an indexed snapshot from an in-memory table, applying the same
// repairs as a file load.
func New(channel, token string, rarities []Rarity, items []Item) *Snapshot {
	return build(channel, token, rarities, items)
}

// Store owns the settings file path and the current snapshot.
type Store struct {
	path string
	snap atomic.Pointer[Snapshot]
}

// Load reads the settings file at path, creating it with defaults when absent.
// A corrupt file is logged and replaced in memory (not on disk) by defaults.
func Load(path string) *Store {
	st := &Store{path: path}
	st.snap.Store(defaultSnapshot())
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeDefaults(path); err != nil {
			slog.Warn("could not seed default settings file", slog.String("path", path), slog.Any("err", err))
		}
		return st
	}
	if err := st.Reload(); err != nil {
		slog.Warn("settings file unreadable, using defaults", slog.String("path", path), slog.Any("err", err))
	}
	return st
}

// Snapshot returns the current immutable settings view.
func (st *Store) Snapshot() *Snapshot {
	return st.snap.Load()
}

// Reload re-reads the settings file and atomically replaces the snapshot.
// On error the previous snapshot stays in place.
func (st *Store) Reload() error {
	raw, err := os.ReadFile(st.path)
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	snap, err := parse(raw)
	if err != nil {
		return fmt.Errorf("parse settings: %w", err)
	}
	st.snap.Store(snap)
	slog.Info("settings loaded",
		slog.String("path", st.path),
		slog.Int("rarities", len(snap.Rarities)),
		slog.Int("items", len(snap.Items)))
	return nil
}

// fileSettings mirrors the settings.json layout. Rarities is kept raw because
// two shapes are accepted: the current ordered array and the legacy map keyed
// by rarity key.
type fileSettings struct {
	Channel            string          `json:"channel"`
	OAuthToken         string          `json:"oauth_token"`
	OpenBrowserOnStart bool            `json:"open_browser_on_start"`
	Rarities           json.RawMessage `json:"rarities"`
	Items              []Item          `json:"items"`
}

// legacyRarity is the map-entry shape of the original editor ("chance", not
// "weight").
type legacyRarity struct {
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	Chance float64 `json:"chance"`
}

func parse(raw []byte) (*Snapshot, error) {
	var fs fileSettings
	if err := json.Unmarshal(raw, &fs); err != nil {
		return nil, err
	}

	var rarities []Rarity
	if len(fs.Rarities) > 0 {
		if err := json.Unmarshal(fs.Rarities, &rarities); err != nil {
			// Legacy map form: normalize to a canonical order (descending
			// weight, ties by key) so selection walks a stable sequence.
			var legacy map[string]legacyRarity
			if err2 := json.Unmarshal(fs.Rarities, &legacy); err2 != nil {
				return nil, fmt.Errorf("rarities: %w", err)
			}
			for key, lr := range legacy {
				rarities = append(rarities, Rarity{Key: key, Name: lr.Name, Color: lr.Color, Weight: lr.Chance})
			}
			sort.Slice(rarities, func(i, j int) bool {
				if rarities[i].Weight != rarities[j].Weight {
					return rarities[i].Weight > rarities[j].Weight
				}
				return rarities[i].Key < rarities[j].Key
			})
		}
	}

	return build(fs.Channel, fs.OAuthToken, rarities, fs.Items), nil
}

// build validates and indexes a snapshot. Repairable problems (duplicate keys,
// negative weights, unknown item rarities) are fixed or tolerated with a log
// line rather than rejected; the selector must keep working with whatever the
// editor saved.
func build(channel, token string, rarities []Rarity, items []Item) *Snapshot {
	snap := &Snapshot{
		Channel:     channel,
		OAuthToken:  token,
		rarityIndex: make(map[string]int),
		itemsByKey:  make(map[string][]Item),
	}
	for _, r := range rarities {
		if r.Key == "" {
			slog.Warn("settings: rarity with empty key dropped")
			continue
		}
		if _, dup := snap.rarityIndex[r.Key]; dup {
			slog.Warn("settings: duplicate rarity key dropped", slog.String("key", r.Key))
			continue
		}
		if r.Weight < 0 {
			slog.Warn("settings: negative rarity weight clamped to 0", slog.String("key", r.Key), slog.Float64("weight", r.Weight))
			r.Weight = 0
		}
		snap.rarityIndex[r.Key] = len(snap.Rarities)
		snap.Rarities = append(snap.Rarities, r)
	}
	for _, it := range items {
		if it.Name == "" {
			continue
		}
		snap.Items = append(snap.Items, it)
		if _, ok := snap.rarityIndex[it.Rarity]; ok {
			snap.itemsByKey[it.Rarity] = append(snap.itemsByKey[it.Rarity], it)
		} else {
			slog.Warn("settings: item references unknown rarity, excluded from selection",
				slog.String("item", it.Name), slog.String("rarity", it.Rarity))
		}
	}
	return snap
}

func writeDefaults(path string) error {
	snap := defaultSnapshot()
	fs := struct {
		Channel            string   `json:"channel"`
		OAuthToken         string   `json:"oauth_token"`
		OpenBrowserOnStart bool     `json:"open_browser_on_start"`
		Rarities           []Rarity `json:"rarities"`
		Items              []Item   `json:"items"`
	}{
		Channel:            snap.Channel,
		OAuthToken:         snap.OAuthToken,
		OpenBrowserOnStart: true,
		Rarities:           snap.Rarities,
		Items:              snap.Items,
	}
	raw, err := json.MarshalIndent(fs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
