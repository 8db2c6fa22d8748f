package jsonstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/onnwee/casebox/settings"
)

func TestCooldownRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cooldowns.json")
	ctx := context.Background()

	s := NewCooldownFile(path)
	t0 := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	if err := s.Save(ctx, "alice", t0); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, "bob", t0.Add(time.Minute)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// A fresh store reads the same records back.
	s2 := NewCooldownFile(path)
	got, err := s2.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 || !got["alice"].Equal(t0) {
		t.Fatalf("Load = %v", got)
	}

	// On-disk format is username -> unix seconds as a string.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var enc map[string]string
	if err := json.Unmarshal(raw, &enc); err != nil {
		t.Fatalf("file is not a string map: %v", err)
	}
	if enc["alice"] != "1748800800" {
		t.Fatalf("alice encoded as %q", enc["alice"])
	}
}

func TestCooldownMissingAndCorrupt(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	missing := NewCooldownFile(filepath.Join(dir, "nope.json"))
	got, err := missing.Load(ctx)
	if err != nil || len(got) != 0 {
		t.Fatalf("missing file Load = %v, %v", got, err)
	}

	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("{{{"), 0o644); err != nil {
		t.Fatal(err)
	}
	corrupt := NewCooldownFile(path)
	got, err = corrupt.Load(ctx)
	if err != nil || len(got) != 0 {
		t.Fatalf("corrupt file Load = %v, %v", got, err)
	}
}

func TestCooldownSkipsUnparseableValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cooldowns.json")
	if err := os.WriteFile(path, []byte(`{"alice":"1748800800","bob":"soon"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := NewCooldownFile(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Load = %v, want only the parseable record", got)
	}
}

func TestCooldownClearRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cooldowns.json")
	ctx := context.Background()
	s := NewCooldownFile(path)
	if err := s.Save(ctx, "alice", time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file should be removed, stat err = %v", err)
	}
	// Clearing again is fine.
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}

func TestInventoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")
	ctx := context.Background()

	s := NewInventoryFile(path)
	if err := s.Append(ctx, "alice", settings.Item{Name: "Crowbar", Rarity: "common"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(ctx, "alice", settings.Item{Name: "Katana", Rarity: "rare", ImageURL: "http://x/k.png"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := NewInventoryFile(path).Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	items := got["alice"]
	if len(items) != 2 || items[0].Name != "Crowbar" || items[1].ImageURL != "http://x/k.png" {
		t.Fatalf("Load = %+v", got)
	}
}

func TestInventoryCorruptStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")
	if err := os.WriteFile(path, []byte("[1,2,3]"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := NewInventoryFile(path).Load(context.Background())
	if err != nil || len(got) != 0 {
		t.Fatalf("corrupt Load = %v, %v", got, err)
	}
}
