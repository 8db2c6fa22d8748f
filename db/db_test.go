package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/onnwee/casebox/db"
	"github.com/onnwee/casebox/settings"
	"github.com/onnwee/casebox/testutil"
)

func TestCooldownStoreRoundTrip(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()
	store := &db.CooldownStore{DB: database}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	t0 := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	if err := store.Save(ctx, "alice", t0); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// Upsert replaces the record.
	if err := store.Save(ctx, "alice", t0.Add(time.Hour)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || !got["alice"].Equal(t0.Add(time.Hour)) {
		t.Fatalf("Load = %v", got)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, err = store.Load(ctx)
	if err != nil || len(got) != 0 {
		t.Fatalf("after Clear: %v, %v", got, err)
	}
}

func TestInventoryStoreRoundTrip(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()
	store := &db.InventoryStore{DB: database}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if err := store.Append(ctx, "alice", settings.Item{Name: "Crowbar", Rarity: "common"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Append(ctx, "alice", settings.Item{Name: "Katana", Rarity: "rare", ImageURL: "http://x/k.png"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	// The unique constraint swallows duplicate grants.
	if err := store.Append(ctx, "alice", settings.Item{Name: "Crowbar", Rarity: "common"}); err != nil {
		t.Fatalf("duplicate Append: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	items := got["alice"]
	if len(items) != 2 || items[0].Name != "Crowbar" || items[1].ImageURL != "http://x/k.png" {
		t.Fatalf("Load = %+v", got)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
}
