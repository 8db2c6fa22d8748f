// Package inventory tracks which items each user already owns. Like the
// cooldown gate it is an in-memory map behind a mutex with write-through
// persistence; the ledger only grows, except for the administrative reset.
package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/onnwee/casebox/settings"
)

// Store persists the ledger.
type Store interface {
	Load(ctx context.Context) (map[string][]settings.Item, error)
	Append(ctx context.Context, username string, item settings.Item) error
	Clear(ctx context.Context) error
}

// Ledger maps usernames to their owned items, in grant order.
type Ledger struct {
	store Store

	mu    sync.Mutex
	owned map[string][]settings.Item
}

// NewLedger creates an empty ledger. store may be nil (memory only).
func NewLedger(store Store) *Ledger {
	return &Ledger{
		store: store,
		owned: make(map[string][]settings.Item),
	}
}

// Load replaces the in-memory ledger with the store's contents.
func (l *Ledger) Load(ctx context.Context) error {
	if l.store == nil {
		return nil
	}
	owned, err := l.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load inventory: %w", err)
	}
	l.mu.Lock()
	l.owned = owned
	if l.owned == nil {
		l.owned = make(map[string][]settings.Item)
	}
	l.mu.Unlock()
	return nil
}

// Owned returns a copy of the user's items in grant order.
func (l *Ledger) Owned(username string) []settings.Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := l.owned[username]
	out := make([]settings.Item, len(items))
	copy(out, items)
	return out
}

// OwnedNames returns the set of item names the user owns.
func (l *Ledger) OwnedNames(username string) map[string]struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make(map[string]struct{}, len(l.owned[username]))
	for _, it := range l.owned[username] {
		names[it.Name] = struct{}{}
	}
	return names
}

// Grant appends an item to the user's ledger entry. Granting an item the user
// already owns is a no-op. Persistence failure is logged, not returned: the
// in-flight grant response stays correct either way.
func (l *Ledger) Grant(ctx context.Context, username string, item settings.Item) {
	l.mu.Lock()
	already := false
	for _, it := range l.owned[username] {
		if it.Name == item.Name {
			already = true
			break
		}
	}
	if !already {
		l.owned[username] = append(l.owned[username], item)
	}
	l.mu.Unlock()
	if already || l.store == nil {
		return
	}
	if err := l.store.Append(ctx, username, item); err != nil {
		slog.Warn("failed to persist inventory grant",
			slog.String("username", username), slog.String("item", item.Name), slog.Any("err", err))
	}
}

// Reset clears the whole ledger (admin operation). The in-memory map is always
// cleared; the error only reflects the persisted side.
func (l *Ledger) Reset(ctx context.Context) error {
	l.mu.Lock()
	l.owned = make(map[string][]settings.Item)
	l.mu.Unlock()
	if l.store == nil {
		return nil
	}
	if err := l.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear inventory: %w", err)
	}
	return nil
}
