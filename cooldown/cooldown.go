// Package cooldown tracks the per-user grant cooldown. The record map lives in
// memory behind a mutex; mutations are written through to an optional Store so
// cooldowns survive a restart.
package cooldown

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DefaultWindow is the interval a user must wait between grants.
const DefaultWindow = 3600 * time.Second

// Store persists cooldown records. Implementations must tolerate concurrent
// calls; the Gate serializes its own map but not the store.
type Store interface {
	Load(ctx context.Context) (map[string]time.Time, error)
	Save(ctx context.Context, username string, last time.Time) error
	Clear(ctx context.Context) error
}

// Gate decides grant eligibility per user.
type Gate struct {
	window time.Duration
	store  Store

	mu   sync.Mutex
	last map[string]time.Time
}

// NewGate creates a gate with the given window. A zero window means
// DefaultWindow. store may be nil (memory only).
func NewGate(window time.Duration, store Store) *Gate {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Gate{
		window: window,
		store:  store,
		last:   make(map[string]time.Time),
	}
}

// Window returns the configured cooldown window.
func (g *Gate) Window() time.Duration { return g.window }

// Load replaces the in-memory records with the store's contents. A load
// failure leaves the gate empty and is reported; the caller decides whether
// that is fatal (it never is for this service).
func (g *Gate) Load(ctx context.Context) error {
	if g.store == nil {
		return nil
	}
	records, err := g.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load cooldowns: %w", err)
	}
	g.mu.Lock()
	g.last = records
	if g.last == nil {
		g.last = make(map[string]time.Time)
	}
	g.mu.Unlock()
	return nil
}

// CheckEligible reports whether a user may open a case at the given time, and
// if not, the whole seconds remaining. A user with no record is eligible.
// Eligibility is inclusive at exactly the window boundary.
func (g *Gate) CheckEligible(username string, now time.Time) (bool, int) {
	g.mu.Lock()
	last, ok := g.last[username]
	g.mu.Unlock()
	if !ok {
		return true, 0
	}
	elapsed := now.Sub(last)
	if elapsed >= g.window {
		return true, 0
	}
	remaining := int(g.window.Seconds()) - int(elapsed.Seconds())
	return false, remaining
}

// RecordGrant unconditionally overwrites the user's record and writes it
// through. A persistence failure only risks durability, so it is logged, not
// returned.
func (g *Gate) RecordGrant(ctx context.Context, username string, now time.Time) {
	g.mu.Lock()
	g.last[username] = now
	g.mu.Unlock()
	if g.store != nil {
		if err := g.store.Save(ctx, username, now); err != nil {
			slog.Warn("failed to persist cooldown record", slog.String("username", username), slog.Any("err", err))
		}
	}
}

// Reset clears every record (admin operation). The in-memory map is always
// cleared; the error only reflects the persisted side.
func (g *Gate) Reset(ctx context.Context) error {
	g.mu.Lock()
	g.last = make(map[string]time.Time)
	g.mu.Unlock()
	if g.store == nil {
		return nil
	}
	if err := g.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear cooldowns: %w", err)
	}
	return nil
}

// FormatRemaining renders a remaining-seconds value for chat display,
// decomposed into hours/minutes/seconds with zero-valued higher units
// omitted. Zero or negative renders as "now".
func FormatRemaining(seconds int) string {
	if seconds <= 0 {
		return "now"
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	var parts []string
	if h > 0 {
		parts = append(parts, fmt.Sprintf("%d h", h))
	}
	if m > 0 {
		parts = append(parts, fmt.Sprintf("%d min", m))
	}
	if s > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%d sec", s))
	}
	return strings.Join(parts, " ")
}
