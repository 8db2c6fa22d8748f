// Package drop implements the grant pipeline: the weighted rarity selector,
// the duplicate-averse item picker, and the orchestration that turns "open a
// case for user U" into a ledger and cooldown mutation.
package drop

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/onnwee/casebox/cooldown"
	"github.com/onnwee/casebox/inventory"
	"github.com/onnwee/casebox/settings"
	"github.com/onnwee/casebox/telemetry"
)

// ErrInvalidRequest is returned for requests with no username. It is the only
// error Open surfaces besides ErrNoItems; a cooldown denial is a Result, not
// an error.
var ErrInvalidRequest = errors.New("username required")

// ErrNoItems is returned when the catalog has no selectable items at all.
var ErrNoItems = errors.New("no selectable items configured")

// Config holds grant pipeline policy knobs.
type Config struct {
	// WidenOnEmptyRarity controls the recovery when the selected rarity has no
	// matching items: widen to the full selectable catalog (the original
	// behavior) or re-treat the pick as the fallback tier's.
	WidenOnEmptyRarity bool
}

// Result is the outcome of one open attempt.
type Result struct {
	Denied    bool
	Remaining int // seconds, set when Denied

	Item       settings.Item
	RarityKey  string
	RarityName string
	AlreadyOwn bool
}

// SnapshotProvider yields the current settings snapshot.
type SnapshotProvider interface {
	Snapshot() *settings.Snapshot
}

// Service orchestrates Gate, selector, picker and Ledger. Rand guards its own
// source because grants may run concurrently.
type Service struct {
	Settings SnapshotProvider
	Gate     *cooldown.Gate
	Ledger   *inventory.Ledger
	Config   Config

	// Rand, when set, replaces the process-wide source; tests seed it for
	// reproducible draws.
	Rand *rand.Rand

	randMu sync.Mutex
}

func (s *Service) randFloat() float64 {
	if s.Rand == nil {
		return rand.Float64()
	}
	s.randMu.Lock()
	defer s.randMu.Unlock()
	return s.Rand.Float64()
}

func (s *Service) randIntn(n int) int {
	if s.Rand == nil {
		return rand.Intn(n)
	}
	s.randMu.Lock()
	defer s.randMu.Unlock()
	return s.Rand.Intn(n)
}

// Open runs the grant pipeline for a user at the given time. No state is
// touched before the cooldown check passes. The ledger write and the cooldown
// write are two independent critical sections, not one transaction.
func (s *Service) Open(ctx context.Context, username string, now time.Time) (Result, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Result{}, ErrInvalidRequest
	}

	eligible, remaining := s.Gate.CheckEligible(username, now)
	if !eligible {
		telemetry.CountCooldownDenial()
		return Result{Denied: true, Remaining: remaining}, nil
	}

	snap := s.Settings.Snapshot()
	rarityKey := s.selectRarity(snap)
	item, already, err := s.pickItem(snap, rarityKey, s.Ledger.OwnedNames(username))
	if err != nil {
		return Result{}, err
	}

	if !already {
		s.Ledger.Grant(ctx, username, item)
	}
	s.Gate.RecordGrant(ctx, username, now)

	rarityName := item.Rarity
	if r, ok := snap.RarityByKey(item.Rarity); ok {
		rarityName = r.Name
	}
	telemetry.CountCaseOpened(already)
	slog.Info("case opened",
		slog.String("username", username),
		slog.String("item", item.Name),
		slog.String("rarity", item.Rarity),
		slog.Bool("already_own", already))

	return Result{
		Item:       item,
		RarityKey:  item.Rarity,
		RarityName: rarityName,
		AlreadyOwn: already,
	}, nil
}

// selectRarity draws a rarity tier by inverse CDF over the configured weights.
// Only rarities with positive weight and at least one catalog item are
// candidates; the walk order is the snapshot's rarity order, so draws are
// reproducible under a seeded source.
func (s *Service) selectRarity(snap *settings.Snapshot) string {
	var candidates []settings.Rarity
	total := 0.0
	for _, r := range snap.Rarities {
		if r.Weight > 0 && len(snap.ItemsByRarity(r.Key)) > 0 {
			candidates = append(candidates, r)
			total += r.Weight
		}
	}
	if len(candidates) == 0 {
		return snap.FallbackRarity()
	}
	if total <= 0 {
		// Cannot happen given the weight>0 filter, but guard the division.
		return candidates[s.randIntn(len(candidates))].Key
	}

	draw := s.randFloat() * total
	cum := 0.0
	for _, r := range candidates {
		cum += r.Weight
		if draw < cum {
			return r.Key
		}
	}
	return candidates[len(candidates)-1].Key
}

// pickItem chooses a concrete item of the given rarity, preferring items the
// user does not own yet. When the rarity has no matching items (a
// data-consistency gap) the candidate set widens to the whole selectable
// catalog if policy allows, otherwise to the fallback tier.
func (s *Service) pickItem(snap *settings.Snapshot, rarityKey string, owned map[string]struct{}) (settings.Item, bool, error) {
	candidates := snap.ItemsByRarity(rarityKey)
	if len(candidates) == 0 {
		telemetry.CountSelectorFallback()
		if s.Config.WidenOnEmptyRarity {
			candidates = snap.SelectableItems()
			slog.Warn("rarity has no items, widened to full catalog", slog.String("rarity", rarityKey))
		} else {
			candidates = snap.ItemsByRarity(snap.FallbackRarity())
			slog.Warn("rarity has no items, fell back to lowest tier", slog.String("rarity", rarityKey))
		}
	}
	if len(candidates) == 0 {
		return settings.Item{}, false, ErrNoItems
	}

	novel := make([]settings.Item, 0, len(candidates))
	for _, it := range candidates {
		if _, own := owned[it.Name]; !own {
			novel = append(novel, it)
		}
	}
	if len(novel) > 0 {
		return novel[s.randIntn(len(novel))], false, nil
	}
	return candidates[s.randIntn(len(candidates))], true, nil
}
