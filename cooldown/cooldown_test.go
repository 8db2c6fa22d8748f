package cooldown

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	records map[string]time.Time
	saves   int
	clears  int
	saveErr error
}

func (f *fakeStore) Load(context.Context) (map[string]time.Time, error) {
	out := make(map[string]time.Time, len(f.records))
	for k, v := range f.records {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) Save(_ context.Context, username string, last time.Time) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.records == nil {
		f.records = make(map[string]time.Time)
	}
	f.records[username] = last
	f.saves++
	return nil
}

func (f *fakeStore) Clear(context.Context) error {
	f.records = make(map[string]time.Time)
	f.clears++
	return nil
}

func TestCheckEligibleBoundary(t *testing.T) {
	g := NewGate(3600*time.Second, nil)
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	g.RecordGrant(context.Background(), "alice", t0)

	cases := []struct {
		name      string
		at        time.Time
		eligible  bool
		remaining int
	}{
		{"immediately after", t0, false, 3600},
		{"one second in", t0.Add(1 * time.Second), false, 3599},
		{"one second before boundary", t0.Add(3599 * time.Second), false, 1},
		{"exactly at boundary", t0.Add(3600 * time.Second), true, 0},
		{"past boundary", t0.Add(2 * time.Hour), true, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, rem := g.CheckEligible("alice", tc.at)
			if ok != tc.eligible || rem != tc.remaining {
				t.Fatalf("CheckEligible at %v = (%v, %d), want (%v, %d)", tc.at, ok, rem, tc.eligible, tc.remaining)
			}
		})
	}
}

func TestCheckEligibleUnknownUser(t *testing.T) {
	g := NewGate(0, nil)
	ok, rem := g.CheckEligible("nobody", time.Now())
	if !ok || rem != 0 {
		t.Fatalf("unknown user = (%v, %d), want (true, 0)", ok, rem)
	}
	if g.Window() != DefaultWindow {
		t.Fatalf("zero window should default to %v, got %v", DefaultWindow, g.Window())
	}
}

func TestRecordGrantOverwrites(t *testing.T) {
	g := NewGate(time.Hour, nil)
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	g.RecordGrant(context.Background(), "bob", t0)
	// A later grant restarts the window from the new instant.
	t1 := t0.Add(time.Hour)
	g.RecordGrant(context.Background(), "bob", t1)
	ok, rem := g.CheckEligible("bob", t1.Add(30*time.Minute))
	if ok || rem != 1800 {
		t.Fatalf("after re-grant = (%v, %d), want (false, 1800)", ok, rem)
	}
}

func TestWriteThroughAndLoad(t *testing.T) {
	fs := &fakeStore{}
	g := NewGate(time.Hour, fs)
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	g.RecordGrant(context.Background(), "alice", t0)
	if fs.saves != 1 {
		t.Fatalf("saves = %d, want 1", fs.saves)
	}

	g2 := NewGate(time.Hour, fs)
	if err := g2.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	ok, _ := g2.CheckEligible("alice", t0.Add(time.Minute))
	if ok {
		t.Fatal("record should survive a reload")
	}
}

func TestRecordGrantStoreFailureIsNotFatal(t *testing.T) {
	fs := &fakeStore{saveErr: errors.New("disk gone")}
	g := NewGate(time.Hour, fs)
	t0 := time.Now()
	g.RecordGrant(context.Background(), "alice", t0)
	// In-memory record still holds despite the failed write-through.
	if ok, _ := g.CheckEligible("alice", t0.Add(time.Second)); ok {
		t.Fatal("in-memory record should hold when persistence fails")
	}
}

func TestReset(t *testing.T) {
	fs := &fakeStore{}
	g := NewGate(time.Hour, fs)
	g.RecordGrant(context.Background(), "alice", time.Now())
	if err := g.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if fs.clears != 1 {
		t.Fatalf("clears = %d, want 1", fs.clears)
	}
	if ok, _ := g.CheckEligible("alice", time.Now()); !ok {
		t.Fatal("user should be eligible after reset")
	}
}

func TestFormatRemaining(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{0, "now"},
		{-5, "now"},
		{1, "1 sec"},
		{59, "59 sec"},
		{60, "1 min"},
		{61, "1 min 1 sec"},
		{3599, "59 min 59 sec"},
		{3600, "1 h"},
		{3661, "1 h 1 min 1 sec"},
		{7205, "2 h 5 sec"},
	}
	for _, tc := range cases {
		if got := FormatRemaining(tc.seconds); got != tc.want {
			t.Errorf("FormatRemaining(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}
