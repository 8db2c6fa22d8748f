package chat

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/onnwee/casebox/cooldown"
	"github.com/onnwee/casebox/queue"
	"github.com/onnwee/casebox/testutil"
)

func TestParsePrivmsg(t *testing.T) {
	cases := []struct {
		name     string
		line     string
		username string
		message  string
		ok       bool
	}{
		{
			"well formed",
			":alice!alice@alice.tmi.twitch.tv PRIVMSG #chan :!open",
			"alice", "!open", true,
		},
		{
			"message with spaces",
			":bob!bob@host PRIVMSG #chan :hello there",
			"bob", "hello there", true,
		},
		{
			"trailing whitespace trimmed",
			":bob!bob@host PRIVMSG #chan :  !open  ",
			"bob", "!open", true,
		},
		{"too few colon segments", ":tmi.twitch.tv 376 justinfan1 End of /MOTD", "", "", false},
		{"no bang in prefix", ":tmi.twitch.tv PRIVMSG #chan :!open", "", "", false},
		{"empty username", ":!host PRIVMSG #chan :!open", "", "", false},
		{"empty line", "", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			user, msg, ok := parsePrivmsg(tc.line)
			if user != tc.username || msg != tc.message || ok != tc.ok {
				t.Fatalf("parsePrivmsg(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tc.line, user, msg, ok, tc.username, tc.message, tc.ok)
			}
		})
	}
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeNotifier) Send(_ context.Context, message string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, message)
	return true
}

func (f *fakeNotifier) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestListenerQueuesTriggerAndAnswersPing(t *testing.T) {
	irc := testutil.NewFakeIRC(t,
		"PING :tmi.twitch.tv",
		testutil.Privmsg("alice", "somechan", "!open"),
	)
	q := queue.NewPending()
	l := &Listener{
		Channel: "#somechan",
		Trigger: "!open",
		Backoff: 10 * time.Millisecond,
		Gate:    cooldown.NewGate(time.Hour, nil),
		Queue:   q,
		Dial:    irc.Dialer(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	waitFor(t, func() bool { return q.Len() == 1 }, "trigger never queued")
	user, ok := q.Pop()
	if !ok || user != "alice" {
		t.Fatalf("queued user = (%q, %v), want alice", user, ok)
	}

	// The fake records everything the client wrote: registration, join, pong.
	var wrote []string
	waitFor(t, func() bool {
		for {
			select {
			case line := <-irc.Sent:
				wrote = append(wrote, line)
			default:
				for _, w := range wrote {
					if w == "PONG :tmi.twitch.tv" {
						return true
					}
				}
				return false
			}
		}
	}, "liveness probe never answered")

	var nick, join bool
	for _, w := range wrote {
		if strings.HasPrefix(w, "NICK justinfan") {
			nick = true
		}
		if w == "JOIN #somechan" {
			join = true
		}
	}
	if !nick || !join {
		t.Fatalf("registration lines missing: %v", wrote)
	}
	if l.State() != StateJoined {
		t.Fatalf("State = %v, want joined", l.State())
	}
}

func TestListenerIgnoresNonTriggerMessages(t *testing.T) {
	irc := testutil.NewFakeIRC(t,
		"garbage line without structure",
		testutil.Privmsg("alice", "somechan", "!close"),
		testutil.Privmsg("alice", "somechan", "!open now"),
		testutil.Privmsg("alice", "somechan", "!OPEN"),
		testutil.Privmsg("bob", "somechan", "!open"),
	)
	q := queue.NewPending()
	l := &Listener{
		Channel: "somechan",
		Trigger: "!open",
		Gate:    cooldown.NewGate(time.Hour, nil),
		Queue:   q,
		Dial:    irc.Dialer(),
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	waitFor(t, func() bool { return q.Len() == 1 }, "exact trigger never queued")
	// Give the remaining script lines time to flow; nothing else may queue.
	time.Sleep(50 * time.Millisecond)
	if q.Len() != 1 {
		t.Fatalf("queue depth = %d, want 1 (exact match only)", q.Len())
	}
	if user, _ := q.Pop(); user != "bob" {
		t.Fatalf("queued user = %q, want bob", user)
	}
}

func TestListenerNotifiesOnCooldown(t *testing.T) {
	irc := testutil.NewFakeIRC(t,
		testutil.Privmsg("alice", "somechan", "!open"),
	)
	q := queue.NewPending()
	gate := cooldown.NewGate(time.Hour, nil)
	gate.RecordGrant(context.Background(), "alice", time.Now())
	notifier := &fakeNotifier{}
	l := &Listener{
		Channel:  "somechan",
		Trigger:  "!open",
		Gate:     gate,
		Queue:    q,
		Notifier: notifier,
		Dial:     irc.Dialer(),
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	waitFor(t, func() bool { return len(notifier.messages()) == 1 }, "cooldown notice never sent")
	got := notifier.messages()[0]
	if !strings.HasPrefix(got, "@alice wait another ") {
		t.Fatalf("notice = %q", got)
	}
	if q.Len() != 0 {
		t.Fatal("cooldown-denied user must not be queued")
	}
}

func TestListenerReconnectsAfterDrop(t *testing.T) {
	irc := testutil.NewFakeIRC(t)
	irc.CloseAfterScript = true
	l := &Listener{
		Channel: "somechan",
		Trigger: "!open",
		Backoff: 5 * time.Millisecond,
		Gate:    cooldown.NewGate(time.Hour, nil),
		Queue:   queue.NewPending(),
		Dial:    irc.Dialer(),
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	dials := 0
	waitFor(t, func() bool {
		for {
			select {
			case <-irc.Dials:
				dials++
			default:
				return dials >= 3
			}
		}
	}, "listener did not keep redialing after drops")

	cancel()
	waitFor(t, func() bool { return l.State() == StateDisconnected }, "listener did not stop on cancel")
}

func TestListenerNoChannelReturns(t *testing.T) {
	l := &Listener{Trigger: "!open"}
	done := make(chan struct{})
	go func() {
		l.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run should return immediately without a channel")
	}
}
