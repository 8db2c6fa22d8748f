package chat

import (
	"context"
	"testing"
	"time"
)

func TestDispatcherRejectsBadCredentials(t *testing.T) {
	cases := []struct {
		name string
		d    Dispatcher
	}{
		{"no token", Dispatcher{Channel: "somechan"}},
		{"token without oauth prefix", Dispatcher{Channel: "somechan", OAuthToken: "abc123"}},
		{"no channel", Dispatcher{OAuthToken: "oauth:abc123"}},
		{"whitespace only", Dispatcher{Channel: "  ", OAuthToken: "  "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start := time.Now()
			if tc.d.Send(context.Background(), "hello") {
				t.Fatal("Send must fail without usable credentials")
			}
			// Credential rejection must not attempt a connection.
			if time.Since(start) > time.Second {
				t.Fatal("credential check should fail fast")
			}
		})
	}
}

func TestDispatcherTimeoutOnDeadEndpoint(t *testing.T) {
	if testing.Short() {
		t.Skip("dials a dead endpoint")
	}
	d := Dispatcher{
		Channel:    "somechan",
		Username:   "bot",
		OAuthToken: "oauth:abc123",
		Addr:       "127.0.0.1:1", // nothing listens here
		Timeout:    500 * time.Millisecond,
	}
	start := time.Now()
	if d.Send(context.Background(), "hello") {
		t.Fatal("Send to a dead endpoint must fail")
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("send did not respect its timeout, took %v", time.Since(start))
	}
}
