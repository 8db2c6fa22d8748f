package testutil

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
)

// FakeIRC is an in-memory IRC endpoint built on net.Pipe. Each Dial hands the
// client one half of a fresh pipe and runs the server half in a goroutine that
// records everything the client writes and plays back scripted lines.
type FakeIRC struct {
	t      *testing.T
	script []string

	// Sent receives each line the client wrote, without the trailing CRLF.
	Sent chan string
	// Dials receives a signal per accepted connection.
	Dials chan struct{}

	// CloseAfterScript drops the connection once the script has been played,
	// which drives the client's reconnect path.
	CloseAfterScript bool
}

// NewFakeIRC returns an endpoint that will serve the given lines (sent after
// the client's JOIN arrives) on every connection. Lines should omit CRLF.
func NewFakeIRC(t *testing.T, script ...string) *FakeIRC {
	t.Helper()
	return &FakeIRC{
		t:      t,
		script: script,
		Sent:   make(chan string, 64),
		Dials:  make(chan struct{}, 16),
	}
}

// Dialer returns a connection factory compatible with chat.Dialer.
func (f *FakeIRC) Dialer() func(ctx context.Context) (net.Conn, error) {
	return func(ctx context.Context) (net.Conn, error) {
		client, server := net.Pipe()
		select {
		case f.Dials <- struct{}{}:
		default:
		}
		go f.serve(ctx, server)
		return client, nil
	}
}

func (f *FakeIRC) serve(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	r := bufio.NewReader(conn)
	scripted := false
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		select {
		case f.Sent <- line:
		default:
		}
		if !scripted && strings.HasPrefix(line, "JOIN ") {
			scripted = true
			// Play the script concurrently so this loop keeps reading:
			// net.Pipe writes are synchronous, and the client may block
			// writing (e.g. a PONG) before consuming the next script line.
			go func() {
				for _, s := range f.script {
					if _, err := conn.Write([]byte(s + "\r\n")); err != nil {
						return
					}
				}
				if f.CloseAfterScript {
					conn.Close()
				}
			}()
		}
	}
}

// Privmsg formats a Twitch PRIVMSG line from user in #channel.
func Privmsg(user, channel, text string) string {
	return ":" + user + "!" + user + "@" + user + ".tmi.twitch.tv PRIVMSG #" + channel + " :" + text
}
