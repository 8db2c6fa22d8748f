package chat

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/onnwee/casebox/cooldown"
	"github.com/onnwee/casebox/queue"
	"github.com/onnwee/casebox/telemetry"
)

// DefaultIRCAddr is the plaintext Twitch chat endpoint.
const DefaultIRCAddr = "irc.chat.twitch.tv:6667"

// DefaultBackoff is the wait between reconnect attempts after a fault.
const DefaultBackoff = 15 * time.Second

// ConnState is the listener's connection lifecycle state.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateJoined
	StateFaulted
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateJoined:
		return "joined"
	case StateFaulted:
		return "faulted"
	default:
		return "disconnected"
	}
}

// Dialer opens the chat transport. Tests inject one backed by net.Pipe.
type Dialer func(ctx context.Context) (net.Conn, error)

// Notifier posts an informational message into the channel. Satisfied by
// *Dispatcher.
type Notifier interface {
	Send(ctx context.Context, message string) bool
}

// Listener is the background chat ingestion pipeline. It owns no shared state
// itself; the gate and queue carry their own locking.
type Listener struct {
	Channel string
	Trigger string // exact, case-sensitive command text, e.g. "!open"
	Addr    string // defaults to DefaultIRCAddr
	Backoff time.Duration

	Gate     *cooldown.Gate
	Queue    *queue.Pending
	Notifier Notifier
	Dial     Dialer

	state atomic.Int32
}

// State returns the current connection state.
func (l *Listener) State() ConnState {
	return ConnState(l.state.Load())
}

func (l *Listener) setState(s ConnState) {
	l.state.Store(int32(s))
	telemetry.SetConnected(s == StateJoined)
}

func (l *Listener) dial(ctx context.Context) (net.Conn, error) {
	if l.Dial != nil {
		return l.Dial(ctx)
	}
	addr := l.Addr
	if addr == "" {
		addr = DefaultIRCAddr
	}
	d := net.Dialer{Timeout: 10 * time.Second}
	return d.DialContext(ctx, "tcp", addr)
}

// Run connects, joins the channel and processes inbound lines until ctx is
// cancelled. Any dial or read fault transitions to a fixed backoff and then a
// fresh attempt; there is no retry limit.
func (l *Listener) Run(ctx context.Context) {
	channel := strings.TrimPrefix(strings.TrimSpace(l.Channel), "#")
	if channel == "" {
		slog.Info("chat listener disabled: no channel configured")
		return
	}
	backoff := l.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}

	for ctx.Err() == nil {
		l.setState(StateConnecting)
		telemetry.CountChatReconnect()
		if err := l.session(ctx, channel); err != nil && ctx.Err() == nil {
			slog.Warn("chat listener fault", slog.String("channel", channel), slog.Any("err", err))
		}
		if ctx.Err() != nil {
			break
		}
		l.setState(StateFaulted)
		select {
		case <-ctx.Done():
		case <-time.After(backoff):
		}
		l.setState(StateDisconnected)
	}
	l.setState(StateDisconnected)
	slog.Info("chat listener stopped")
}

// session runs one connection from dial to fault. The join is optimistic: the
// registration and join lines are written without waiting for a server
// acknowledgment.
func (l *Listener) session(ctx context.Context, channel string) error {
	conn, err := l.dial(ctx)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	// Close the connection when ctx ends so the blocked read returns.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
			_ = conn.Close()
		}
	}()

	// Anonymous read-only guest identity, randomized per attempt.
	//nolint:gosec // G404: guest nick needs no cryptographic randomness
	nick := fmt.Sprintf("justinfan%d", 10000+rand.Intn(90000))
	if _, err := fmt.Fprintf(conn, "NICK %s\r\nJOIN #%s\r\n", nick, channel); err != nil {
		return fmt.Errorf("join: %w", err)
	}
	l.setState(StateJoined)
	slog.Info("chat listener joined", slog.String("channel", channel), slog.String("nick", nick))

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			l.handleLine(ctx, conn, strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
	}
}

// handleLine processes one inbound IRC line. Malformed lines are discarded
// silently; only the liveness probe and channel messages matter.
func (l *Listener) handleLine(ctx context.Context, conn net.Conn, line string) {
	if line == "" {
		return
	}
	telemetry.CountChatLine()

	if strings.HasPrefix(line, "PING") {
		if _, err := conn.Write([]byte("PONG :tmi.twitch.tv\r\n")); err != nil {
			slog.Warn("failed to answer liveness probe", slog.Any("err", err))
		}
		return
	}
	if !strings.Contains(line, "PRIVMSG") {
		return
	}

	username, message, ok := parsePrivmsg(line)
	if !ok {
		return
	}
	if message != l.Trigger {
		return
	}

	eligible, remaining := l.Gate.CheckEligible(username, time.Now())
	if eligible {
		l.Queue.Push(username)
		telemetry.CountCommandAccepted()
		slog.Info("open request queued", slog.String("username", username))
		return
	}
	slog.Debug("open request on cooldown", slog.String("username", username), slog.Int("remaining", remaining))
	if l.Notifier != nil {
		l.Notifier.Send(ctx, fmt.Sprintf("@%s wait another %s", username, cooldown.FormatRemaining(remaining)))
	}
}

// parsePrivmsg extracts the sender and message body from a channel message
// line of the form ":<user>!<host> PRIVMSG #<channel> :<text>". Lines with
// missing delimiters yield ok=false.
func parsePrivmsg(line string) (username, message string, ok bool) {
	parts := strings.SplitN(line, ":", 3)
	if len(parts) < 3 {
		return "", "", false
	}
	userPart := strings.SplitN(parts[1], "!", 2)
	if len(userPart) < 2 {
		return "", "", false
	}
	username = strings.TrimSpace(userPart[0])
	message = strings.TrimSpace(parts[2])
	if username == "" {
		return "", "", false
	}
	return username, message, true
}
