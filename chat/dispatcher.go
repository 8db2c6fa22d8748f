package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	twitch "github.com/gempir/go-twitch-irc/v4"

	"github.com/onnwee/casebox/telemetry"
)

// DefaultSendTimeout bounds one outbound delivery attempt.
const DefaultSendTimeout = 10 * time.Second

// Dispatcher posts messages into the channel over a short-lived authenticated
// session. Sends are advisory: a false return means "not delivered", never a
// hard error, and callers must not let it block a grant decision.
type Dispatcher struct {
	Channel    string
	Username   string
	OAuthToken string // "oauth:..." user token with chat:edit scope
	Addr       string // optional non-TLS endpoint override, used by tests
	Timeout    time.Duration
}

// Send connects, joins, writes one line and disconnects. Absent or malformed
// credentials and any I/O failure all yield false.
func (d *Dispatcher) Send(ctx context.Context, message string) bool {
	token := strings.TrimSpace(d.OAuthToken)
	channel := strings.TrimPrefix(strings.TrimSpace(d.Channel), "#")
	if !strings.HasPrefix(token, "oauth:") || channel == "" {
		slog.Warn("chat send skipped: missing or malformed credentials")
		telemetry.CountChatSend(false)
		return false
	}
	username := strings.TrimSpace(d.Username)
	if username == "" {
		username = "bot_user"
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}

	client := twitch.NewClient(username, token)
	if d.Addr != "" {
		client.IrcAddress = d.Addr
		client.TLS = false
	}

	var delivered atomic.Bool
	client.OnConnect(func() {
		client.Say(channel, message)
		delivered.Store(true)
		// Give the write a moment to flush before tearing the session down.
		go func() {
			time.Sleep(500 * time.Millisecond)
			_ = client.Disconnect()
		}()
	})

	// Bound the whole attempt: a hung handshake must not stall the caller
	// past the timeout.
	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	go func() {
		<-sendCtx.Done()
		_ = client.Disconnect()
	}()

	err := client.Connect()
	ok := delivered.Load() && (err == nil || errors.Is(err, twitch.ErrClientDisconnected))
	if !ok {
		slog.Warn("chat send failed", slog.String("channel", channel), slog.Any("err", err))
	} else {
		slog.Info("chat message sent", slog.String("channel", channel))
	}
	telemetry.CountChatSend(ok)
	return ok
}
