// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	CasesOpened      prometheus.Counter
	DuplicateGrants  prometheus.Counter
	CooldownDenials  prometheus.Counter
	SelectorFallback prometheus.Counter
	ChatLines        prometheus.Counter
	CommandsAccepted prometheus.Counter
	ChatReconnects   prometheus.Counter
	ChatSendsOK      prometheus.Counter
	ChatSendsFailed  prometheus.Counter

	// Histograms (seconds)
	GrantDuration prometheus.Observer

	// Gauges
	QueueDepthGauge prometheus.Gauge
	ConnectedGauge  prometheus.Gauge // 1=joined,0=not
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		CasesOpened = promauto.NewCounter(prometheus.CounterOpts{Name: "casebox_cases_opened_total", Help: "Number of cases successfully opened"})
		DuplicateGrants = promauto.NewCounter(prometheus.CounterOpts{Name: "casebox_duplicate_grants_total", Help: "Number of grants that landed on an already-owned item"})
		CooldownDenials = promauto.NewCounter(prometheus.CounterOpts{Name: "casebox_cooldown_denials_total", Help: "Number of open attempts denied by the cooldown gate"})
		SelectorFallback = promauto.NewCounter(prometheus.CounterOpts{Name: "casebox_selector_fallback_total", Help: "Number of picks that widened past an empty rarity tier"})
		ChatLines = promauto.NewCounter(prometheus.CounterOpts{Name: "casebox_chat_lines_total", Help: "Number of raw chat lines seen by the listener"})
		CommandsAccepted = promauto.NewCounter(prometheus.CounterOpts{Name: "casebox_chat_commands_total", Help: "Number of trigger commands accepted into the pending queue"})
		ChatReconnects = promauto.NewCounter(prometheus.CounterOpts{Name: "casebox_chat_reconnects_total", Help: "Number of listener connection attempts"})
		ChatSendsOK = promauto.NewCounter(prometheus.CounterOpts{Name: "casebox_chat_sends_total", Help: "Number of outbound chat messages delivered"})
		ChatSendsFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "casebox_chat_send_failures_total", Help: "Number of outbound chat messages that failed to deliver"})
		GrantDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "casebox_grant_duration_seconds", Help: "Grant pipeline duration seconds", Buckets: prometheus.DefBuckets})
		QueueDepthGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "casebox_pending_queue_depth", Help: "Current number of queued open requests"})
		ConnectedGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "casebox_chat_connected", Help: "Chat listener joined=1 not joined=0"})
	})
}

// CountCaseOpened records a successful grant, duplicate or not.
func CountCaseOpened(duplicate bool) {
	if CasesOpened != nil {
		CasesOpened.Inc()
	}
	if duplicate && DuplicateGrants != nil {
		DuplicateGrants.Inc()
	}
}

// CountCooldownDenial records an open attempt rejected by the gate.
func CountCooldownDenial() {
	if CooldownDenials != nil {
		CooldownDenials.Inc()
	}
}

// CountSelectorFallback records a pick that widened past an empty rarity tier.
func CountSelectorFallback() {
	if SelectorFallback != nil {
		SelectorFallback.Inc()
	}
}

// CountChatLine records one raw inbound chat line.
func CountChatLine() {
	if ChatLines != nil {
		ChatLines.Inc()
	}
}

// CountCommandAccepted records a trigger command enqueued for a grant.
func CountCommandAccepted() {
	if CommandsAccepted != nil {
		CommandsAccepted.Inc()
	}
}

// CountChatReconnect records a listener connection attempt.
func CountChatReconnect() {
	if ChatReconnects != nil {
		ChatReconnects.Inc()
	}
}

// CountChatSend records an outbound send outcome.
func CountChatSend(ok bool) {
	if ok {
		if ChatSendsOK != nil {
			ChatSendsOK.Inc()
		}
	} else if ChatSendsFailed != nil {
		ChatSendsFailed.Inc()
	}
}

// SetQueueDepth records the current pending queue depth.
func SetQueueDepth(n int) {
	if QueueDepthGauge != nil {
		QueueDepthGauge.Set(float64(n))
	}
}

// SetConnected sets the listener gauge to 1 when joined else 0.
func SetConnected(joined bool) {
	if ConnectedGauge != nil {
		if joined {
			ConnectedGauge.Set(1)
		} else {
			ConnectedGauge.Set(0)
		}
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
