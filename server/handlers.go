// Package server exposes the HTTP API handlers.
package server

import (
	"context"
	"time"

	"github.com/onnwee/casebox/chat"
	"github.com/onnwee/casebox/cooldown"
	"github.com/onnwee/casebox/drop"
	"github.com/onnwee/casebox/inventory"
	"github.com/onnwee/casebox/queue"
	"github.com/onnwee/casebox/settings"
)

// Deps wires the engine into the HTTP surface. Sender and ListenerState may be
// nil when chat is disabled; Ping may be nil for flat-file persistence.
type Deps struct {
	Service  *drop.Service
	Settings *settings.Store
	Queue    *queue.Pending
	Gate     *cooldown.Gate
	Ledger   *inventory.Ledger

	Sender        chat.Notifier
	ListenerState func() chat.ConnState
	Ping          func(ctx context.Context) error
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	deps    Deps
	started time.Time
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(deps Deps) *Handlers {
	return &Handlers{deps: deps, started: time.Now()}
}
