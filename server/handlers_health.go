package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HandleHealthz responds to liveness probe requests by checking storage connectivity.
// Flat-file persistence has no backing service, so a nil Ping always reports healthy.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.deps.Ping != nil {
		if err := h.deps.Ping(r.Context()); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz responds to readiness probe requests with detailed system checks.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"storage", func() error {
			if h.deps.Ping == nil {
				return nil
			}
			return h.deps.Ping(r.Context())
		}},
		{"settings", func() error {
			snap := h.deps.Settings.Snapshot()
			if len(snap.Rarities) == 0 {
				return fmt.Errorf("no rarities configured")
			}
			if len(snap.Items) == 0 {
				return fmt.Errorf("no items configured")
			}
			return nil
		}},
	}

	for _, check := range checks {
		if err := check.fn(); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status":       "not_ready",
				"failed_check": check.name,
				"error":        err.Error(),
			})
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// HandleStatus returns a lightweight status summary including queue depth and chat connection state.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap := h.deps.Settings.Snapshot()
	resp := map[string]any{
		"queue_depth":      h.deps.Queue.Len(),
		"uptime_seconds":   int(time.Since(h.started).Seconds()),
		"cooldown_seconds": int(h.deps.Gate.Window().Seconds()),
		"rarities":         len(snap.Rarities),
		"items":            len(snap.Items),
	}
	if h.deps.ListenerState != nil {
		resp["connection_state"] = h.deps.ListenerState().String()
	} else {
		resp["connection_state"] = "disabled"
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
