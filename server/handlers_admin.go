package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/onnwee/casebox/telemetry"
)

// HandleAdminResetInventory wipes every user's inventory.
func (h *Handlers) HandleAdminResetInventory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.deps.Ledger.Reset(r.Context()); err != nil {
		telemetry.LoggerWithCorr(r.Context()).Error("inventory reset failed", slog.Any("err", err), slog.String("component", "admin"))
		http.Error(w, "reset failed", http.StatusInternalServerError)
		return
	}
	slog.Info("inventory reset", slog.String("component", "admin"))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// HandleAdminResetCooldowns clears every user's cooldown record.
func (h *Handlers) HandleAdminResetCooldowns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.deps.Gate.Reset(r.Context()); err != nil {
		telemetry.LoggerWithCorr(r.Context()).Error("cooldown reset failed", slog.Any("err", err), slog.String("component", "admin"))
		http.Error(w, "reset failed", http.StatusInternalServerError)
		return
	}
	slog.Info("cooldowns reset", slog.String("component", "admin"))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// HandleAdminSettingsReload re-reads the settings file and swaps the snapshot.
func (h *Handlers) HandleAdminSettingsReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.deps.Settings.Reload(); err != nil {
		telemetry.LoggerWithCorr(r.Context()).Error("settings reload failed", slog.Any("err", err), slog.String("component", "admin"))
		http.Error(w, "reload failed", http.StatusInternalServerError)
		return
	}
	snap := h.deps.Settings.Snapshot()
	slog.Info("settings reloaded", slog.Int("rarities", len(snap.Rarities)), slog.Int("items", len(snap.Items)), slog.String("component", "admin"))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"rarities": len(snap.Rarities),
		"items":    len(snap.Items),
	})
}
