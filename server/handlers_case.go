package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/onnwee/casebox/cooldown"
	"github.com/onnwee/casebox/drop"
	"github.com/onnwee/casebox/settings"
	"github.com/onnwee/casebox/telemetry"
)

type openRequest struct {
	Username string `json:"username"`
}

type itemPayload struct {
	Name     string `json:"name"`
	Rarity   string `json:"rarity"`
	ImageURL string `json:"image_url,omitempty"`
}

type openResponse struct {
	Success    bool        `json:"success"`
	Username   string      `json:"username"`
	Item       itemPayload `json:"item"`
	RarityKey  string      `json:"rarity_key"`
	RarityName string      `json:"rarity_name"`
	AlreadyOwn bool        `json:"already_have"`
}

type deniedResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Remaining int    `json:"remaining"`
	Message   string `json:"message"`
}

// HandleOpen runs one case opening for the posted username.
func (h *Handlers) HandleOpen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	var res drop.Result
	var err error
	telemetry.TimeFunc(telemetry.GrantDuration, func() {
		res, err = h.deps.Service.Open(r.Context(), req.Username, time.Now())
	})
	if err != nil {
		switch {
		case errors.Is(err, drop.ErrInvalidRequest):
			http.Error(w, "username required", http.StatusBadRequest)
		case errors.Is(err, drop.ErrNoItems):
			http.Error(w, "no items configured", http.StatusConflict)
		default:
			telemetry.LoggerWithCorr(r.Context()).Error("case open failed", slog.Any("err", err), slog.String("component", "http"))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}
	if res.Denied {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(deniedResponse{
			Error:     "cooldown",
			Remaining: res.Remaining,
			Message:   fmt.Sprintf("wait another %s", cooldown.FormatRemaining(res.Remaining)),
		})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(openResponse{
		Success:    true,
		Username:   strings.TrimSpace(req.Username),
		Item:       itemPayload{Name: res.Item.Name, Rarity: res.Item.Rarity, ImageURL: res.Item.ImageURL},
		RarityKey:  res.RarityKey,
		RarityName: res.RarityName,
		AlreadyOwn: res.AlreadyOwn,
	})
}

// HandlePending pops the oldest queued chat user, if any.
func (h *Handlers) HandlePending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if user, ok := h.deps.Queue.Pop(); ok {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "username": user})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false})
}

// HandleSettings returns the active settings snapshot with credentials redacted.
func (h *Handlers) HandleSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap := h.deps.Settings.Snapshot()
	resp := struct {
		Channel  string            `json:"channel"`
		Rarities []settings.Rarity `json:"rarities"`
		Items    []settings.Item   `json:"items"`
	}{
		Channel:  snap.Channel,
		Rarities: snap.Rarities,
		Items:    snap.Items,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

type sendRequest struct {
	Message string `json:"message"`
}

// HandleChatSend posts a message to the configured channel via the dispatcher.
func (h *Handlers) HandleChatSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		http.Error(w, "message required", http.StatusBadRequest)
		return
	}
	if h.deps.Sender == nil {
		http.Error(w, "chat sending not configured", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if !h.deps.Sender.Send(r.Context(), req.Message) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "failed to send"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
}
