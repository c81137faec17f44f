package handlers

import (
	"context"
	"net/http"
	"time"
)

// ReloadStatus describes lexicon reloads since start
type ReloadStatus struct {
	Generation uint64    `json:"generation"`
	Reloads    int       `json:"reloads"`
	LastReload time.Time `json:"last_reload"`
	LastError  string    `json:"last_error,omitempty"`
}

// Reloader rebuilds the parser from the lexicon tables
type Reloader interface {
	Reload(ctx context.Context) error
	ReloadStatus() ReloadStatus
}

// ReloadHandler exposes lexicon reloads
type ReloadHandler struct {
	Reloader Reloader
	Config   *Config
}

// Status reports the reload history
func (h *ReloadHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Reloader.ReloadStatus())
}

// TriggerReload rebuilds the parsers now
func (h *ReloadHandler) TriggerReload(w http.ResponseWriter, r *http.Request) {
	if !h.Config.Features.ReloadEnabled {
		http.Error(w, "Reload feature disabled", http.StatusForbidden)
		return
	}

	if err := h.Reloader.Reload(r.Context()); err != nil {
		http.Error(w, "Reload failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	response := map[string]interface{}{
		"success":   true,
		"message":   "Lexicons reloaded",
		"timestamp": time.Now(),
		"status":    h.Reloader.ReloadStatus(),
	}
	writeJSON(w, http.StatusOK, response)
}
