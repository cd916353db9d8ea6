// Package trigger exposes an HTTP endpoint for injecting sensor event codes
// by hand.
//
// Exhibits get tested and demonstrated without the sensor board attached, so
// the daemon accepts POST /inject?code=N and feeds the code through the same
// queue a real sensor event would take.
package trigger

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// Submitter enqueues one event code. Satisfied by the kiosk core.
type Submitter interface {
	Submit(code int, source string) bool
}

// Handler serves the /inject endpoint.
type Handler struct {
	submitter Submitter
}

// New creates a Handler submitting injected codes to s.
func New(s Submitter) *Handler {
	return &Handler{submitter: s}
}

// Register adds the /inject route to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /inject", h.Inject)
}

// Inject parses the code query parameter and enqueues it. Non-numeric codes
// are rejected with 400; a full queue yields 503. Range checking is left to
// the dispatcher, the same as for real sensor events.
func (h *Handler) Inject(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("code")
	code, err := strconv.Atoi(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status": "error",
			"error":  "code must be an integer, got " + strconv.Quote(raw),
		})
		return
	}

	if !h.submitter.Submit(code, "inject") {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "error",
			"error":  "event queue is full",
		})
		return
	}

	slog.Info("event injected via http", "code", code)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status": "accepted",
		"code":   code,
	})
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
