package kiosk

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hitoha-dev/kioskd/internal/dispatch"
)

// ScreenState implements [dispatch.Display] by tracking the current screen.
// The rendering front-end polls GET /screen to learn what to show; the
// daemon itself has no display hardware.
type ScreenState struct {
	mu     sync.RWMutex
	screen dispatch.Screen
	since  time.Time
}

// Compile-time interface assertion.
var _ dispatch.Display = (*ScreenState)(nil)

// NewScreenState starts on the idle screen.
func NewScreenState() *ScreenState {
	return &ScreenState{
		screen: dispatch.ScreenIdle,
		since:  time.Now(),
	}
}

// Show records the transition. Re-showing the current screen still resets
// the timestamp, which the front-end uses to restart enter animations.
func (s *ScreenState) Show(screen dispatch.Screen) {
	s.mu.Lock()
	prev := s.screen
	s.screen = screen
	s.since = time.Now()
	s.mu.Unlock()

	slog.Info("screen transition", "from", prev.String(), "to", screen.String())
}

// Current returns the active screen and when it was entered.
func (s *ScreenState) Current() (dispatch.Screen, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.screen, s.since
}

// Register adds the GET /screen route to mux.
func (s *ScreenState) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /screen", func(w http.ResponseWriter, _ *http.Request) {
		screen, since := s.Current()
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		json.NewEncoder(w).Encode(map[string]any{
			"screen": screen.String(),
			"since":  since.Format(time.RFC3339Nano),
		})
	})
}
