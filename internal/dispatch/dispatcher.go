package dispatch

import (
	"log/slog"
	"sync/atomic"
)

// Display receives screen transitions. The kiosk's rendering layer
// implements this; tests use fakes.
type Display interface {
	Show(screen Screen)
}

// Speaker receives speech directives. Implemented by the playback announcer.
type Speaker interface {
	Announce(d SpeechDirective)
}

// Dispatcher turns sensor event codes into screen transitions and speech.
// It is safe for concurrent use, though the kiosk core drives it from a
// single goroutine; concurrency only matters for prompt hot reloads.
type Dispatcher struct {
	display Display
	speaker Speaker
	prompts atomic.Pointer[Prompts]
}

// New creates a Dispatcher using the built-in prompt table.
func New(display Display, speaker Speaker) *Dispatcher {
	d := &Dispatcher{
		display: display,
		speaker: speaker,
	}
	p := DefaultPrompts()
	d.prompts.Store(&p)
	return d
}

// SetPrompts installs a new prompt table. In-flight delayed announcements
// keep the text they were dispatched with; only future dispatches see the
// new table.
func (d *Dispatcher) SetPrompts(p Prompts) {
	d.prompts.Store(&p)
	slog.Info("prompt table updated")
}

// Prompts returns the currently installed prompt table.
func (d *Dispatcher) Prompts() Prompts {
	return *d.prompts.Load()
}

// Dispatch maps code to its directive and applies it: the screen transition
// first, then the speech announcement. Codes outside the sensor board's
// range are logged and ignored.
func (d *Dispatcher) Dispatch(code Code) {
	if !code.Valid() {
		slog.Warn("ignoring out-of-range event code", "code", int(code))
		return
	}

	dir := d.directiveFor(code)
	slog.Debug("dispatching event",
		"code", int(code),
		"screen", dir.Screen.String(),
		"speech", dir.Speech != nil,
	)

	d.display.Show(dir.Screen)
	if dir.Speech != nil {
		d.speaker.Announce(*dir.Speech)
	}
}

// directiveFor is the policy table. Failure codes carry a per-code
// diagnostic; the measurement and completion screens defer speech by the
// settle delay so the voice follows the screen change.
func (d *Dispatcher) directiveFor(code Code) Directive {
	p := d.prompts.Load()

	switch code {
	case 0:
		// Session reset. Announce the return so an interrupted visitor
		// hears why the screen changed.
		return speakNow(ScreenIdle, p.BackToIdle)
	case 1, 10:
		return speakNow(ScreenTagRead, p.TagRead)
	case 2:
		return speakNow(ScreenAwaitingHand, p.HoldHand)
	case 3, 4, 5, 8, 11, 13, 14:
		return speakNow(ScreenFailure, p.diagnostic(code))
	case 6:
		return speakNow(ScreenMeasureReady, p.MeasureReady)
	case 7:
		return speakSettled(ScreenMeasuring, p.Measuring)
	case 9:
		return speakSettled(ScreenSuccess, p.Success)
	case 12:
		return speakNow(ScreenTagWrite, p.TagWrite)
	case 15:
		return speakSettled(ScreenDone, p.Done)
	default:
		// Unreachable while MaxCode is 15; kept so a range extension fails
		// loudly in tests instead of silently showing the idle screen.
		return Directive{Screen: ScreenIdle}
	}
}
