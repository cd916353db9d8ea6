// Package dispatch maps raw sensor event codes to screen transitions and
// speech directives.
//
// The mapping is a fixed policy table: each of the sixteen sensor codes
// selects a screen and a speech behaviour (speak now, speak after a settle
// delay, or stay silent). Dispatching is deterministic — the same code always
// yields the same screen and prompt text, with no hidden state carried
// between events.
package dispatch

import "fmt"

// Code is a raw event code received from the sensor board. Valid codes are
// 0 through [MaxCode]; anything else is ignored at dispatch time.
type Code int

// MaxCode is the highest event code the sensor board emits.
const MaxCode Code = 15

// Valid reports whether c is within the sensor board's code range.
func (c Code) Valid() bool {
	return c >= 0 && c <= MaxCode
}

// Screen identifies one of the kiosk's display screens.
type Screen int

const (
	// ScreenIdle is the attract screen shown while waiting for a tag.
	ScreenIdle Screen = iota

	// ScreenTagRead is shown while a tag is being read.
	ScreenTagRead

	// ScreenAwaitingHand prompts the visitor to hold a hand over the sensor.
	ScreenAwaitingHand

	// ScreenMeasureReady is shown while the measurement hardware arms.
	ScreenMeasureReady

	// ScreenMeasuring is shown during an active measurement.
	ScreenMeasuring

	// ScreenSuccess reports a completed measurement.
	ScreenSuccess

	// ScreenFailure reports an error with a diagnostic message.
	ScreenFailure

	// ScreenTagWrite is shown while results are written back to the tag.
	ScreenTagWrite

	// ScreenDone thanks the visitor and ends the session.
	ScreenDone
)

// String returns the screen's log-friendly name.
func (s Screen) String() string {
	switch s {
	case ScreenIdle:
		return "idle"
	case ScreenTagRead:
		return "tag_read"
	case ScreenAwaitingHand:
		return "awaiting_hand"
	case ScreenMeasureReady:
		return "measure_ready"
	case ScreenMeasuring:
		return "measuring"
	case ScreenSuccess:
		return "success"
	case ScreenFailure:
		return "failure"
	case ScreenTagWrite:
		return "tag_write"
	case ScreenDone:
		return "done"
	default:
		return fmt.Sprintf("screen(%d)", int(s))
	}
}
