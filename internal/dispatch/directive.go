package dispatch

import "time"

// SettleDelay is how long deferred speech waits after a screen transition,
// so the voice lines up with the screen's enter animation rather than
// cutting over it.
const SettleDelay = time.Second

// SpeechDirective is an immutable instruction to speak one prompt. Values
// are constructed by the dispatcher and handed to the announcer; nothing
// mutates a directive after creation, so a delayed announcement always
// speaks the text it was created with even if the prompt table is swapped
// in the meantime.
type SpeechDirective struct {
	// Text is the exact prompt to speak.
	Text string

	// Delay is how long to wait before speaking. Zero means immediately.
	Delay time.Duration
}

// Directive is the complete outcome of dispatching one event code: which
// screen to show and, optionally, what to say.
type Directive struct {
	// Screen is the screen to transition to.
	Screen Screen

	// Speech is the prompt to announce, or nil to stay silent.
	Speech *SpeechDirective
}

// speakNow builds a directive that shows screen and speaks text immediately.
func speakNow(screen Screen, text string) Directive {
	return Directive{
		Screen: screen,
		Speech: &SpeechDirective{Text: text},
	}
}

// speakSettled builds a directive that shows screen and speaks text after
// [SettleDelay].
func speakSettled(screen Screen, text string) Directive {
	return Directive{
		Screen: screen,
		Speech: &SpeechDirective{Text: text, Delay: SettleDelay},
	}
}
