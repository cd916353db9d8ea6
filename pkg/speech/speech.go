// Package speech defines the synthesis-backend contract shared by the kiosk
// speech pipeline: a [Synthesizer] turns prompt text into audio bytes in a
// requested [Format]. Concrete backends live in subpackages (e.g. azure);
// the content-addressed cache that sits in front of them lives in
// pkg/speech/cache.
package speech

import (
	"context"
	"errors"
	"strings"
)

// ErrUnavailable is returned by a [Synthesizer] (or by the cache on its
// behalf) when no backend is configured — typically a missing credential.
// Callers treat it as "skip speech", never as a fatal condition.
var ErrUnavailable = errors.New("speech: synthesis backend unavailable")

// Format identifies the audio container/encoding a backend is asked to
// produce. The values are backend-level format identifiers; the cache derives
// file extensions from them via [Format.Ext].
type Format string

const (
	// FormatMP3 is the compressed format requested from the network backend.
	FormatMP3 Format = "audio-16khz-128kbitrate-mono-mp3"

	// FormatWAV is the lossless PCM container used for locally pre-baked
	// prompts (written by the promptbake tool).
	FormatWAV Format = "riff-16khz-16bit-mono-pcm"
)

// Ext returns the cache file extension for this format, without the dot.
func (f Format) Ext() string {
	if strings.Contains(string(f), "mp3") {
		return "mp3"
	}
	return "wav"
}

// Synthesizer converts prompt text into audio bytes. Implementations must be
// safe for concurrent use; the cache may issue synthesis calls from multiple
// announce goroutines.
type Synthesizer interface {
	// Synthesize renders text with the given voice into the requested format
	// and returns the raw audio bytes. A backend that cannot serve requests
	// at all (no credential, no endpoint) returns [ErrUnavailable].
	Synthesize(ctx context.Context, text, voice string, format Format) ([]byte, error)
}
