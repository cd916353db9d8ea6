package resilience

import (
	"context"
	"errors"

	"github.com/hitoha-dev/kioskd/pkg/speech"
)

// Synthesizer implements [speech.Synthesizer] by routing calls through a
// [CircuitBreaker]. While the breaker is open, synthesis requests fail fast
// with [speech.ErrUnavailable] instead of waiting out a network timeout, so
// a dead backend degrades the kiosk to cached-prompts-only rather than
// freezing screen transitions.
type Synthesizer struct {
	backend speech.Synthesizer
	breaker *CircuitBreaker
}

// Compile-time interface assertion.
var _ speech.Synthesizer = (*Synthesizer)(nil)

// NewSynthesizer wraps backend with a circuit breaker tuned by cfg.
func NewSynthesizer(backend speech.Synthesizer, cfg CircuitBreakerConfig) *Synthesizer {
	if cfg.Name == "" {
		cfg.Name = "speech"
	}
	return &Synthesizer{
		backend: backend,
		breaker: NewCircuitBreaker(cfg),
	}
}

// Synthesize forwards to the wrapped backend if the breaker allows it. When
// the breaker is open, the error wraps both [speech.ErrUnavailable] and
// [ErrCircuitOpen] so callers can treat it as an expected degradation.
func (s *Synthesizer) Synthesize(ctx context.Context, text, voice string, format speech.Format) ([]byte, error) {
	var audio []byte
	err := s.breaker.Execute(func() error {
		var synthErr error
		audio, synthErr = s.backend.Synthesize(ctx, text, voice, format)
		return synthErr
	})
	if errors.Is(err, ErrCircuitOpen) {
		return nil, errors.Join(speech.ErrUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	return audio, nil
}

// BreakerState reports the current state of the underlying breaker, for
// readiness reporting.
func (s *Synthesizer) BreakerState() State {
	return s.breaker.State()
}
