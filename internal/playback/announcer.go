package playback

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoha-dev/kioskd/internal/dispatch"
	"github.com/hitoha-dev/kioskd/pkg/speech"
	"github.com/hitoha-dev/kioskd/pkg/speech/cache"
)

// Resolver resolves prompt text to a playable audio file. Satisfied by
// [cache.Cache].
type Resolver interface {
	Resolve(ctx context.Context, text string) (cache.Entry, error)
}

// Outcome classifies how one announcement ended, for metrics.
type Outcome string

const (
	// OutcomePlayed means the prompt was resolved and played to completion.
	OutcomePlayed Outcome = "played"

	// OutcomeSuperseded means a newer announcement displaced this one
	// before it finished.
	OutcomeSuperseded Outcome = "superseded"

	// OutcomeSkipped means no audio was available (no backend, breaker
	// open) and the announcement was silently dropped.
	OutcomeSkipped Outcome = "skipped"

	// OutcomeFailed means resolution or playback errored.
	OutcomeFailed Outcome = "failed"
)

// Option is a functional option for configuring an Announcer.
type Option func(*Announcer)

// WithOutcomeFunc registers a callback invoked with the outcome of every
// announcement. Used to wire metrics without coupling playback to the
// metrics layer.
func WithOutcomeFunc(fn func(Outcome)) Option {
	return func(a *Announcer) {
		a.onOutcome = fn
	}
}

// Announcer implements [dispatch.Speaker]. Each Announce call claims a new
// generation; the previous generation's context is cancelled, which aborts
// its delay wait, cache resolution, or in-progress playback. Announce never
// blocks the caller.
type Announcer struct {
	resolver  Resolver
	sink      Sink
	onOutcome func(Outcome)

	base       context.Context
	baseCancel context.CancelFunc

	mu      sync.Mutex
	cancel  context.CancelFunc
	closed  bool
	pending sync.WaitGroup
}

// Compile-time interface assertion.
var _ dispatch.Speaker = (*Announcer)(nil)

// New creates an Announcer that resolves prompts through resolver and plays
// them through sink.
func New(resolver Resolver, sink Sink, opts ...Option) *Announcer {
	base, baseCancel := context.WithCancel(context.Background())
	a := &Announcer{
		resolver:   resolver,
		sink:       sink,
		base:       base,
		baseCancel: baseCancel,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Announce schedules d and returns immediately. Any announcement still
// pending or playing is superseded.
func (a *Announcer) Announce(d dispatch.SpeechDirective) {
	if d.Text == "" {
		return
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	if a.cancel != nil {
		a.cancel()
	}
	ctx, cancel := context.WithCancel(a.base)
	a.cancel = cancel
	a.pending.Add(1)
	a.mu.Unlock()

	go a.run(ctx, d)
}

// Close cancels any pending announcement and waits for its goroutine to
// finish. The announcer cannot be reused afterwards.
func (a *Announcer) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()

	a.baseCancel()
	a.pending.Wait()
}

// run executes one announcement: delay, resolve, play.
func (a *Announcer) run(ctx context.Context, d dispatch.SpeechDirective) {
	defer a.pending.Done()

	if d.Delay > 0 {
		timer := time.NewTimer(d.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			a.finish(OutcomeSuperseded)
			return
		}
	}

	entry, err := a.resolver.Resolve(ctx, d.Text)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			a.finish(OutcomeSuperseded)
		case errors.Is(err, speech.ErrUnavailable):
			// Expected when running without a synthesis backend or while
			// the breaker is open. The kiosk just stays silent.
			slog.Info("prompt audio unavailable; skipping speech", "text", d.Text)
			a.finish(OutcomeSkipped)
		default:
			slog.Warn("prompt resolution failed", "text", d.Text, "err", err)
			a.finish(OutcomeFailed)
		}
		return
	}

	if err := a.sink.Play(ctx, entry.Path); err != nil {
		if ctx.Err() != nil {
			a.finish(OutcomeSuperseded)
			return
		}
		slog.Warn("audio playback failed", "path", entry.Path, "err", err)
		a.finish(OutcomeFailed)
		return
	}
	a.finish(OutcomePlayed)
}

func (a *Announcer) finish(o Outcome) {
	if a.onOutcome != nil {
		a.onOutcome(o)
	}
}
