package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hitoha-dev/kioskd/pkg/speech"
)

// ErrBackendNotRegistered is returned by [Registry.CreateSynthesizer] when no
// factory has been registered under the requested backend name.
var ErrBackendNotRegistered = errors.New("config: speech backend not registered")

// SynthesizerFactory constructs a speech backend from its configuration
// block.
type SynthesizerFactory func(SpeechConfig) (speech.Synthesizer, error)

// Registry maps speech backend names to their constructor functions, so the
// daemon can select a backend by config value alone. It is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]SynthesizerFactory
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]SynthesizerFactory),
	}
}

// RegisterSynthesizer registers a factory under name, replacing any previous
// registration for that name.
func (r *Registry) RegisterSynthesizer(name string, factory SynthesizerFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// CreateSynthesizer builds the backend selected by cfg.Backend. An empty
// backend name yields (nil, nil): the caller runs without synthesis.
func (r *Registry) CreateSynthesizer(cfg SpeechConfig) (speech.Synthesizer, error) {
	if cfg.Backend == "" {
		return nil, nil
	}

	r.mu.RLock()
	factory, ok := r.factories[cfg.Backend]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotRegistered, cfg.Backend)
	}
	return factory(cfg)
}

// Names returns the registered backend names, for diagnostics.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}
