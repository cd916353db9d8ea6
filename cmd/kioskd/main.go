// Command kioskd is the control daemon for the measurement kiosk: it reads
// sensor event codes from the serial board, drives screen transitions, and
// speaks the matching prompts through a cached speech pipeline.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hitoha-dev/kioskd/internal/config"
	"github.com/hitoha-dev/kioskd/internal/dispatch"
	"github.com/hitoha-dev/kioskd/internal/health"
	"github.com/hitoha-dev/kioskd/internal/kiosk"
	"github.com/hitoha-dev/kioskd/internal/observe"
	"github.com/hitoha-dev/kioskd/internal/playback"
	"github.com/hitoha-dev/kioskd/internal/resilience"
	"github.com/hitoha-dev/kioskd/internal/sensor"
	"github.com/hitoha-dev/kioskd/internal/trigger"
	"github.com/hitoha-dev/kioskd/pkg/speech"
	"github.com/hitoha-dev/kioskd/pkg/speech/azure"
	"github.com/hitoha-dev/kioskd/pkg/speech/cache"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "kioskd: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "kioskd: %v\n", err)
		}
		return 1
	}
	config.ApplyDefaults(cfg)

	// ── Logger ────────────────────────────────────────────────────────────────
	logLevel := new(slog.LevelVar)
	logLevel.Set(slogLevel(cfg.Server.LogLevel))
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("kioskd starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "kioskd",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Speech pipeline ───────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinBackends(reg)

	synth, breakerState := buildSynthesizer(cfg, reg)
	if synth != nil {
		synth = &meteredSynthesizer{inner: synth, metrics: metrics}
	}

	var cacheOpts []cache.Option
	if synth != nil {
		cacheOpts = append(cacheOpts, cache.WithSynthesizer(synth))
	}
	audioCache, err := cache.New(cfg.Speech.CacheDir, cfg.Speech.Voice, speech.Format(cfg.Speech.Format), cacheOpts...)
	if err != nil {
		slog.Error("failed to open audio cache", "err", err)
		return 1
	}

	var sink playback.Sink = playback.LogSink{}
	if cfg.Player.Command != "" {
		sink = playback.NewExecSink(cfg.Player.Command, cfg.Player.Args...)
	}

	announcer := playback.New(
		&meteredResolver{cache: audioCache, metrics: metrics},
		sink,
		playback.WithOutcomeFunc(func(o playback.Outcome) {
			metrics.RecordAnnouncement(context.Background(), string(o))
		}),
	)
	defer announcer.Close()

	// ── Dispatcher and event loop ─────────────────────────────────────────────
	screen := kiosk.NewScreenState()
	dispatcher := dispatch.New(screen, announcer)
	dispatcher.SetPrompts(kiosk.PromptsFromConfig(cfg.Prompts))

	core := kiosk.New(dispatcher,
		kiosk.WithSubmitFunc(func(source string, dropped bool) {
			metrics.RecordEvent(context.Background(), source, dropped)
		}),
		kiosk.WithDispatchFunc(func(code int, latency time.Duration) {
			metrics.RecordDispatch(context.Background(), code, latency)
		}),
	)

	// ── Sensor ────────────────────────────────────────────────────────────────
	// A missing board is survivable: events can still arrive via /inject, and
	// readiness reports the sensor as down.
	portName := func() string { return "" }
	reader, err := sensor.Open(cfg.Sensor.Port, cfg.Sensor.BaudRate, cfg.Sensor.ReadTimeout.Std())
	if err != nil {
		slog.Warn("sensor unavailable; continuing with http injection only", "err", err)
	} else {
		portName = reader.PortName
		defer reader.Close()
		go core.Consume(reader.Events())
	}

	// ── Config hot reload ─────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		d := config.Diff(old, new)
		if d.LogLevelChanged {
			logLevel.Set(slogLevel(d.NewLogLevel))
			slog.Info("log level updated", "level", d.NewLogLevel)
		}
		if d.PromptsChanged {
			dispatcher.SetPrompts(kiosk.PromptsFromConfig(d.NewPrompts))
		}
	})
	if err != nil {
		slog.Warn("config watcher unavailable; hot reload disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	// ── Ops HTTP server ───────────────────────────────────────────────────────
	mux := http.NewServeMux()
	health.New(
		health.CacheDirChecker(cfg.Speech.CacheDir),
		health.SensorChecker(portName),
		health.BreakerChecker(breakerState),
	).Register(mux)
	trigger.New(core).Register(mux)
	screen.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: observe.Middleware(metrics)(mux),
	}
	go func() {
		slog.Info("ops server listening", "addr", cfg.Server.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("ops server failed", "err", err)
			stop()
		}
	}()

	// ── Run ───────────────────────────────────────────────────────────────────
	slog.Info("kiosk ready — press Ctrl+C to shut down")
	core.Run(ctx)

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	slog.Info("shutdown signal received, stopping…")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("ops server shutdown error", "err", err)
	}
	slog.Info("goodbye")
	return 0
}

// ── Speech backend wiring ─────────────────────────────────────────────────────

// registerBuiltinBackends wires the synthesis backends that ship with kioskd
// into reg.
func registerBuiltinBackends(reg *config.Registry) {
	reg.RegisterSynthesizer("azure", func(sc config.SpeechConfig) (speech.Synthesizer, error) {
		key := sc.APIKey
		if key == "" {
			key = os.Getenv("SPEECH_API_KEY")
		}
		return azure.New(sc.Region, key,
			azure.WithLanguage(sc.Language),
			azure.WithTimeout(sc.RequestTimeout.Std()),
		)
	})
}

// buildSynthesizer creates the configured backend wrapped in a circuit
// breaker. A missing backend or API key is not an error: the kiosk runs on
// pre-baked prompts only. The second return value reports the breaker state
// for readiness checks.
func buildSynthesizer(cfg *config.Config, reg *config.Registry) (speech.Synthesizer, func() string) {
	noBreaker := func() string { return "closed" }

	if cfg.Speech.Backend == "" {
		return nil, noBreaker
	}
	if cfg.Speech.APIKey == "" && os.Getenv("SPEECH_API_KEY") == "" {
		slog.Info("no speech api key; running with cached prompts only",
			"backend", cfg.Speech.Backend)
		return nil, noBreaker
	}

	backend, err := reg.CreateSynthesizer(cfg.Speech)
	if err != nil {
		slog.Error("failed to create speech backend; running with cached prompts only",
			"backend", cfg.Speech.Backend, "err", err)
		return nil, noBreaker
	}

	wrapped := resilience.NewSynthesizer(backend, resilience.CircuitBreakerConfig{
		Name:         cfg.Speech.Backend,
		MaxFailures:  cfg.Speech.Breaker.MaxFailures,
		ResetTimeout: cfg.Speech.Breaker.ResetTimeout.Std(),
	})
	slog.Info("speech backend created", "backend", cfg.Speech.Backend, "voice", cfg.Speech.Voice)
	return wrapped, func() string { return wrapped.BreakerState().String() }
}

// meteredSynthesizer records synthesis latency and failures around the
// wrapped backend.
type meteredSynthesizer struct {
	inner   speech.Synthesizer
	metrics *observe.Metrics
}

func (s *meteredSynthesizer) Synthesize(ctx context.Context, text, voice string, format speech.Format) ([]byte, error) {
	start := time.Now()
	audio, err := s.inner.Synthesize(ctx, text, voice, format)
	s.metrics.SynthesisDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		reason := "backend"
		if errors.Is(err, resilience.ErrCircuitOpen) {
			reason = "circuit_open"
		}
		s.metrics.RecordSynthesisError(ctx, reason)
	}
	return audio, err
}

// meteredResolver records cache hit/miss counts around the audio cache.
type meteredResolver struct {
	cache   *cache.Cache
	metrics *observe.Metrics
}

func (r *meteredResolver) Resolve(ctx context.Context, text string) (cache.Entry, error) {
	entry, err := r.cache.Resolve(ctx, text)
	if err == nil {
		r.metrics.RecordCacheResolution(ctx, entry.Cached)
	}
	return entry, err
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
