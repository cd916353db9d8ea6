// Package observe provides application-wide observability primitives for the
// kiosk daemon: OpenTelemetry metrics, tracing, structured logging, and HTTP
// middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all kiosk metrics.
const meterName = "github.com/hitoha-dev/kioskd"

// Metrics holds all OpenTelemetry metric instruments for the daemon.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Event pipeline ---

	// EventsReceived counts events entering the queue. Use with attribute:
	//   attribute.String("source", "sensor"|"inject")
	EventsReceived metric.Int64Counter

	// EventsDropped counts events discarded because the queue was full.
	// Same source attribute as EventsReceived.
	EventsDropped metric.Int64Counter

	// DispatchLatency tracks queue-to-dispatch latency per event.
	DispatchLatency metric.Float64Histogram

	// --- Speech cache ---

	// CacheResolutions counts prompt resolutions. Use with attribute:
	//   attribute.String("result", "hit"|"miss")
	CacheResolutions metric.Int64Counter

	// SynthesisDuration tracks backend synthesis latency for cache misses.
	SynthesisDuration metric.Float64Histogram

	// SynthesisErrors counts failed synthesis attempts. Use with attribute:
	//   attribute.String("reason", ...)
	SynthesisErrors metric.Int64Counter

	// --- Playback ---

	// Announcements counts finished announcements. Use with attribute:
	//   attribute.String("outcome", "played"|"superseded"|"skipped"|"failed")
	Announcements metric.Int64Counter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). The low
// end covers queue latencies, the high end synthesis calls.
var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Event pipeline.
	if met.EventsReceived, err = m.Int64Counter("kioskd.events.received",
		metric.WithDescription("Total events entering the queue by source."),
	); err != nil {
		return nil, err
	}
	if met.EventsDropped, err = m.Int64Counter("kioskd.events.dropped",
		metric.WithDescription("Total events discarded because the queue was full."),
	); err != nil {
		return nil, err
	}
	if met.DispatchLatency, err = m.Float64Histogram("kioskd.dispatch.latency",
		metric.WithDescription("Queue-to-dispatch latency per event."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Speech cache.
	if met.CacheResolutions, err = m.Int64Counter("kioskd.cache.resolutions",
		metric.WithDescription("Total prompt resolutions by result."),
	); err != nil {
		return nil, err
	}
	if met.SynthesisDuration, err = m.Float64Histogram("kioskd.synthesis.duration",
		metric.WithDescription("Latency of speech synthesis calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SynthesisErrors, err = m.Int64Counter("kioskd.synthesis.errors",
		metric.WithDescription("Total failed synthesis attempts by reason."),
	); err != nil {
		return nil, err
	}

	// Playback.
	if met.Announcements, err = m.Int64Counter("kioskd.announcements",
		metric.WithDescription("Total finished announcements by outcome."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("kioskd.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordEvent records an event entering (or bouncing off) the queue.
func (m *Metrics) RecordEvent(ctx context.Context, source string, dropped bool) {
	attrs := metric.WithAttributes(attribute.String("source", source))
	m.EventsReceived.Add(ctx, 1, attrs)
	if dropped {
		m.EventsDropped.Add(ctx, 1, attrs)
	}
}

// RecordDispatch records one event's queue-to-dispatch latency.
func (m *Metrics) RecordDispatch(ctx context.Context, code int, latency time.Duration) {
	m.DispatchLatency.Record(ctx, latency.Seconds(),
		metric.WithAttributes(attribute.Int("code", code)),
	)
}

// RecordCacheResolution records one prompt resolution.
func (m *Metrics) RecordCacheResolution(ctx context.Context, cached bool) {
	result := "miss"
	if cached {
		result = "hit"
	}
	m.CacheResolutions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("result", result)),
	)
}

// RecordSynthesisError records one failed synthesis attempt.
func (m *Metrics) RecordSynthesisError(ctx context.Context, reason string) {
	m.SynthesisErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason)),
	)
}

// RecordAnnouncement records one finished announcement.
func (m *Metrics) RecordAnnouncement(ctx context.Context, outcome string) {
	m.Announcements.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)),
	)
}
