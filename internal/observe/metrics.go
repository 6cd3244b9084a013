// Package observe provides application-wide observability primitives for
// dictee: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all dictee metrics.
const meterName = "github.com/MrWong99/dictee"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use: the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// TranscriptDuration tracks how long the pipeline takes per utterance.
	TranscriptDuration metric.Float64Histogram

	// Transcripts counts processed utterances. Use with attribute:
	//   attribute.String("source", ...): "cli", "http" or "stream".
	Transcripts metric.Int64Counter

	// Edits counts substitutions. Use with attribute:
	//   attribute.String("stage", ...)
	Edits metric.Int64Counter

	// NumbersConverted counts number runs replaced by digits.
	NumbersConverted metric.Int64Counter

	// JournalErrors counts failed journal operations. Use with attribute:
	//   attribute.String("op", ...)
	JournalErrors metric.Int64Counter

	// ActiveStreams tracks the number of open WebSocket streams.
	ActiveStreams metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("route", ...),
	//   attribute.Int("status", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Text
// post-processing is sub-millisecond; the upper buckets catch journal writes
// and slow clients.
var latencyBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05, 0.1, 0.5, 1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.TranscriptDuration, err = m.Float64Histogram("dictee.transcript.duration",
		metric.WithDescription("Latency of the post-processing pipeline per utterance."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.Transcripts, err = m.Int64Counter("dictee.transcripts",
		metric.WithDescription("Total processed utterances by source."),
	); err != nil {
		return nil, err
	}
	if met.Edits, err = m.Int64Counter("dictee.edits",
		metric.WithDescription("Total substitutions by pipeline stage."),
	); err != nil {
		return nil, err
	}
	if met.NumbersConverted, err = m.Int64Counter("dictee.numbers.converted",
		metric.WithDescription("Total spelled-out number runs converted to digits."),
	); err != nil {
		return nil, err
	}
	if met.JournalErrors, err = m.Int64Counter("dictee.journal.errors",
		metric.WithDescription("Total failed journal operations by operation."),
	); err != nil {
		return nil, err
	}

	if met.ActiveStreams, err = m.Int64UpDownCounter("dictee.active_streams",
		metric.WithDescription("Number of open WebSocket dictation streams."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("dictee.http.request.duration",
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
//
// Call it after [InitProvider] so the instruments bind to the exporting
// provider.
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

// RecordTranscript records one processed utterance from source.
func (m *Metrics) RecordTranscript(ctx context.Context, source string) {
	m.Transcripts.Add(ctx, 1, metric.WithAttributes(Attr("source", source)))
}

// RecordEdits records n substitutions made by stage.
func (m *Metrics) RecordEdits(ctx context.Context, stage string, n int) {
	m.Edits.Add(ctx, int64(n), metric.WithAttributes(Attr("stage", stage)))
}

// RecordJournalError records a failed journal operation.
func (m *Metrics) RecordJournalError(ctx context.Context, op string) {
	m.JournalErrors.Add(ctx, 1, metric.WithAttributes(Attr("op", op)))
}
