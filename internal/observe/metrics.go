// Package observe provides observability primitives for GlideServe:
// OpenTelemetry metrics with a Prometheus exporter bridge, so a host can
// scrape engine latencies from a side HTTP endpoint while the main
// transport stays on stdio.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A package-level
// default [Metrics] instance ([DefaultMetrics]) is provided for convenience;
// tests should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all GlideServe metrics.
const meterName = "github.com/bastiangx/glideserve"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// PredictDuration tracks end-to-end glide prediction latency.
	PredictDuration metric.Float64Histogram

	// RequestDuration tracks per-operation request handling time. Use with
	// attribute.String("op", ...).
	RequestDuration metric.Float64Histogram

	// Predictions counts prediction calls. Use with attributes:
	//   attribute.String("status", "ok"|"empty"|"error")
	Predictions metric.Int64Counter

	// Selections counts learned word selections.
	Selections metric.Int64Counter

	// ActiveRequests tracks requests currently being handled.
	ActiveRequests metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds). A glide
// prediction has to land well inside a keystroke repeat interval, so the
// buckets concentrate below 50ms.
var latencyBuckets = []float64{
	0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.PredictDuration, err = m.Float64Histogram("glideserve.predict.duration",
		metric.WithDescription("End-to-end latency of glide prediction."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.RequestDuration, err = m.Float64Histogram("glideserve.request.duration",
		metric.WithDescription("Request handling latency by operation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Predictions, err = m.Int64Counter("glideserve.predictions",
		metric.WithDescription("Total prediction calls by status."),
	); err != nil {
		return nil, err
	}
	if met.Selections, err = m.Int64Counter("glideserve.selections",
		metric.WithDescription("Total learned word selections."),
	); err != nil {
		return nil, err
	}
	if met.ActiveRequests, err = m.Int64UpDownCounter("glideserve.active_requests",
		metric.WithDescription("Requests currently being handled."),
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

// RecordPrediction records one prediction call with its outcome status.
func (m *Metrics) RecordPrediction(ctx context.Context, status string) {
	m.Predictions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordSelection records one learned selection.
func (m *Metrics) RecordSelection(ctx context.Context) {
	m.Selections.Add(ctx, 1)
}

// RecordRequest records the handling time of one request by operation name.
func (m *Metrics) RecordRequest(ctx context.Context, op string, seconds float64) {
	m.RequestDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("op", op)),
	)
}
