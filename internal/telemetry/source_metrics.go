package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const sourceMeterName = "github.com/airscape/airscape/internal/telemetry"

// SourceMetrics holds the instruments for upstream data source calls and the
// caches in front of them. A nil *SourceMetrics is a valid no-op receiver so
// components can take it as an optional dependency.
type SourceMetrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
	cacheTotal      metric.Int64Counter
	syntheticTotal  metric.Int64Counter
}

// NewSourceMetrics creates the source instruments on the global meter.
func NewSourceMetrics() (*SourceMetrics, error) {
	meter := otel.Meter(sourceMeterName)

	requestDuration, err := meter.Float64Histogram(
		"airscape.source.request.duration",
		metric.WithDescription("Duration of upstream source requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"airscape.source.request.total",
		metric.WithDescription("Total number of upstream source requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	cacheTotal, err := meter.Int64Counter(
		"airscape.cache.lookup.total",
		metric.WithDescription("Total number of cache lookups"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	syntheticTotal, err := meter.Int64Counter(
		"airscape.synthetic.total",
		metric.WithDescription("Total number of synthetic fallback answers"),
		metric.WithUnit("{answer}"),
	)
	if err != nil {
		return nil, err
	}

	return &SourceMetrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheTotal:      cacheTotal,
		syntheticTotal:  syntheticTotal,
	}, nil
}

// RecordRequest records one upstream source attempt.
func (m *SourceMetrics) RecordRequest(ctx context.Context, source, op string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("source", source),
		attribute.String("operation", op),
		attribute.Bool("error", err != nil),
	}
	m.requestDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCacheLookup records a hit or miss on a named cache.
func (m *SourceMetrics) RecordCacheLookup(ctx context.Context, cache string, hit bool) {
	if m == nil {
		return
	}

	m.cacheTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache", cache),
		attribute.Bool("hit", hit),
	))
}

// RecordSynthetic records that an operation was answered by the synthetic
// generator because every source failed.
func (m *SourceMetrics) RecordSynthetic(ctx context.Context, op string) {
	if m == nil {
		return
	}

	m.syntheticTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
	))
}
