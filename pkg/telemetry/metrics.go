package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "web3event"

// MetricOpts describes an instrument.
type MetricOpts struct {
	Name        string
	Description string
	Unit        string
}

// Counter is a monotonically increasing counter.
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter creates a counter instrument. Instrument creation errors are
// swallowed into a no-op so metric wiring cannot take the service down.
func NewCounter(opts MetricOpts) *Counter {
	c, err := otel.Meter(meterName).Int64Counter(
		opts.Name,
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	)
	if err != nil {
		return &Counter{}
	}
	return &Counter{counter: c}
}

// Inc adds one.
func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.Add(ctx, 1, attrs...)
}

// Add adds n.
func (c *Counter) Add(ctx context.Context, n int64, attrs ...attribute.KeyValue) {
	if c.counter == nil {
		return
	}
	c.counter.Add(ctx, n, metric.WithAttributes(attrs...))
}

// Histogram records a distribution of float64 values.
type Histogram struct {
	histogram metric.Float64Histogram
}

// NewHistogram creates a histogram with default buckets.
func NewHistogram(opts MetricOpts) *Histogram {
	return NewHistogramWithBuckets(opts, nil)
}

// NewHistogramWithBuckets creates a histogram with explicit bucket bounds.
func NewHistogramWithBuckets(opts MetricOpts, buckets []float64) *Histogram {
	instOpts := []metric.Float64HistogramOption{
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	}
	if len(buckets) > 0 {
		instOpts = append(instOpts, metric.WithExplicitBucketBoundaries(buckets...))
	}
	h, err := otel.Meter(meterName).Float64Histogram(opts.Name, instOpts...)
	if err != nil {
		return &Histogram{}
	}
	return &Histogram{histogram: h}
}

// Record records a value.
func (h *Histogram) Record(ctx context.Context, v float64, attrs ...attribute.KeyValue) {
	if h.histogram == nil {
		return
	}
	h.histogram.Record(ctx, v, metric.WithAttributes(attrs...))
}

// UpDownCounter tracks a value that can rise and fall, such as in-flight
// request counts.
type UpDownCounter struct {
	counter metric.Int64UpDownCounter
}

// NewUpDownCounter creates an up-down counter instrument.
func NewUpDownCounter(opts MetricOpts) *UpDownCounter {
	c, err := otel.Meter(meterName).Int64UpDownCounter(
		opts.Name,
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	)
	if err != nil {
		return &UpDownCounter{}
	}
	return &UpDownCounter{counter: c}
}

// Inc adds one.
func (u *UpDownCounter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	if u.counter == nil {
		return
	}
	u.counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// Dec subtracts one.
func (u *UpDownCounter) Dec(ctx context.Context, attrs ...attribute.KeyValue) {
	if u.counter == nil {
		return
	}
	u.counter.Add(ctx, -1, metric.WithAttributes(attrs...))
}
