package observability

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "gridlock/server/internal/observability"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics records simulation counters and timings through the global
// OpenTelemetry meter provider. With no provider installed the instruments
// are no-ops, which keeps the engine free of exporter concerns.
type Metrics struct {
	counters  metric.Int64Counter
	gauges    metric.Int64Gauge
	durations metric.Float64Histogram

	mu  sync.Mutex
	err error
}

// NewMetrics creates the shared instruments. Instrument creation errors are
// retained for Err() but never block the simulation.
func NewMetrics() *Metrics {
	m := meter()
	out := &Metrics{}

	var err error
	out.counters, err = m.Int64Counter(
		"gridlock.sim.counter",
		metric.WithDescription("Simulation counters keyed by name"),
	)
	out.recordErr(err)

	out.gauges, err = m.Int64Gauge(
		"gridlock.sim.gauge",
		metric.WithDescription("Simulation gauges keyed by name"),
	)
	out.recordErr(err)

	out.durations, err = m.Float64Histogram(
		"gridlock.sim.duration_seconds",
		metric.WithDescription("Simulation timing distributions keyed by name"),
	)
	out.recordErr(err)

	return out
}

func (m *Metrics) recordErr(err error) {
	if err == nil {
		return
	}
	m.mu.Lock()
	if m.err == nil {
		m.err = err
	}
	m.mu.Unlock()
}

// Err reports the first instrument-creation failure, if any.
func (m *Metrics) Err() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Add increments the named counter.
func (m *Metrics) Add(key string, delta uint64) {
	if m == nil || m.counters == nil {
		return
	}
	m.counters.Add(context.Background(), int64(delta),
		metric.WithAttributes(attribute.String("name", key)))
}

// Store records the named gauge value.
func (m *Metrics) Store(key string, value uint64) {
	if m == nil || m.gauges == nil {
		return
	}
	m.gauges.Record(context.Background(), int64(value),
		metric.WithAttributes(attribute.String("name", key)))
}

// RecordDuration records a timing sample in seconds.
func (m *Metrics) RecordDuration(key string, seconds float64) {
	if m == nil || m.durations == nil {
		return
	}
	m.durations.Record(context.Background(), seconds,
		metric.WithAttributes(attribute.String("name", key)))
}
