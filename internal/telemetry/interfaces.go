package telemetry

import "log"

// Logger exposes the logging capabilities required by server components.
type Logger interface {
	Printf(format string, args ...any)
}

// LoggerFunc adapts functions into the Logger interface.
type LoggerFunc func(format string, args ...any)

// Printf implements Logger for LoggerFunc.
func (f LoggerFunc) Printf(format string, args ...any) {
	if f == nil {
		return
	}
	f(format, args...)
}

// WrapLogger adapts a standard library logger to the Logger interface.
func WrapLogger(logger *log.Logger) Logger {
	return &loggerAdapter{logger: logger}
}

type loggerAdapter struct {
	logger *log.Logger
}

func (l *loggerAdapter) Printf(format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Printf(format, args...)
}

// Metrics exposes the counters and gauges recorded by the simulation.
type Metrics interface {
	Add(key string, delta uint64)
	Store(key string, value uint64)
	RecordDuration(key string, seconds float64)
}

// NopMetrics discards every measurement.
type NopMetrics struct{}

func (NopMetrics) Add(string, uint64)             {}
func (NopMetrics) Store(string, uint64)           {}
func (NopMetrics) RecordDuration(string, float64) {}
