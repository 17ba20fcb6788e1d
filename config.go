package pipef

import (
	"github.com/benbjohnson/clock"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for the engine. The default discards all
// output.
func WithLogger(log logr.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithClock sets the clock used for the duration limit and the tick
// interval. Tests inject a mock clock here.
func WithClock(clk clock.Clock) Option {
	return func(e *Engine) {
		e.clk = clk
	}
}

// WithErrorHandler sets a custom error handler for processing failures.
// The handler receives the error and the source node whose propagation
// failed, and returns the recovery action. The default skips transient
// errors and fails on fatal ones.
func WithErrorHandler(h ErrorHandler) Option {
	return func(e *Engine) {
		e.errHandler = h
	}
}

// WithMetrics registers the engine's counters (ticks, items per source,
// transient errors) with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(e *Engine) {
		e.metrics = newEngineMetrics(reg)
	}
}
