package flowmend

import (
	"log/slog"
	"time"

	"github.com/randalmurphal/flowmend/pkg/flowmend/event"
	"github.com/randalmurphal/flowmend/pkg/flowmend/observability"
)

// Option configures an Engine.
type Option func(*Engine)

// WithMaxRounds sets the remediate-then-retry budget for non-revision
// conflict categories. Default 1: each obstacle is cleared once, and a
// recurrence means something keeps re-creating it.
func WithMaxRounds(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxRounds = n
		}
	}
}

// WithRevisionRounds sets the retry budget for stale-revision conflicts.
// Default 3: revisions go stale under routine concurrent access.
func WithRevisionRounds(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.revisionRounds = n
		}
	}
}

// WithStopScope selects what a running-conflict remediation stops.
// Default StopComponent.
func WithStopScope(scope StopScope) Option {
	return func(e *Engine) {
		e.stopScope = scope
	}
}

// WithStopWait bounds how long the engine waits for a stopped component
// to actually report STOPPED. Default 30s.
func WithStopWait(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.stopWait = d
		}
	}
}

// WithDrainTimeout bounds a queue drain job from submit to terminal
// status. Default 60s.
func WithDrainTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.drainTimeout = d
		}
	}
}

// WithPollInterval sets the interval for run-state and async job polling.
// Default 1s.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.pollInterval = d
		}
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithSpans sets the trace span manager.
func WithSpans(s observability.SpanManager) Option {
	return func(e *Engine) {
		e.spans = s
	}
}

// WithEventBus publishes remediation actions to the bus as they happen.
func WithEventBus(bus event.Bus) Option {
	return func(e *Engine) {
		e.bus = bus
	}
}

// WithTraversalConcurrency bounds sibling fan-out in ListHierarchy.
func WithTraversalConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}
