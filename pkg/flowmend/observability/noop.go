package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
// Use when metrics are disabled to avoid overhead.
type NoopMetrics struct{}

// Compile-time interface check.
var _ MetricsRecorder = NoopMetrics{}

// RecordMutation does nothing.
func (NoopMetrics) RecordMutation(_ context.Context, _, _ string, _ time.Duration) {}

// RecordRemediationAction does nothing.
func (NoopMetrics) RecordRemediationAction(_ context.Context, _, _ string, _ bool) {}

// RecordTraversal does nothing.
func (NoopMetrics) RecordTraversal(_ context.Context, _ int, _ time.Duration, _ bool) {}

// NoopSpanManager is a SpanManager that does nothing.
// Use when tracing is disabled to avoid overhead.
type NoopSpanManager struct{}

// Compile-time interface check.
var _ SpanManager = NoopSpanManager{}

var noopSpan = noop.Span{}

// StartMutationSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartMutationSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartRemediationSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartRemediationSpan(ctx context.Context, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartTraversalSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartTraversalSpan(ctx context.Context, _ string, _ bool) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(_ trace.Span, _ error) {}
