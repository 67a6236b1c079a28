package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records mutation and traversal metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordMutation records one mutation call with its terminal status.
	RecordMutation(ctx context.Context, op, status string, duration time.Duration)

	// RecordRemediationAction records one remediation action outcome.
	RecordRemediationAction(ctx context.Context, category, action string, succeeded bool)

	// RecordTraversal records one traversal call.
	RecordTraversal(ctx context.Context, groupsVisited int, duration time.Duration, completed bool)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	mutations          metric.Int64Counter
	mutationLatency    metric.Float64Histogram
	remediationActions metric.Int64Counter
	traversalRuns      metric.Int64Counter
	traversalGroups    metric.Int64Counter
	traversalLatency   metric.Float64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// NewMetricsRecorder returns the default OTel-backed recorder.
// The underlying instruments are created once per process.
func NewMetricsRecorder() (MetricsRecorder, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	if defaultMetricsErr != nil {
		return nil, defaultMetricsErr
	}
	return defaultMetrics, nil
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("flowmend")

	mutations, err := meter.Int64Counter("flowmend.mutation.calls",
		metric.WithDescription("Number of mutation calls by terminal status"),
	)
	if err != nil {
		return nil, err
	}

	mutationLatency, err := meter.Float64Histogram("flowmend.mutation.latency_ms",
		metric.WithDescription("Mutation call latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	remediationActions, err := meter.Int64Counter("flowmend.remediation.actions",
		metric.WithDescription("Number of remediation actions by category and outcome"),
	)
	if err != nil {
		return nil, err
	}

	traversalRuns, err := meter.Int64Counter("flowmend.traversal.runs",
		metric.WithDescription("Number of traversal calls"),
	)
	if err != nil {
		return nil, err
	}

	traversalGroups, err := meter.Int64Counter("flowmend.traversal.groups",
		metric.WithDescription("Number of groups visited across traversals"),
	)
	if err != nil {
		return nil, err
	}

	traversalLatency, err := meter.Float64Histogram("flowmend.traversal.latency_ms",
		metric.WithDescription("Traversal call latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		mutations:          mutations,
		mutationLatency:    mutationLatency,
		remediationActions: remediationActions,
		traversalRuns:      traversalRuns,
		traversalGroups:    traversalGroups,
		traversalLatency:   traversalLatency,
	}, nil
}

// RecordMutation implements MetricsRecorder.
func (m *otelMetrics) RecordMutation(ctx context.Context, op, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("status", status),
	)
	m.mutations.Add(ctx, 1, attrs)
	m.mutationLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordRemediationAction implements MetricsRecorder.
func (m *otelMetrics) RecordRemediationAction(ctx context.Context, category, action string, succeeded bool) {
	m.remediationActions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("category", category),
		attribute.String("action", action),
		attribute.Bool("succeeded", succeeded),
	))
}

// RecordTraversal implements MetricsRecorder.
func (m *otelMetrics) RecordTraversal(ctx context.Context, groupsVisited int, duration time.Duration, completed bool) {
	attrs := metric.WithAttributes(attribute.Bool("completed", completed))
	m.traversalRuns.Add(ctx, 1, attrs)
	m.traversalGroups.Add(ctx, int64(groupsVisited), attrs)
	m.traversalLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
}
