package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the flowmend tracer instance, backed by the global OTel
// tracer provider.
var tracer = otel.Tracer("flowmend")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartMutationSpan starts a span for one mutation call.
	StartMutationSpan(ctx context.Context, op, targetID string) (context.Context, trace.Span)

	// StartRemediationSpan starts a span for one remediation round,
	// a child of the mutation span.
	StartRemediationSpan(ctx context.Context, category string) (context.Context, trace.Span)

	// StartTraversalSpan starts a span for one traversal call.
	StartTraversalSpan(ctx context.Context, rootGroupID string, resumed bool) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
// Configure the global tracer provider before calling:
//
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartMutationSpan starts a span for one mutation call.
func (m *otelSpanManager) StartMutationSpan(ctx context.Context, op, targetID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "flowmend.mutate",
		trace.WithAttributes(
			attribute.String("mutation.op", op),
			attribute.String("mutation.target_id", targetID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartRemediationSpan starts a span for one remediation round.
func (m *otelSpanManager) StartRemediationSpan(ctx context.Context, category string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "flowmend.remediate."+category,
		trace.WithAttributes(
			attribute.String("remediation.category", category),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartTraversalSpan starts a span for one traversal call.
func (m *otelSpanManager) StartTraversalSpan(ctx context.Context, rootGroupID string, resumed bool) (context.Context, trace.Span) {
	return tracer.Start(ctx, "flowmend.traverse",
		trace.WithAttributes(
			attribute.String("traversal.root_group_id", rootGroupID),
			attribute.Bool("traversal.resumed", resumed),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
