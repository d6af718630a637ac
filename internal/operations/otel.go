package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ndxcli/internal/infrastructure"
)

// OperationTracer provides OpenTelemetry instrumentation for operations
type OperationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewOperationTracer creates a tracer from the initialized providers. Nil
// providers produce a tracer that records nothing.
func NewOperationTracer(providers *infrastructure.OTelProviders) *OperationTracer {
	if providers == nil {
		providers = infrastructure.NoopProviders()
	}
	return &OperationTracer{
		tracer:  providers.Tracer,
		metrics: providers.Metrics,
	}
}

// TraceOperationExecution creates a span for the entire operation execution
func (pt *OperationTracer) TraceOperationExecution(ctx context.Context, operationID string, req OperationRequest) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "operation.execute",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.String("operation.constituents_file", req.ConstituentsFile),
			attribute.String("operation.price_change_file", req.PriceChangeFile),
		),
	)
}

// TraceStageExecution creates a span for individual Step execution
func (pt *OperationTracer) TraceStageExecution(ctx context.Context, operationID, stageID string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, fmt.Sprintf("operation.step.%s", stageID),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.String("step.id", stageID),
		),
	)
}

// RecordStageCompletion ends a Step span and records Step metrics
func (pt *OperationTracer) RecordStageCompletion(ctx context.Context, span trace.Span, stageID string, duration time.Duration, records int, err error) {
	span.SetAttributes(
		attribute.Float64("step.duration_seconds", duration.Seconds()),
		attribute.Int("step.records", records),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()

	infrastructure.RecordStep(ctx, pt.metrics, stageID, duration, records, err)
}

// RecordOperationCompletion ends the operation span
func (pt *OperationTracer) RecordOperationCompletion(span trace.Span, status OperationStatusValue, duration time.Duration, err error) {
	span.SetAttributes(
		attribute.String("operation.status", string(status)),
		attribute.Float64("operation.duration_seconds", duration.Seconds()),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
