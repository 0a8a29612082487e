package sovdev

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// startCallSpan opens the span wrapping one logging call. Absent a traces
// pipeline it returns the context untouched and a nil span, which keeps a
// caller-supplied trace id authoritative for the record.
func (t *telemetry) startCallSpan(
	ctx context.Context,
	functionName string,
	level Level,
	logType, resolvedPeer, serviceName, serviceVersion string,
) (context.Context, trace.Span) {
	if t.tracer == nil || t.isClosed() {
		return ctx, nil
	}
	return t.tracer.Start(ctx, functionName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("service_name", serviceName),
			attribute.String("service_version", serviceVersion),
			attribute.String("peer_service", resolvedPeer),
			attribute.String("function_name", functionName),
			attribute.String("log_type", logType),
			attribute.String("log_level", string(level)),
		),
	)
}

// endCallSpan attaches the payloads as events, sets the status from the
// outcome, and ends the span.
func endCallSpan(span trace.Span, level Level, message string, exception error, input, response any) {
	if span == nil {
		return
	}

	if input != nil {
		if b, err := json.Marshal(input); err == nil {
			span.AddEvent("input", trace.WithAttributes(
				attribute.String("input_json", string(b))))
		}
	}
	if response != nil {
		if b, err := json.Marshal(response); err == nil {
			span.AddEvent("response", trace.WithAttributes(
				attribute.String("response_json", string(b))))
		}
	}

	switch {
	case exception != nil:
		span.RecordError(exception)
		span.SetStatus(codes.Error, exception.Error())
	case level.isError():
		span.SetStatus(codes.Error, message)
	default:
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}
