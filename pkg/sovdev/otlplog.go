package sovdev

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	otellog "go.opentelemetry.io/otel/log"
)

// emitLog forwards one record to the OTLP logs pipeline. The attribute set is
// a fixed whitelist of the record's own wire keys; nothing else ever rides
// along. Payloads go out as JSON strings so downstream processors never see a
// nested body.
func (t *telemetry) emitLog(ctx context.Context, rec *record, level Level) {
	if t.logger == nil || t.isClosed() {
		return
	}

	now := time.Now()
	var lr otellog.Record
	lr.SetTimestamp(now)
	lr.SetObservedTimestamp(now)
	lr.SetSeverity(level.severity())
	lr.SetSeverityText(string(level))
	lr.SetBody(otellog.StringValue(rec.Message))

	// timestamp and severity ride as attributes as well as record fields; the
	// downstream validators read them from the attribute set.
	attrs := []otellog.KeyValue{
		otellog.String("timestamp", rec.Timestamp),
		otellog.String("observed_timestamp", strconv.FormatInt(now.UnixNano(), 10)),
		otellog.String("severity_text", string(level)),
		otellog.Int64("severity_number", int64(level.severity())),
		otellog.String("service_name", rec.ServiceName),
		otellog.String("service_version", rec.ServiceVersion),
		otellog.String("session_id", rec.SessionID),
		otellog.String("trace_id", rec.TraceID),
		otellog.String("event_id", rec.EventID),
		otellog.String("function_name", rec.FunctionName),
		otellog.String("peer_service", rec.PeerService),
		otellog.String("log_type", rec.LogType),
	}
	if rec.SpanID != "" {
		attrs = append(attrs, otellog.String("span_id", rec.SpanID))
	}

	if rec.InputJSON != nil {
		attrs = append(attrs, otellog.String("input_json", marshalPayload(rec.InputJSON)))
	}
	// response_json is always present, "null" included, so absence can never be
	// confused with a null response.
	attrs = append(attrs, otellog.String("response_json", marshalPayload(rec.ResponseJSON)))

	if rec.ExceptionType != "" {
		attrs = append(attrs,
			otellog.String("exception_type", rec.ExceptionType),
			otellog.String("exception_message", rec.ExceptionMessage),
			otellog.String("exception_stacktrace", rec.ExceptionStacktrace),
		)
	}

	lr.AddAttributes(attrs...)
	t.logger.Emit(ctx, lr)
}

func marshalPayload(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%q", fmt.Sprintf("unserializable payload: %v", err))
	}
	return string(b)
}
