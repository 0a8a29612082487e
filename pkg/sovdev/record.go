package sovdev

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// Log type classification, one per façade operation.
const (
	logTypeTransaction = "transaction"
	logTypeJobStatus   = "job.status"
	logTypeJobProgress = "job.progress"
)

const timestampLayout = "2006-01-02T15:04:05.000-07:00"

// record is the canonical log record. Field order matches the wire examples;
// the JSON tags are the flat snake_case wire names used by every sink.
type record struct {
	Timestamp           string `json:"timestamp"`
	Level               string `json:"level"`
	ServiceName         string `json:"service_name"`
	ServiceVersion      string `json:"service_version"`
	SessionID           string `json:"session_id"`
	TraceID             string `json:"trace_id"`
	SpanID              string `json:"span_id,omitempty"`
	EventID             string `json:"event_id"`
	FunctionName        string `json:"function_name"`
	Message             string `json:"message"`
	PeerService         string `json:"peer_service"`
	LogType             string `json:"log_type"`
	InputJSON           any    `json:"input_json,omitempty"`
	ResponseJSON        any    `json:"response_json"`
	ExceptionType       string `json:"exception_type,omitempty"`
	ExceptionMessage    string `json:"exception_message,omitempty"`
	ExceptionStacktrace string `json:"exception_stacktrace,omitempty"`
}

// newTraceID returns a fresh 32-hex identifier, syntactically indistinguishable
// from an OpenTelemetry trace id.
func newTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// buildRecord projects one call into the canonical record. Trace and span ids
// come from the active span in ctx when one exists; a caller-supplied trace id
// is used otherwise, and a fresh one is fabricated as the last resort. The
// builder performs no I/O.
func (s *state) buildRecord(
	ctx context.Context,
	level Level,
	functionName, message, resolvedPeer string,
	input, response any,
	exception error,
	traceID, logType string,
) *record {
	spanCtx := trace.SpanContextFromContext(ctx)
	spanID := ""
	switch {
	case spanCtx.IsValid():
		traceID = spanCtx.TraceID().String()
		spanID = spanCtx.SpanID().String()
	case traceID != "":
		// Accepted as-is; callers correlate with ids from GenerateTraceID.
	default:
		traceID = newTraceID()
	}

	rec := &record{
		Timestamp:      time.Now().UTC().Format(timestampLayout),
		Level:          string(level),
		ServiceName:    s.serviceName,
		ServiceVersion: s.serviceVersion,
		SessionID:      s.sessionID,
		TraceID:        traceID,
		SpanID:         spanID,
		EventID:        uuid.NewString(),
		FunctionName:   functionName,
		Message:        message,
		PeerService:    resolvedPeer,
		LogType:        logType,
		InputJSON:      input,
		ResponseJSON:   response,
	}

	if exc := sanitizeException(exception); exc != nil {
		rec.ExceptionType = exc.Type
		rec.ExceptionMessage = exc.Message
		rec.ExceptionStacktrace = exc.Stack
	}

	return rec
}
