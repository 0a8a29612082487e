package sovdev

import (
	otellog "go.opentelemetry.io/otel/log"
)

// Level is a log severity as it appears on the wire.
type Level string

const (
	LevelTrace Level = "TRACE"
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
	LevelFatal Level = "FATAL"
)

// severity maps a level onto the OpenTelemetry severity ladder
// (TRACE=1, DEBUG=5, INFO=9, WARN=13, ERROR=17, FATAL=21).
func (l Level) severity() otellog.Severity {
	switch l {
	case LevelTrace:
		return otellog.SeverityTrace
	case LevelDebug:
		return otellog.SeverityDebug
	case LevelInfo:
		return otellog.SeverityInfo
	case LevelWarn:
		return otellog.SeverityWarn
	case LevelError:
		return otellog.SeverityError
	case LevelFatal:
		return otellog.SeverityFatal
	default:
		return otellog.SeverityInfo
	}
}

// isError reports whether the level routes to the error log file.
func (l Level) isError() bool {
	return l == LevelError || l == LevelFatal
}
