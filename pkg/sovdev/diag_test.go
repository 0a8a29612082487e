package sovdev

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// captureDiag swaps the package diagnostics logger for an observer for the
// duration of one test.
func captureDiag(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	prev := diag
	diag = zap.New(core)
	t.Cleanup(func() { diag = prev })
	return logs
}

func diagContains(logs *observer.ObservedLogs, substr string) bool {
	return logs.FilterMessageSnippet(substr).Len() > 0
}
