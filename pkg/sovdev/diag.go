package sovdev

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// diag is the library's internal diagnostics logger. It never participates in
// the structured fan-out: configuration warnings and swallowed sink failures
// go here, as plain console lines on stderr.
var diag = newDiagLogger()

func newDiagLogger() *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		zapcore.InfoLevel,
	)
	return zap.New(core)
}
