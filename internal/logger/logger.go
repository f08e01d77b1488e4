package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	level         = zap.NewAtomicLevelAt(zap.InfoLevel)
	defaultLogger *zap.Logger
	helperLogger  *zap.Logger
)

func init() {
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = true

	l, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	defaultLogger = l
	helperLogger = l.WithOptions(zap.AddCallerSkip(1))
}

// SetLevel changes the global level. Accepts debug, info, warn and error.
func SetLevel(lvl string) error {
	if err := level.UnmarshalText([]byte(lvl)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", lvl, err)
	}
	return nil
}

// Logger returns the process-wide logger.
func Logger() *zap.Logger {
	return defaultLogger
}

// Named returns a child logger tagged with a component name.
func Named(component string) *zap.Logger {
	return defaultLogger.Named(component)
}

// Debug is a convenient alias for Logger().Debug
func Debug(msg string, fields ...zap.Field) {
	helperLogger.Debug(msg, fields...)
}

// Info is a convenient alias for Logger().Info
func Info(msg string, fields ...zap.Field) {
	helperLogger.Info(msg, fields...)
}

// Warn is a convenient alias for Logger().Warn
func Warn(msg string, fields ...zap.Field) {
	helperLogger.Warn(msg, fields...)
}

// Error is a convenient alias for Logger().Error
func Error(msg string, fields ...zap.Field) {
	helperLogger.Error(msg, fields...)
}

// Fatal is a convenient alias for Logger().Fatal
func Fatal(msg string, fields ...zap.Field) {
	helperLogger.Fatal(msg, fields...)
}

// Sync flushes buffered entries.
func Sync() {
	_ = defaultLogger.Sync()
}
