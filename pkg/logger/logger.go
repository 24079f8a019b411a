// Package logger holds the process-global structured logger. The queue
// is a library, so logging defaults stay quiet and structured: JSON to
// stdout at info level unless the embedding application asks otherwise.
package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalLogger *zap.Logger
	once         sync.Once
)

// Config holds logger configuration
type Config struct {
	Level    string // debug, info, warn, error
	Encoding string // json or console
	Service  string // service name for log context
}

// DefaultConfig returns production-ready defaults
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Encoding: "json",
		Service:  "skeenode",
	}
}

// Init initializes the global logger with the given configuration
func Init(cfg Config) *zap.Logger {
	once.Do(func() {
		globalLogger = newLogger(cfg)
	})
	return globalLogger
}

// Get returns the global logger, initializing with defaults if needed
func Get() *zap.Logger {
	if globalLogger == nil {
		globalLogger = newLogger(DefaultConfig())
	}
	return globalLogger
}

// newLogger creates a new zap logger with the given configuration
func newLogger(cfg Config) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if cfg.Encoding == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), parseLevel(cfg.Level))
	return zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.Fields(zap.String("service", cfg.Service)),
	)
}

// parseLevel converts string to zapcore.Level
func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Info logs an info message with optional fields
func Info(msg string, fields ...zap.Field) {
	Get().Info(msg, fields...)
}

// Error logs an error message with optional fields
func Error(msg string, fields ...zap.Field) {
	Get().Error(msg, fields...)
}

// Warn logs a warning message with optional fields
func Warn(msg string, fields ...zap.Field) {
	Get().Warn(msg, fields...)
}

// Debug logs a debug message with optional fields
func Debug(msg string, fields ...zap.Field) {
	Get().Debug(msg, fields...)
}

// Sync flushes any buffered log entries
func Sync() error {
	if globalLogger != nil {
		return globalLogger.Sync()
	}
	return nil
}
