// Package logger provides structured logging for envtrace.
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields is a set of structured context attached to log messages
type Fields map[string]interface{}

// Logger is the logging surface used across envtrace
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)

	// Trace logs at debug level, only when verbosity >= 2
	Trace(msg string)

	// WithFields returns a Logger that adds fields to every message
	WithFields(fields Fields) Logger
}

// Config holds the configuration for creating a new logger instance.
type Config struct {
	// Verbosity determines the logging level:
	// 0: Info, Warn, Error (default)
	// 1: Debug + Level 0
	// 2: Trace + Level 1
	Verbosity int

	// Output specifies where logs are written. Defaults to os.Stderr.
	Output io.Writer
}

type logger struct {
	zap       *zap.Logger
	verbosity int
}

// New creates a JSON logger writing to config.Output
func New(config Config) Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(config.Output),
		levelFor(config.Verbosity),
	)

	return &logger{
		zap:       zap.New(core),
		verbosity: config.Verbosity,
	}
}

// NewNop returns a Logger that discards everything
func NewNop() Logger {
	return &logger{zap: zap.NewNop()}
}

func levelFor(verbosity int) zapcore.LevelEnabler {
	if verbosity <= 0 {
		return zapcore.InfoLevel
	}
	return zapcore.DebugLevel
}

func (l *logger) Debug(msg string) { l.zap.Debug(msg) }
func (l *logger) Info(msg string)  { l.zap.Info(msg) }
func (l *logger) Warn(msg string)  { l.zap.Warn(msg) }
func (l *logger) Error(msg string) { l.zap.Error(msg) }

func (l *logger) Trace(msg string) {
	if l.verbosity >= 2 {
		l.zap.Debug(msg, zap.Bool("trace", true))
	}
}

func (l *logger) WithFields(fields Fields) Logger {
	zapFields := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zapFields = append(zapFields, zap.Any(k, v))
	}

	return &logger{
		zap:       l.zap.With(zapFields...),
		verbosity: l.verbosity,
	}
}
