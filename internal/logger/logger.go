// Package logger holds the process-wide zap logger used by the compile stages.
package logger

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the process logger. It discards everything until Init or Setup.
var Log = zap.NewNop()

// Rotation bounds the log file kept by lumberjack.
type Rotation struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultRotation keeps a few small files; compile logs are short.
var DefaultRotation = Rotation{MaxSizeMB: 10, MaxBackups: 5, MaxAgeDays: 30}

// Options selects the level and the outputs of the logger.
type Options struct {
	Level string
	// Console receives colored entries. Nil disables console output.
	Console io.Writer
	// File, when set, receives plain entries through a rotating writer.
	File     string
	Rotation Rotation
}

// Init logs to stderr at level, and to logFile when it is not empty.
func Init(level, logFile string) error {
	return Setup(Options{
		Level:    level,
		Console:  os.Stderr,
		File:     logFile,
		Rotation: DefaultRotation,
	})
}

// Setup replaces the process logger.
func Setup(o Options) error {
	lvl, err := ParseLevel(o.Level)
	if err != nil {
		return err
	}

	var cores []zapcore.Core
	if o.Console != nil {
		enc := zapcore.NewConsoleEncoder(encoderConfig(true))
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(o.Console), lvl))
	}
	if o.File != "" {
		w := &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    o.Rotation.MaxSizeMB,
			MaxBackups: o.Rotation.MaxBackups,
			MaxAge:     o.Rotation.MaxAgeDays,
			Compress:   o.Rotation.Compress,
			LocalTime:  true,
		}
		enc := zapcore.NewConsoleEncoder(encoderConfig(false))
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(w), lvl))
	}

	var opts []zap.Option
	if lvl == zapcore.DebugLevel {
		// Skip the package helpers so the caller is the stage itself.
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	Log = zap.New(zapcore.NewTee(cores...), opts...)
	return nil
}

func encoderConfig(color bool) zapcore.EncoderConfig {
	cfg := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		CallerKey:        "caller",
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
	if color {
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return cfg
}

// ParseLevel maps a configured level name to a zap level. An empty name is
// info.
func ParseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return lvl, fmt.Errorf("logger: %w", err)
	}
	return lvl, nil
}

// With adds fields to every later entry.
func With(fields ...zap.Field) {
	Log = Log.With(fields...)
}

// Reset discards all output again.
func Reset() {
	Log = zap.NewNop()
}

// Sync flushes buffered entries.
func Sync() {
	_ = Log.Sync()
}

func Debug(msg string, fields ...zap.Field) { Log.Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { Log.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Log.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Log.Error(msg, fields...) }

// Enabled reports whether entries at level are written.
func Enabled(level zapcore.Level) bool {
	return Log.Core().Enabled(level)
}
