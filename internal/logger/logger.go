// Package logger builds the zap loggers used by the CLI and the HTTP server.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes where logs go and how they look.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	Output     string // stderr, stdout, file, both
	FilePath   string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
}

// ParseLevel maps a level name to a zap level. Unknown names are an error.
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", name)
}

// New creates a logger from cfg. A nil cfg logs info and above to stderr.
func New(cfg *Config) (*zap.Logger, error) {
	if cfg == nil {
		cfg = &Config{Level: "info", Format: "console", Output: "stderr"}
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	var cores []zapcore.Core
	switch cfg.Output {
	case "", "stderr":
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level))
	case "stdout", "both":
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level))
	case "file":
	default:
		return nil, fmt.Errorf("unknown log output %q", cfg.Output)
	}
	if cfg.Output == "file" || cfg.Output == "both" {
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("log output %q needs a file path", cfg.Output)
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(fileWriter(cfg)), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

// NewWriter creates a logger writing to w, for tests and embedding.
func NewWriter(w io.Writer, level zapcore.Level) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = ""
	return zap.New(zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(w), level))
}

func fileWriter(cfg *Config) io.Writer {
	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
	}
}
