// Package applog wires up the structured logger every other package in this
// module writes through.
package applog

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvVar is the environment variable this module consults for its log level,
// analogous to RUST_LOG in the implementation this filesystem's behavior is
// grounded on.
const EnvVar = "GITREEFS_LOG"

// New builds a logger writing to w. level is one of debug/info/warn/error
// (default info); format is one of text/color/json (default color).
func New(w io.Writer, level, format string) (*zap.Logger, error) {
	zapLevel, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	encoder, err := parseEncoder(format)
	if err != nil {
		return nil, err
	}
	return zap.New(
		zapcore.NewCore(
			encoder,
			zapcore.Lock(zapcore.AddSync(w)),
			zap.NewAtomicLevelAt(zapLevel),
		),
	), nil
}

// LevelFromEnv reads EnvVar through getenv and returns the level string New
// expects, so callers can do applog.New(os.Stderr, applog.LevelFromEnv(os.Getenv), format).
func LevelFromEnv(getenv func(string) string) string {
	return getenv(EnvVar)
}

func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("applog: unknown level %q (want debug, info, warn, or error)", level)
	}
}

var consoleEncoderConfig = zapcore.EncoderConfig{
	TimeKey:        "ts",
	LevelKey:       "level",
	NameKey:        "logger",
	CallerKey:      "caller",
	MessageKey:     "msg",
	StacktraceKey:  "stacktrace",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeLevel:    zapcore.LowercaseLevelEncoder,
	EncodeTime:     zapcore.ISO8601TimeEncoder,
	EncodeDuration: zapcore.SecondsDurationEncoder,
	EncodeCaller:   zapcore.ShortCallerEncoder,
}

var jsonEncoderConfig = consoleEncoderConfig

func parseEncoder(format string) (zapcore.Encoder, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text", "color", "":
		return zapcore.NewConsoleEncoder(consoleEncoderConfig), nil
	case "json":
		return zapcore.NewJSONEncoder(jsonEncoderConfig), nil
	default:
		return nil, fmt.Errorf("applog: unknown format %q (want text, color, or json)", format)
	}
}
