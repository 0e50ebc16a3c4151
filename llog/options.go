package llog

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
)

const logTimeFormat = "2006-01-02 15:04:05.000"

type config struct {
	level        string // debug, info, warn, error, dpanic, panic, fatal
	encoding     string // json or console
	output       io.Writer
	enableCaller bool
	serviceName  string
	timeEncoder  zapcore.TimeEncoder

	// rotated file sink, disabled when filename is empty
	filename   string
	maxSizeMB  int
	maxBackups int
	maxAgeDays int
}

func newConfig(opts []LoggerOption) config {
	cfg := config{
		level:       "info",
		encoding:    "json",
		output:      os.Stdout,
		timeEncoder: layoutTimeEncoder(logTimeFormat),
		maxSizeMB:   10,
		maxBackups:  7,
		maxAgeDays:  30,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func layoutTimeEncoder(layout string) zapcore.TimeEncoder {
	return func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		if enc, ok := enc.(interface{ AppendTimeLayout(time.Time, string) }); ok {
			enc.AppendTimeLayout(t, layout)
			return
		}
		enc.AppendString(t.Format(layout))
	}
}

type LoggerOption func(cfg *config)

func WithLevel(level string) LoggerOption {
	return func(cfg *config) {
		if level != "" {
			cfg.level = level
		}
	}
}

func WithEncoding(encoding string) LoggerOption {
	return func(cfg *config) {
		if encoding != "" {
			cfg.encoding = encoding
		}
	}
}

// WithFilename adds a lumberjack rotated JSON file next to the console sink.
func WithFilename(filename string) LoggerOption {
	return func(cfg *config) {
		cfg.filename = filename
	}
}

// WithRotation overrides the rotation limits; zero keeps the default.
func WithRotation(maxSizeMB, maxBackups, maxAgeDays int) LoggerOption {
	return func(cfg *config) {
		if maxSizeMB > 0 {
			cfg.maxSizeMB = maxSizeMB
		}
		if maxBackups > 0 {
			cfg.maxBackups = maxBackups
		}
		if maxAgeDays > 0 {
			cfg.maxAgeDays = maxAgeDays
		}
	}
}

func WithEnableCaller(enableCaller bool) LoggerOption {
	return func(cfg *config) {
		cfg.enableCaller = enableCaller
	}
}

func WithServiceName(serviceName string) LoggerOption {
	return func(cfg *config) {
		cfg.serviceName = serviceName
	}
}

// WithOutput replaces stdout as the console sink.
func WithOutput(w io.Writer) LoggerOption {
	return func(cfg *config) {
		if w != nil {
			cfg.output = w
		}
	}
}

func WithTimeEncoder(enc zapcore.TimeEncoder) LoggerOption {
	return func(cfg *config) {
		if enc != nil {
			cfg.timeEncoder = enc
		}
	}
}
