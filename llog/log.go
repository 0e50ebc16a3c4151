// Package llog sets up the zap logger used across the client and provides
// handlers that log invocations.
package llog

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	log      = zap.NewNop().Sugar()
	logLevel = zap.NewAtomicLevel()
)

// NewLogger builds a logger without touching the package default.
func NewLogger(opts ...LoggerOption) (*zap.SugaredLogger, func(), error) {
	cfg := newConfig(opts)

	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.level)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.level, err)
	}

	logger := build(cfg, level)
	return logger, func() { _ = logger.Sync() }, nil
}

// InitLogger replaces the package default returned by GetLogger and
// FromContext. It panics on an invalid level.
func InitLogger(opts ...LoggerOption) (*zap.SugaredLogger, func()) {
	cfg := newConfig(opts)
	if err := logLevel.UnmarshalText([]byte(cfg.level)); err != nil {
		panic("invalid log level: " + cfg.level)
	}

	log = build(cfg, logLevel)
	return log, func() { _ = log.Sync() }
}

func GetLogger() *zap.SugaredLogger {
	return log
}

// SetLevel changes the level of the default logger at runtime.
func SetLevel(level string) error {
	return logLevel.UnmarshalText([]byte(level))
}

func build(cfg config, level zap.AtomicLevel) *zap.SugaredLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = cfg.timeEncoder
	encCfg.StacktraceKey = ""

	consoleEnc := zapcore.NewJSONEncoder(encCfg)
	if cfg.encoding == "console" {
		consoleEnc = zapcore.NewConsoleEncoder(encCfg)
	}
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEnc, zapcore.AddSync(cfg.output), level),
	}

	if cfg.filename != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.filename,
			MaxSize:    cfg.maxSizeMB,
			MaxBackups: cfg.maxBackups,
			MaxAge:     cfg.maxAgeDays,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(rotated), level))
	}

	opts := []zap.Option{zap.AddCallerSkip(1)}
	if cfg.enableCaller {
		opts = append(opts, zap.AddCaller())
	}
	logger := zap.New(zapcore.NewTee(cores...), opts...)
	if cfg.serviceName != "" {
		logger = logger.With(zap.String("service", cfg.serviceName))
	}

	return logger.Sugar()
}
