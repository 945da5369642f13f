package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/samvad-hq/spreedly-client/internal/config"
)

// Logger is the object-logging surface shared by the app, the spreedly client
// and the publishers.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

// Package-level logger to be used across packages after Init.
var S *zap.SugaredLogger

// ZapLogger implements Logger on top of zap.
type ZapLogger struct {
	base *zap.Logger
}

// Init initializes a zap logger writing JSON to stderr using settings from config.
func Init(cfg *config.Config) (*ZapLogger, error) {
	level := "info"
	if cfg != nil {
		level = cfg.LogLevel
	}
	return New(level, os.Stderr), nil
}

// New builds a ZapLogger for the given level writing to w.
func New(level string, w io.Writer) *ZapLogger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(zapcore.Lock(zapcore.AddSync(w))),
		parseLevel(level),
	)

	base := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
	S = base.Sugar()
	return &ZapLogger{base: base}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Close flushes any buffered loggers.
func Close() error {
	if S == nil {
		return nil
	}
	return S.Sync()
}

// These log the given object as a structured field named `key` and do not
// attempt to parse arbitrary kv arrays.
func (l *ZapLogger) InfoObj(msg, key string, obj interface{})  { l.base.Info(msg, zap.Any(key, obj)) }
func (l *ZapLogger) DebugObj(msg, key string, obj interface{}) { l.base.Debug(msg, zap.Any(key, obj)) }
func (l *ZapLogger) WarnObj(msg, key string, obj interface{})  { l.base.Warn(msg, zap.Any(key, obj)) }
func (l *ZapLogger) ErrorObj(msg, key string, obj interface{}) { l.base.Error(msg, zap.Any(key, obj)) }

// Sync flushes the underlying core.
func (l *ZapLogger) Sync() error { return l.base.Sync() }

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) InfoObj(string, string, interface{})  {}
func (NopLogger) DebugObj(string, string, interface{}) {}
func (NopLogger) WarnObj(string, string, interface{})  {}
func (NopLogger) ErrorObj(string, string, interface{}) {}
