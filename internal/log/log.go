// Package log wraps zap with a context-first call convention so request-scoped
// fields (trace IDs, session IDs) can be injected via hooks instead of being
// threaded through every call site.
package log

import (
	"context"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Field is an alias for zap.Field so callers never need to import zap directly.
type Field = zap.Field

func String(key, val string) Field    { return zap.String(key, val) }
func Int(key string, val int) Field   { return zap.Int(key, val) }
func Bool(key string, val bool) Field { return zap.Bool(key, val) }
func Any(key string, val any) Field   { return zap.Any(key, val) }

// Cause attaches an error under the conventional "error" key.
func Cause(err error) Field { return zap.Error(err) }

// Hook derives extra fields from a context before a log line is written.
// It receives the fields accumulated so far and returns the fields to use
// from then on (typically the input plus whatever it derived).
type Hook interface {
	Apply(ctx context.Context, msg string, fields ...Field) []Field
}

// HookFunc adapts a plain function to the Hook interface.
type HookFunc func(ctx context.Context, msg string, fields ...Field) []Field

func (f HookFunc) Apply(ctx context.Context, msg string, fields ...Field) []Field {
	if f == nil {
		return fields
	}

	return f(ctx, msg, fields...)
}

// Logger is a zap.Logger with a hook chain applied to every call.
type Logger struct {
	mu    sync.RWMutex
	base  *zap.Logger
	hooks []Hook
}

// New builds a Logger writing JSON lines to stdout, or, when filePath is
// non-empty, to filePath rotated through lumberjack instead.
func New(filePath string, level zapcore.Level) *Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	var writer zapcore.WriteSyncer
	if filePath != "" {
		writer = zapcore.AddSync(&lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		})
	} else {
		writer = zapcore.AddSync(os.Stdout)
	}

	core := zapcore.NewCore(encoder, writer, level)

	return &Logger{base: zap.New(core)}
}

// AddHook registers a hook whose derived fields are appended to every
// subsequent log call made through this Logger.
func (l *Logger) AddHook(h Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, h)
}

func (l *Logger) fieldsFor(ctx context.Context, msg string, extra []Field) []Field {
	l.mu.RLock()
	hooks := l.hooks
	l.mu.RUnlock()

	fields := extra
	for _, h := range hooks {
		fields = h.Apply(ctx, msg, fields...)
	}

	return fields
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.base.Debug(msg, l.fieldsFor(ctx, msg, fields)...)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...Field) {
	l.base.Info(msg, l.fieldsFor(ctx, msg, fields)...)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.base.Warn(msg, l.fieldsFor(ctx, msg, fields)...)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...Field) {
	l.base.Error(msg, l.fieldsFor(ctx, msg, fields)...)
}

func (l *Logger) Sync() error {
	return l.base.Sync()
}

var defaultLogger atomic.Pointer[Logger]

func init() {
	defaultLogger.Store(New("", zapcore.InfoLevel))
}

// SetDefault replaces the package-level logger used by Debug/Info/Warn/Error.
func SetDefault(l *Logger) {
	defaultLogger.Store(l)
}

// AddHook registers a hook on the package-level default logger.
func AddHook(h Hook) {
	defaultLogger.Load().AddHook(h)
}

func Debug(ctx context.Context, msg string, fields ...Field) {
	defaultLogger.Load().Debug(ctx, msg, fields...)
}
func Info(ctx context.Context, msg string, fields ...Field) {
	defaultLogger.Load().Info(ctx, msg, fields...)
}
func Warn(ctx context.Context, msg string, fields ...Field) {
	defaultLogger.Load().Warn(ctx, msg, fields...)
}
func Error(ctx context.Context, msg string, fields ...Field) {
	defaultLogger.Load().Error(ctx, msg, fields...)
}
