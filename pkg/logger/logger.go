package logger

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"marketpulse/pkg/errors"
)

var (
	mu     sync.Mutex
	global *Logger

	// tracker is shared by every child logger, so components built before
	// SetErrorTracker still report.
	tracker atomic.Pointer[trackerSlot]
)

type trackerSlot struct{ t errors.Tracker }

// Logger is a zap SugaredLogger whose Errorw calls are also sent to the error tracker
type Logger struct {
	*zap.SugaredLogger
	tags map[string]string
}

// Init builds the global logger. Production uses JSON output; anything else
// gets the colored console encoder. Unknown levels fall back to info.
func Init(level string, env string) error {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if env == "production" {
		cfg = zap.NewProductionConfig()
	}

	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	z, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return errors.Wrap(err, "build zap logger")
	}

	mu.Lock()
	global = &Logger{SugaredLogger: z.Sugar()}
	mu.Unlock()
	return nil
}

// SetErrorTracker routes Errorw calls of all loggers to t; nil disables it
func SetErrorTracker(t errors.Tracker) {
	tracker.Store(&trackerSlot{t: t})
}

// Get returns the global logger, creating a development one when Init was not called
func Get() *Logger {
	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		z, _ := zap.NewDevelopment()
		global = &Logger{SugaredLogger: z.Sugar()}
	}
	return global
}

// Sync flushes buffered entries of the global logger
func Sync() error {
	mu.Lock()
	l := global
	mu.Unlock()
	if l == nil {
		return nil
	}
	return l.Sync()
}

// With returns a child logger with extra key/value fields. String values of
// "component" and "ticker" also become tracker tags.
func (l *Logger) With(args ...interface{}) *Logger {
	tags := make(map[string]string, len(l.tags)+1)
	for k, v := range l.tags {
		tags[k] = v
	}
	for i := 0; i+1 < len(args); i += 2 {
		key, _ := args[i].(string)
		if val, ok := args[i+1].(string); ok && (key == "component" || key == "ticker") {
			tags[key] = val
		}
	}
	return &Logger{SugaredLogger: l.SugaredLogger.With(args...), tags: tags}
}

// Component returns a child logger tagged with the component name
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}

// Ctx adds the ticker carried by ctx, if any
func (l *Logger) Ctx(ctx context.Context) *Logger {
	if ticker, ok := errors.TickerFrom(ctx); ok {
		return l.With("ticker", ticker)
	}
	return l
}

// Errorw logs at error level and captures the "error" field, or the message
// when there is none, with the tracker.
func (l *Logger) Errorw(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.WithOptions(zap.AddCallerSkip(1)).Errorw(msg, keysAndValues...)

	slot := tracker.Load()
	if slot == nil || slot.t == nil {
		return
	}

	tags := make(map[string]string, len(l.tags)+1)
	for k, v := range l.tags {
		tags[k] = v
	}
	var cause error
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		switch key, _ := keysAndValues[i].(string); key {
		case "error":
			cause, _ = keysAndValues[i+1].(error)
		case "ticker":
			if s, ok := keysAndValues[i+1].(string); ok {
				tags["ticker"] = s
			}
		}
	}

	if cause == nil {
		_ = slot.t.CaptureMessage(context.Background(), msg, errors.LevelError, tags)
		return
	}
	_ = slot.t.CaptureError(context.Background(), errors.Wrap(cause, msg), tags)
}
