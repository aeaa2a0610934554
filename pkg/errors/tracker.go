package errors

import (
	"context"
)

// Tracker reports failures to an external error tracking service (Sentry or none)
type Tracker interface {
	// CaptureError sends an error to the tracking service
	CaptureError(ctx context.Context, err error, tags map[string]string) error

	// CaptureMessage sends a message to the tracking service
	CaptureMessage(ctx context.Context, message string, level Level, tags map[string]string) error

	// AddBreadcrumb records a step of the current analysis run
	AddBreadcrumb(ctx context.Context, message string, category string, level Level, data map[string]interface{})

	// Flush waits for all pending events to be sent
	Flush(ctx context.Context) error
}

// Level represents the severity level of an error or message
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelFatal   Level = "fatal"
)

// String returns the string representation of the level
func (l Level) String() string {
	return string(l)
}

type tickerKey struct{}

// WithTicker attaches the analysed ticker to ctx so trackers can tag events with it
func WithTicker(ctx context.Context, ticker string) context.Context {
	return context.WithValue(ctx, tickerKey{}, ticker)
}

// TickerFrom returns the ticker stored by WithTicker, if any
func TickerFrom(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tickerKey{}).(string)
	return t, ok && t != ""
}
