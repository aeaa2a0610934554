package sentry

import (
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"

	"marketpulse/pkg/errors"
)

func TestConvertLevel(t *testing.T) {
	cases := map[errors.Level]sentry.Level{
		errors.LevelDebug:   sentry.LevelDebug,
		errors.LevelWarning: sentry.LevelWarning,
		errors.LevelFatal:   sentry.LevelFatal,
		errors.Level("x"):   sentry.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, convertLevel(in), string(in))
	}
}
