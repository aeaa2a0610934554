package errors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsSentinel(t *testing.T) {
	err := Wrapf(ErrUpstreamDataUnavailable, "fetch %s", "SPY")
	assert.True(t, Is(err, ErrUpstreamDataUnavailable))
	assert.Equal(t, "fetch SPY: upstream data unavailable", err.Error())
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestMultiError(t *testing.T) {
	var m MultiError
	assert.Nil(t, m.ToError())

	m.Add(nil)
	m.Add(Wrap(ErrScoringFailed, "post 1"))
	m.Add(ErrTimeout)

	err := m.ToError()
	assert.Error(t, err)
	assert.True(t, Is(err, ErrScoringFailed))
	assert.True(t, Is(err, ErrTimeout))
	assert.Equal(t, "2 errors: post 1: text scoring failed; operation timeout", err.Error())
}

func TestValidationErrorIsInvalidInput(t *testing.T) {
	err := NewValidationError("window", "must be positive", 0)
	assert.True(t, Is(err, ErrInvalidInput))
}

func TestTickerContext(t *testing.T) {
	_, ok := TickerFrom(context.Background())
	assert.False(t, ok)

	ticker, ok := TickerFrom(WithTicker(context.Background(), "QQQ"))
	assert.True(t, ok)
	assert.Equal(t, "QQQ", ticker)
}

func TestMarkKeepsBothChains(t *testing.T) {
	err := Mark(context.Canceled, ErrScoringFailed)
	assert.True(t, Is(err, ErrScoringFailed))
	assert.True(t, Is(err, context.Canceled))
	assert.Equal(t, err, Mark(err, ErrScoringFailed))
	assert.Nil(t, Mark(nil, ErrScoringFailed))
}

func TestPermanent(t *testing.T) {
	assert.True(t, Permanent(NewValidationError("ticker", "required", "")))
	assert.True(t, Permanent(Wrap(ErrNotFound, "model file")))
	assert.False(t, Permanent(Wrap(ErrUnavailable, "clickhouse ping failed")))
	assert.False(t, Permanent(nil))
}
