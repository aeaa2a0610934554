package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/pkg/errors"
)

func TestTimeFilterWindow(t *testing.T) {
	now := time.Date(2024, time.March, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		filter   string
		start    time.Time
		interval string
	}{
		{"year", time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), "1d"},
		{"Month", time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), "1d"},
		{"week", time.Date(2024, time.March, 8, 14, 30, 0, 0, time.UTC), "1d"},
		{"day", time.Date(2024, time.March, 14, 14, 30, 0, 0, time.UTC), "1h"},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			f, err := ParseTimeFilter(tt.filter)
			require.NoError(t, err)
			w, err := f.Window(now)
			require.NoError(t, err)
			assert.Equal(t, tt.start, w.Start)
			assert.Equal(t, now, w.End)
			assert.Equal(t, tt.interval, w.Interval)
		})
	}
}

func TestParseTimeFilterRejectsUnknown(t *testing.T) {
	_, err := ParseTimeFilter("decade")
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestRatingFor(t *testing.T) {
	assert.Equal(t, RatingExtremeFear, RatingFor(0))
	assert.Equal(t, RatingFear, RatingFor(30))
	assert.Equal(t, RatingNeutral, RatingFor(50))
	assert.Equal(t, RatingGreed, RatingFor(70))
	assert.Equal(t, RatingExtremeGreed, RatingFor(100))
	assert.True(t, IndicatorVIX.Valid())
	assert.False(t, IndicatorKind("rsi").Valid())
}
