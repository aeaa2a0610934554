package feargreed

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/internal/domain/market"
	"marketpulse/pkg/errors"
)

var origin = time.Date(2023, time.January, 2, 0, 0, 0, 0, time.UTC)

func series(n int, f func(i int) float64) []Observation {
	out := make([]Observation, n)
	for i := range out {
		out[i] = Observation{Timestamp: origin.AddDate(0, 0, i), Value: f(i)}
	}
	return out
}

func wave(i int) float64 { return 20 + 2*math.Sin(float64(i)/5) }

func TestScoreFromZ(t *testing.T) {
	assert.InDelta(t, 0, ScoreFromZ(2, 2), 1e-12)
	assert.InDelta(t, 100, ScoreFromZ(-2, 2), 1e-12)
	assert.InDelta(t, 50, ScoreFromZ(0, 2), 1e-12)
	assert.Equal(t, ScoreFromZ(2, 2), ScoreFromZ(10, 2))
	assert.Equal(t, ScoreFromZ(-3, 3), ScoreFromZ(-7, 3))
	assert.InDelta(t, 25, ScoreFromZ(1, 2), 1e-12)
}

func TestNormalizeInsufficientWarmup(t *testing.T) {
	spec := Specs[market.IndicatorVIX]
	obs := series(150, wave)
	displayStart := origin.AddDate(0, 0, 99) // 99 observations before, need 100

	_, err := Normalize(spec, obs, displayStart)
	assert.True(t, errors.Is(err, errors.ErrInsufficientWarmup))

	_, err = Normalize(spec, obs, origin.AddDate(0, 0, 100))
	assert.NoError(t, err)
}

func TestNormalizeDegenerateVariance(t *testing.T) {
	obs := series(200, func(int) float64 { return 20 })
	_, err := Normalize(Specs[market.IndicatorVIX], obs, origin.AddDate(0, 0, 150))
	assert.True(t, errors.Is(err, errors.ErrDivisionDegenerate))
}

func TestNormalizeVIXSpikeIsFear(t *testing.T) {
	obs := series(200, wave)
	obs[199].Value = 40
	displayStart := origin.AddDate(0, 0, 150)

	got, err := Normalize(Specs[market.IndicatorVIX], obs, displayStart)
	require.NoError(t, err)

	require.Len(t, got.Points, 50)
	assert.Equal(t, displayStart, got.Points[0].Timestamp)
	assert.Equal(t, market.IndicatorVIX, got.Kind)

	last := got.Points[len(got.Points)-1]
	assert.InDelta(t, 0, last.FearGreedScore, 1e-9, "VIX far above its average is extreme fear")
	assert.Equal(t, 40.0, last.RawValue)

	for _, p := range got.Points {
		assert.GreaterOrEqual(t, p.FearGreedScore, 0.0)
		assert.LessOrEqual(t, p.FearGreedScore, 100.0)
		assert.NotZero(t, p.MovingAvg)
	}
}

func TestNormalizeMomentumRallyIsGreed(t *testing.T) {
	obs := series(400, func(i int) float64 { return 4000 + 30*math.Sin(float64(i)/7) })
	obs[399].Value = obs[398].Value + 400

	got, err := Normalize(Specs[market.IndicatorMarketMomentum], obs, origin.AddDate(0, 0, 300))
	require.NoError(t, err)

	last := got.Points[len(got.Points)-1]
	assert.InDelta(t, 100, last.FearGreedScore, 1e-9, "sharp rally above trend is extreme greed")
}

func TestNormalizeRejectsBadSpec(t *testing.T) {
	_, err := Normalize(IndicatorSpec{Kind: "x", MAPeriod: 1, K: 2}, series(10, wave), origin)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

// nyseHolidays lists the full-day exchange closures of 2023 through 2025
var nyseHolidays = map[string]bool{
	"2023-01-02": true, "2023-01-16": true, "2023-02-20": true, "2023-04-07": true,
	"2023-05-29": true, "2023-06-19": true, "2023-07-04": true, "2023-09-04": true,
	"2023-11-23": true, "2023-12-25": true,
	"2024-01-01": true, "2024-01-15": true, "2024-02-19": true, "2024-03-29": true,
	"2024-05-27": true, "2024-06-19": true, "2024-07-04": true, "2024-09-02": true,
	"2024-11-28": true, "2024-12-25": true,
	"2025-01-01": true, "2025-01-09": true, "2025-01-20": true, "2025-02-17": true,
	"2025-04-18": true, "2025-05-26": true, "2025-06-19": true, "2025-07-04": true,
	"2025-09-01": true, "2025-11-27": true, "2025-12-25": true,
}

// sessions returns the exchange trading days in [from, to)
func sessions(from, to time.Time) []time.Time {
	var out []time.Time
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday || nyseHolidays[d.Format(time.DateOnly)] {
			continue
		}
		out = append(out, d)
	}
	return out
}

var firstMonday2025 = time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)

func TestFetchStartCoversWarmupAcrossHolidays(t *testing.T) {
	for kind, spec := range Specs {
		need := spec.WarmupObservations() + spec.ReturnLookback
		for display := firstMonday2025; display.Year() == 2025; display = display.AddDate(0, 0, 7) {
			got := len(sessions(spec.FetchStart(display), display))
			assert.GreaterOrEqualf(t, got, need, "%s displayed from %s", kind, display.Format(time.DateOnly))
		}
	}
}

func TestNormalizeWeeklyStartsOnExchangeCalendar(t *testing.T) {
	for kind, spec := range Specs {
		for display := firstMonday2025; display.Year() == 2025; display = display.AddDate(0, 0, 7) {
			days := sessions(spec.FetchStart(display), display.AddDate(0, 0, 7))
			inputs := make([][]market.PricePoint, len(Inputs[kind]))
			for j := range inputs {
				period := 7 + 3*float64(j)
				inputs[j] = make([]market.PricePoint, len(days))
				for i, d := range days {
					v := 100 + 10*math.Sin(float64(d.Unix()/86400)/period)
					inputs[j][i] = market.PricePoint{Timestamp: d, Close: decimal.NewFromFloat(v)}
				}
			}

			raw, err := RawSeries(kind, inputs...)
			require.NoError(t, err)
			got, err := Normalize(spec, raw, display)
			require.NoErrorf(t, err, "%s displayed from %s", kind, display.Format(time.DateOnly))
			assert.NotEmpty(t, got.Points)
		}
	}
}
