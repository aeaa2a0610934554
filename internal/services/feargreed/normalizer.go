package feargreed

import (
	"math"
	"time"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"

	"marketpulse/internal/domain/market"
	"marketpulse/pkg/errors"
)

// Observation is one raw indicator value
type Observation struct {
	Timestamp time.Time
	Value     float64
}

// IndicatorSpec describes how a raw series becomes a fear/greed score
type IndicatorSpec struct {
	Kind market.IndicatorKind

	// MAPeriod is the moving average length used for detrending
	MAPeriod int

	// K bounds the z-score before mapping to [0,100]
	K float64

	// Orientation is +1 when a value above its average signals fear, -1 when it signals greed
	Orientation float64

	// FirstDifference scores the change of the detrended value instead of its level
	FirstDifference bool

	// ReturnLookback is the trading-day return window of a derived raw series, 0 for plain closes
	ReturnLookback int
}

// WarmupObservations is the history required before the display start
func (s IndicatorSpec) WarmupObservations() int {
	return 2 * s.MAPeriod
}

// sessionsPerYear is the usual count of exchange sessions in 365 calendar days
const sessionsPerYear = 252

// FetchStart returns how far back prices must be fetched so that the
// warm-up requirement holds at displayStart. The window is sized on
// exchange sessions rather than weekdays so holiday clusters still leave
// enough observations; a 5% margin plus two weeks absorbs ad hoc closures.
func (s IndicatorSpec) FetchStart(displayStart time.Time) time.Time {
	sessions := s.WarmupObservations() + s.ReturnLookback + 1
	calendar := int(math.Ceil(float64(sessions)*365/sessionsPerYear*1.05)) + 14
	return displayStart.AddDate(0, 0, -calendar)
}

// ScoreFromZ clamps z to [-k, k] and maps it so that z = k gives 0 and z = -k gives 100
func ScoreFromZ(z, k float64) float64 {
	z = math.Max(-k, math.Min(k, z))
	return 100 - (z+k)*(100/(2*k))
}

// Normalize converts a raw series into an IndicatorSeries restricted to
// timestamps at or after displayStart. The z-score uses every detrended
// value after the moving average warm-up.
func Normalize(spec IndicatorSpec, obs []Observation, displayStart time.Time) (market.IndicatorSeries, error) {
	if spec.MAPeriod < 2 || spec.K <= 0 {
		return market.IndicatorSeries{}, errors.NewValidationError("indicator_spec", "MA period >= 2 and K > 0 required", spec.Kind)
	}

	warmup := 0
	for _, o := range obs {
		if o.Timestamp.Before(displayStart) {
			warmup++
		}
	}
	if warmup < spec.WarmupObservations() {
		return market.IndicatorSeries{}, errors.Wrapf(errors.ErrInsufficientWarmup,
			"%s: %d observations before %s, need %d",
			spec.Kind, warmup, displayStart.Format(time.DateOnly), spec.WarmupObservations())
	}

	values := make([]float64, len(obs))
	for i, o := range obs {
		values[i] = o.Value
	}
	ma := talib.Sma(values, spec.MAPeriod)

	first := spec.MAPeriod - 1
	if spec.FirstDifference {
		first++
	}

	orientation := spec.Orientation
	if orientation == 0 {
		orientation = 1
	}

	diffs := make([]float64, len(obs))
	for i := first; i < len(obs); i++ {
		d := values[i] - ma[i]
		if spec.FirstDifference {
			d -= values[i-1] - ma[i-1]
		}
		diffs[i] = orientation * d
	}

	mean, std := meanStd(diffs[first:])
	if std == 0 || math.IsNaN(std) || math.IsNaN(mean) {
		return market.IndicatorSeries{}, errors.Wrapf(errors.ErrDivisionDegenerate, "%s: zero variance", spec.Kind)
	}

	series := market.IndicatorSeries{Kind: spec.Kind}
	for i := first; i < len(obs); i++ {
		if obs[i].Timestamp.Before(displayStart) {
			continue
		}
		series.Points = append(series.Points, market.IndicatorPoint{
			Timestamp:      obs[i].Timestamp,
			RawValue:       values[i],
			MovingAvg:      ma[i],
			FearGreedScore: ScoreFromZ((diffs[i]-mean)/std, spec.K),
		})
	}
	if len(series.Points) == 0 {
		return market.IndicatorSeries{}, errors.Wrapf(errors.ErrUpstreamDataUnavailable,
			"%s: no observations after %s", spec.Kind, displayStart.Format(time.DateOnly))
	}
	return series, nil
}

// meanStd returns the mean and sample standard deviation (ddof = 1)
func meanStd(xs []float64) (float64, float64) {
	if len(xs) < 2 {
		return math.NaN(), math.NaN()
	}
	return stat.MeanStdDev(xs, nil)
}
