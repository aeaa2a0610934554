package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one closing price bar
type PricePoint struct {
	Timestamp time.Time       `ch:"timestamp"`
	Close     decimal.Decimal `ch:"close"`
}

// IndicatorKind names one of the four fear/greed sub-indicators
type IndicatorKind string

const (
	IndicatorVIX            IndicatorKind = "vix"
	IndicatorMarketMomentum IndicatorKind = "market_momentum"
	IndicatorSafeHaven      IndicatorKind = "safe_haven"
	IndicatorYieldSpread    IndicatorKind = "yield_spread"
)

// AllIndicators lists the kinds the composite index joins over
var AllIndicators = []IndicatorKind{
	IndicatorVIX,
	IndicatorMarketMomentum,
	IndicatorSafeHaven,
	IndicatorYieldSpread,
}

// Valid reports whether k is a known indicator
func (k IndicatorKind) Valid() bool {
	for _, known := range AllIndicators {
		if k == known {
			return true
		}
	}
	return false
}

// IndicatorPoint is one day of a normalized indicator
type IndicatorPoint struct {
	Timestamp      time.Time `json:"timestamp"`
	RawValue       float64   `json:"raw_value"`
	MovingAvg      float64   `json:"moving_avg"`
	FearGreedScore float64   `json:"fear_greed_score"` // [0,100]
}

// IndicatorSeries is a timestamp-ordered normalized indicator
type IndicatorSeries struct {
	Kind   IndicatorKind    `json:"kind"`
	Points []IndicatorPoint `json:"points"`
}

// CompositePoint is the averaged fear/greed score of one day
type CompositePoint struct {
	Timestamp      time.Time `json:"timestamp"`
	FearGreedScore float64   `json:"fear_greed_score"`
}

// Rating buckets the score the way fear/greed gauges are usually labelled
func (p CompositePoint) Rating() Rating {
	return RatingFor(p.FearGreedScore)
}

// CompositeIndex holds only days present in all four indicator series
type CompositeIndex struct {
	Points []CompositePoint `json:"points"`
}

// Rating is a coarse label for a fear/greed score
type Rating string

const (
	RatingExtremeFear  Rating = "extreme_fear"
	RatingFear         Rating = "fear"
	RatingNeutral      Rating = "neutral"
	RatingGreed        Rating = "greed"
	RatingExtremeGreed Rating = "extreme_greed"
)

// RatingFor maps a score (0 = extreme fear, 100 = extreme greed) to its label
func RatingFor(score float64) Rating {
	switch {
	case score < 25:
		return RatingExtremeFear
	case score < 45:
		return RatingFear
	case score <= 55:
		return RatingNeutral
	case score <= 75:
		return RatingGreed
	default:
		return RatingExtremeGreed
	}
}

// Day returns the calendar day of t (in t's own location) as UTC midnight.
// Series from different sources are joined on this key.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
