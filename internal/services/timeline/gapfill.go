package timeline

import (
	"math"
	"sort"
	"time"

	"marketpulse/internal/domain/market"
	"marketpulse/internal/domain/sentiment"
	"marketpulse/pkg/errors"
)

const (
	DefaultGapThresholdDays = 5
	DefaultRollingWindow    = 7
	DefaultSpikeK           = 1.5
)

// Observation is one genuinely observed daily sentiment value
type Observation struct {
	Date  time.Time
	Value float64
}

// FromDaily converts pipeline output into observations
func FromDaily(daily []sentiment.DailySentiment) []Observation {
	out := make([]Observation, len(daily))
	for i, d := range daily {
		out[i] = Observation{Date: d.Date, Value: d.Post.NetSentiment}
	}
	return out
}

// GapFillConfig configures GapFill
type GapFillConfig struct {
	// GapThresholdDays separates interpolated gaps (<=) from forward-filled ones (>)
	GapThresholdDays int

	// RollingWindow is the trailing mean length, evaluated with a minimum of one value
	RollingWindow int
}

func (c GapFillConfig) withDefaults() GapFillConfig {
	if c.GapThresholdDays <= 0 {
		c.GapThresholdDays = DefaultGapThresholdDays
	}
	if c.RollingWindow <= 0 {
		c.RollingWindow = DefaultRollingWindow
	}
	return c
}

// GapFill reindexes obs onto every calendar day from start to the last
// observation. Runs of missing days between two observations are linearly
// interpolated when the observations are at most GapThresholdDays apart and
// forward-filled otherwise; days before the first observation are
// back-filled. Observations before start are ignored.
func GapFill(obs []Observation, start time.Time, cfg GapFillConfig) ([]sentiment.TimelinePoint, error) {
	cfg = cfg.withDefaults()
	first := market.Day(start)

	byDay := make(map[time.Time]float64, len(obs))
	var days []time.Time
	for _, o := range obs {
		d := market.Day(o.Date)
		if d.Before(first) || math.IsNaN(o.Value) {
			continue
		}
		if _, dup := byDay[d]; dup {
			continue
		}
		byDay[d] = o.Value
		days = append(days, d)
	}
	if len(days) == 0 {
		return nil, errors.Wrapf(errors.ErrUpstreamDataUnavailable,
			"no sentiment observations since %s", first.Format(time.DateOnly))
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	n := daysBetween(first, days[len(days)-1]) + 1
	points := make([]sentiment.TimelinePoint, n)
	for i := range points {
		points[i] = sentiment.TimelinePoint{Date: first.AddDate(0, 0, i), IsFilled: true}
	}

	firstObs := daysBetween(first, days[0])
	for i := 0; i <= firstObs; i++ {
		points[i].Sentiment = byDay[days[0]]
	}
	points[firstObs].IsFilled = false

	for k := 1; k < len(days); k++ {
		a, b := daysBetween(first, days[k-1]), daysBetween(first, days[k])
		va, vb := byDay[days[k-1]], byDay[days[k]]
		gap := b - a
		for i := a + 1; i < b; i++ {
			if gap > cfg.GapThresholdDays {
				points[i].Sentiment = va
			} else {
				points[i].Sentiment = va + (vb-va)*float64(i-a)/float64(gap)
			}
		}
		points[b].Sentiment = vb
		points[b].IsFilled = false
	}

	rolling := RollingMean(sentimentValues(points), cfg.RollingWindow)
	for i := range points {
		points[i].RollingAvg = rolling[i]
	}
	return points, nil
}

// RollingMean is a trailing mean over window values with a minimum of one
// period, so early entries average over fewer values.
func RollingMean(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	sum := 0.0
	for i, x := range xs {
		sum += x
		if i >= window {
			sum -= xs[i-window]
		}
		count := i + 1
		if count > window {
			count = window
		}
		out[i] = sum / float64(count)
	}
	return out
}

func sentimentValues(points []sentiment.TimelinePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Sentiment
	}
	return out
}

func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}
