package feargreed

import (
	"sort"
	"time"

	"marketpulse/internal/domain/market"
	"marketpulse/pkg/errors"
)

// Compose averages the indicator scores on the calendar days present in
// every series. A day missing from any series is dropped.
func Compose(series ...market.IndicatorSeries) (market.CompositeIndex, error) {
	if len(series) == 0 {
		return market.CompositeIndex{}, errors.Wrap(errors.ErrInvalidInput, "compose: no indicator series")
	}

	type acc struct {
		ts    time.Time
		sum   float64
		count int
	}
	days := make(map[time.Time]*acc)

	for i, s := range series {
		seen := make(map[time.Time]bool, len(s.Points))
		for _, p := range s.Points {
			day := market.Day(p.Timestamp)
			if seen[day] {
				continue
			}
			seen[day] = true

			a, ok := days[day]
			if !ok {
				if i > 0 {
					continue
				}
				a = &acc{ts: day}
				days[day] = a
			}
			if a.count != i {
				continue
			}
			a.sum += p.FearGreedScore
			a.count++
		}
	}

	var index market.CompositeIndex
	for _, a := range days {
		if a.count != len(series) {
			continue
		}
		index.Points = append(index.Points, market.CompositePoint{
			Timestamp:      a.ts,
			FearGreedScore: a.sum / float64(a.count),
		})
	}
	sort.Slice(index.Points, func(i, j int) bool {
		return index.Points[i].Timestamp.Before(index.Points[j].Timestamp)
	})

	if len(index.Points) == 0 {
		return market.CompositeIndex{}, errors.Wrap(errors.ErrUpstreamDataUnavailable, "compose: indicators share no common day")
	}
	return index, nil
}
