package signal

import (
	"math"
	"sort"

	"github.com/markcheno/go-talib"

	"marketpulse/internal/domain/market"
	"marketpulse/internal/domain/signal"
)

const DefaultCorrelationWindow = 7

// Correlate inner-joins prices and the composite index by calendar day and
// computes the rolling Pearson correlation of price vs score. The first
// window-1 rows, rows whose window is flat on either series and every row
// of a series shorter than the window report 0.
func Correlate(prices []market.PricePoint, index market.CompositeIndex, window int) []signal.CorrelationPoint {
	if window < 2 {
		window = DefaultCorrelationWindow
	}

	scores := make(map[int64]float64, len(index.Points))
	for _, p := range index.Points {
		scores[market.Day(p.Timestamp).Unix()] = p.FearGreedScore
	}

	var rows []signal.CorrelationPoint
	seen := make(map[int64]bool, len(prices))
	for _, p := range prices {
		day := market.Day(p.Timestamp)
		score, ok := scores[day.Unix()]
		if !ok || seen[day.Unix()] {
			continue
		}
		seen[day.Unix()] = true
		rows = append(rows, signal.CorrelationPoint{
			Timestamp:      day,
			Price:          p.Close.InexactFloat64(),
			FearGreedScore: score,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Timestamp.Before(rows[j].Timestamp) })

	if len(rows) < window {
		return rows
	}

	px := make([]float64, len(rows))
	fg := make([]float64, len(rows))
	for i, r := range rows {
		px[i], fg[i] = r.Price, r.FearGreedScore
	}

	corr := talib.Correl(px, fg, window)
	for i := window - 1; i < len(rows); i++ {
		// talib keeps running sums, so a constant window can leave a
		// residue far from 0 instead of a zero variance.
		from := i - window + 1
		if flat(px[from:i+1]) || flat(fg[from:i+1]) {
			continue
		}
		if c := corr[i]; !math.IsNaN(c) && !math.IsInf(c, 0) {
			rows[i].Correlation = math.Max(-1, math.Min(1, c))
		}
	}
	return rows
}

func flat(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}
