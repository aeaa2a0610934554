package feargreed

import (
	"sort"

	"marketpulse/internal/domain/market"
	"marketpulse/pkg/errors"
)

const returnLookback = 20

// Specs lists the four indicators. A positive orientation means a reading
// above its moving average pushes the score toward fear (0).
var Specs = map[market.IndicatorKind]IndicatorSpec{
	market.IndicatorVIX: {
		Kind:        market.IndicatorVIX,
		MAPeriod:    50,
		K:           2,
		Orientation: 1,
	},
	market.IndicatorMarketMomentum: {
		Kind:            market.IndicatorMarketMomentum,
		MAPeriod:        125,
		K:               3,
		Orientation:     -1,
		FirstDifference: true,
	},
	market.IndicatorSafeHaven: {
		Kind:           market.IndicatorSafeHaven,
		MAPeriod:       20,
		K:              2,
		Orientation:    -1,
		ReturnLookback: returnLookback,
	},
	market.IndicatorYieldSpread: {
		Kind:           market.IndicatorYieldSpread,
		MAPeriod:       20,
		K:              2,
		Orientation:    1,
		ReturnLookback: returnLookback,
	},
}

// Inputs names the tickers each indicator is computed from
var Inputs = map[market.IndicatorKind][]string{
	market.IndicatorVIX:            {market.TickerVIX},
	market.IndicatorMarketMomentum: {market.TickerSP500},
	market.IndicatorSafeHaven:      {market.TickerStocks, market.TickerBonds},
	market.IndicatorYieldSpread:    {market.TickerInvestmentGrd, market.TickerJunkBonds},
}

// RawSeries builds the raw observation series of kind from its input
// price series, given in the order of Inputs[kind].
//
//	vix, momentum: closing level
//	safe haven:    20d return(stocks) - 20d return(bonds)
//	yield spread:  20d return(investment grade) - 20d return(junk)
func RawSeries(kind market.IndicatorKind, prices ...[]market.PricePoint) ([]Observation, error) {
	want := len(Inputs[kind])
	if want == 0 {
		return nil, errors.NewValidationError("indicator", "unknown indicator", kind)
	}
	if len(prices) != want {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "%s needs %d price series, got %d", kind, want, len(prices))
	}
	for i, p := range prices {
		if len(p) == 0 {
			return nil, errors.Wrapf(errors.ErrUpstreamDataUnavailable, "%s: no prices for %s", kind, Inputs[kind][i])
		}
	}

	if want == 1 {
		return closes(prices[0]), nil
	}
	return returnSpread(prices[0], prices[1], returnLookback), nil
}

func closes(prices []market.PricePoint) []Observation {
	out := make([]Observation, len(prices))
	for i, p := range prices {
		out[i] = Observation{Timestamp: p.Timestamp, Value: p.Close.InexactFloat64()}
	}
	return out
}

// returnSpread joins a and b on calendar day and returns the difference of
// their n-period returns, dropping the first n joined rows.
func returnSpread(a, b []market.PricePoint, n int) []Observation {
	bByDay := make(map[int64]float64, len(b))
	for _, p := range b {
		bByDay[market.Day(p.Timestamp).Unix()] = p.Close.InexactFloat64()
	}

	type row struct {
		obs    Observation
		bValue float64
	}
	var joined []row
	for _, p := range a {
		if bv, ok := bByDay[market.Day(p.Timestamp).Unix()]; ok {
			joined = append(joined, row{Observation{Timestamp: p.Timestamp, Value: p.Close.InexactFloat64()}, bv})
		}
	}
	sort.SliceStable(joined, func(i, j int) bool {
		return joined[i].obs.Timestamp.Before(joined[j].obs.Timestamp)
	})

	var out []Observation
	for i := n; i < len(joined); i++ {
		prevA, prevB := joined[i-n].obs.Value, joined[i-n].bValue
		if prevA == 0 || prevB == 0 {
			continue
		}
		retA := joined[i].obs.Value/prevA - 1
		retB := joined[i].bValue/prevB - 1
		out = append(out, Observation{Timestamp: joined[i].obs.Timestamp, Value: retA - retB})
	}
	return out
}
