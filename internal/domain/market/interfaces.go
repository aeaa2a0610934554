package market

import (
	"context"
	"time"
)

// Tickers feeding the four indicators
const (
	TickerVIX           = "^VIX"
	TickerSP500         = "^GSPC"
	TickerStocks        = "SPY"
	TickerBonds         = "TLT"
	TickerJunkBonds     = "HYG"
	TickerInvestmentGrd = "LQD"
)

// PriceFetcher returns closing prices ordered by timestamp ascending.
// An empty range is returned as an empty slice with a nil error.
type PriceFetcher interface {
	FetchPriceSeries(ctx context.Context, ticker string, start, end time.Time, interval string) ([]PricePoint, error)
}
