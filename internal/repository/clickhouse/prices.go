package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"marketpulse/internal/domain/market"
	"marketpulse/internal/metrics"
	"marketpulse/pkg/errors"
)

// Compile-time check
var _ market.PriceFetcher = (*PriceRepository)(nil)

// Bar intervals stored in price_bars
const (
	IntervalDay  = "1d"
	IntervalHour = "1h"
)

// PriceRepository reads closing price bars from ClickHouse
type PriceRepository struct {
	conn driver.Conn
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(conn driver.Conn) *PriceRepository {
	return &PriceRepository{conn: conn}
}

// FetchPriceSeries returns bars of ticker in [start, end] ordered by timestamp
func (r *PriceRepository) FetchPriceSeries(ctx context.Context, ticker string, start, end time.Time, interval string) ([]market.PricePoint, error) {
	if ticker == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "ticker is required")
	}
	if interval != IntervalDay && interval != IntervalHour {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unsupported interval %q", interval)
	}

	var points []market.PricePoint
	query := `
		SELECT timestamp, close
		FROM price_bars FINAL
		WHERE ticker = $1 AND interval = $2 AND timestamp >= $3 AND timestamp <= $4
		ORDER BY timestamp ASC
	`

	began := time.Now()
	err := r.conn.Select(ctx, &points, query, ticker, interval, start, end)
	metrics.RecordDBQuery("clickhouse", "select_prices", time.Since(began), err)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch prices for %s", ticker)
	}
	if points == nil {
		points = []market.PricePoint{}
	}
	return points, nil
}

// LatestPriceTime returns the timestamp of the newest daily bar of ticker
func (r *PriceRepository) LatestPriceTime(ctx context.Context, ticker string) (time.Time, error) {
	var latest time.Time
	row := r.conn.QueryRow(ctx, `SELECT max(timestamp) FROM price_bars WHERE ticker = $1 AND interval = $2`, ticker, IntervalDay)
	if err := row.Scan(&latest); err != nil {
		return time.Time{}, errors.Wrapf(err, "failed to read latest bar for %s", ticker)
	}
	if latest.IsZero() || latest.Unix() == 0 {
		return time.Time{}, errors.Wrapf(errors.ErrNotFound, "no bars for %s", ticker)
	}
	return latest, nil
}

// Freshness joins both repositories for the freshness collector
type Freshness struct {
	*PostRepository
	*PriceRepository
}

// InsertPrices writes bars of one ticker and interval in a single batch
func (r *PriceRepository) InsertPrices(ctx context.Context, ticker, interval string, points []market.PricePoint) error {
	if ticker == "" {
		return errors.Wrap(errors.ErrInvalidInput, "ticker is required")
	}
	if len(points) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, `INSERT INTO price_bars (ticker, interval, timestamp, close)`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare prices batch")
	}
	defer batch.Close()

	for _, p := range points {
		if err := batch.Append(ticker, interval, p.Timestamp.UTC(), p.Close); err != nil {
			return errors.Wrapf(err, "failed to append %s bar", ticker)
		}
	}

	start := time.Now()
	err = batch.Send()
	metrics.RecordDBQuery("clickhouse", "insert_prices", time.Since(start), err)
	if err != nil {
		return errors.Wrapf(err, "failed to send %s prices batch", ticker)
	}
	return nil
}
