package redis

import (
	"context"
	"strings"
	"time"

	"marketpulse/internal/domain/signal"
	"marketpulse/pkg/errors"
)

// Compile-time check
var _ signal.ReportStore = (*ReportRepository)(nil)

const reportKeyPrefix = "report:latest:"

// jsonStore is implemented by adapters/redis.Client
type jsonStore interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
}

// ReportRepository keeps the latest report of every ticker in Redis
type ReportRepository struct {
	store jsonStore
	ttl   time.Duration
}

// NewReportRepository creates a report repository; ttl 0 keeps reports forever
func NewReportRepository(store jsonStore, ttl time.Duration) *ReportRepository {
	return &ReportRepository{store: store, ttl: ttl}
}

// SaveLatest overwrites the stored report for report.Ticker
func (r *ReportRepository) SaveLatest(ctx context.Context, report signal.Report) error {
	if report.Ticker == "" {
		return errors.Wrap(errors.ErrInvalidInput, "report ticker is required")
	}
	if err := r.store.Set(ctx, reportKey(report.Ticker), report, r.ttl); err != nil {
		return errors.Wrapf(err, "failed to save report: ticker=%s", report.Ticker)
	}
	return nil
}

// GetLatest returns the stored report for ticker or errors.ErrNotFound
func (r *ReportRepository) GetLatest(ctx context.Context, ticker string) (*signal.Report, error) {
	var report signal.Report
	if err := r.store.Get(ctx, reportKey(ticker), &report); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.Wrapf(errors.ErrNotFound, "no report for ticker=%s", ticker)
		}
		return nil, errors.Wrapf(err, "failed to load report: ticker=%s", ticker)
	}
	return &report, nil
}

func reportKey(ticker string) string {
	return reportKeyPrefix + strings.ToUpper(ticker)
}
