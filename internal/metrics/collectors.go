package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"marketpulse/pkg/logger"
)

// FreshnessSource reports how current the upstream stores are
type FreshnessSource interface {
	CountPostsSince(ctx context.Context, since time.Time) (uint64, error)
	LatestPriceTime(ctx context.Context, ticker string) (time.Time, error)
}

// FreshnessCollector exposes upstream data freshness at scrape time
type FreshnessCollector struct {
	log     *logger.Logger
	source  FreshnessSource
	tickers []string
	now     func() time.Time

	postsLastDay *prometheus.Desc
	priceAge     *prometheus.Desc
}

// NewFreshnessCollector creates a collector for the given price tickers
func NewFreshnessCollector(source FreshnessSource, tickers []string) *FreshnessCollector {
	return &FreshnessCollector{
		log:     logger.Get().Component("freshness_collector"),
		source:  source,
		tickers: tickers,
		now:     time.Now,

		postsLastDay: prometheus.NewDesc(
			"marketpulse_posts_ingested_24h",
			"Posts available in the store for the last 24 hours",
			nil, nil,
		),
		priceAge: prometheus.NewDesc(
			"marketpulse_price_age_seconds",
			"Age of the newest stored price bar",
			[]string{"ticker"}, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *FreshnessCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.postsLastDay
	ch <- c.priceAge
}

// Collect implements prometheus.Collector
func (c *FreshnessCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	now := c.now()
	count, err := c.source.CountPostsSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		c.log.Warnw("Failed to collect post count", "error", err)
	} else {
		ch <- prometheus.MustNewConstMetric(c.postsLastDay, prometheus.GaugeValue, float64(count))
	}

	for _, ticker := range c.tickers {
		ts, err := c.source.LatestPriceTime(ctx, ticker)
		if err != nil {
			c.log.Warnw("Failed to collect price freshness", "ticker", ticker, "error", err)
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.priceAge, prometheus.GaugeValue, now.Sub(ts).Seconds(), ticker)
	}
}

// RegisterCollector registers an additional collector
func RegisterCollector(collector prometheus.Collector) {
	prometheus.MustRegister(collector)
}
