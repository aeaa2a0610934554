package analysis

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"marketpulse/internal/domain/market"
	"marketpulse/internal/domain/sentiment"
	"marketpulse/internal/domain/signal"
	"marketpulse/internal/metrics"
	"marketpulse/internal/services/feargreed"
	sentimentsvc "marketpulse/internal/services/sentiment"
	signalsvc "marketpulse/internal/services/signal"
	"marketpulse/internal/services/timeline"
	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
)

// dailyInterval is used for every indicator and correlation fetch; the
// fear/greed index is defined on daily closes only.
const dailyInterval = "1d"

// Capabilities are the external collaborators of a Service
type Capabilities struct {
	Posts  sentiment.PostFetcher
	Prices market.PriceFetcher
	Scorer sentiment.TextScorer

	// Tracker receives breadcrumbs of each run; nil disables them
	Tracker errors.Tracker
}

func (c Capabilities) validate() error {
	if c.Posts == nil || c.Prices == nil || c.Scorer == nil {
		return errors.Wrap(errors.ErrInvalidInput, "posts, prices and scorer capabilities are required")
	}
	return nil
}

// Config holds the fusion constants
type Config struct {
	TitleWeight          float64
	CommentsWeight       float64
	Concurrency          int
	BestEffort           bool
	GapThresholdDays     int
	RollingWindow        int
	PositiveK            float64
	NegativeK            float64
	CorrelationWindow    int
	CorrelationThreshold float64
	Location             *time.Location
}

// Request describes one fused analysis
type Request struct {
	Ticker     string
	Source     string
	Query      string
	TimeFilter market.TimeFilter
	Limit      int
}

// SentimentResult is a timeline together with the canonical posts it was built from
type SentimentResult struct {
	Daily    []sentiment.DailySentiment
	Timeline sentiment.Timeline
}

// Service wires fetchers, scoring and the numeric transforms into reports
type Service struct {
	caps       Capabilities
	cfg        Config
	pipeline   *sentimentsvc.Pipeline
	timeline   *timeline.Builder
	classifier *signalsvc.Classifier
	now        func() time.Time
	log        *logger.Logger
}

// NewService creates an analysis service
func NewService(caps Capabilities, cfg Config) (*Service, error) {
	if err := caps.validate(); err != nil {
		return nil, err
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.CorrelationWindow < 2 {
		cfg.CorrelationWindow = signalsvc.DefaultCorrelationWindow
	}

	aggregator := sentimentsvc.NewAggregator(caps.Scorer, cfg.TitleWeight, cfg.CommentsWeight)

	return &Service{
		caps: caps,
		cfg:  cfg,
		pipeline: sentimentsvc.NewPipeline(aggregator, sentimentsvc.PipelineConfig{
			Concurrency: cfg.Concurrency,
			BestEffort:  cfg.BestEffort,
			Location:    cfg.Location,
		}),
		timeline: timeline.NewBuilder(
			timeline.GapFillConfig{GapThresholdDays: cfg.GapThresholdDays, RollingWindow: cfg.RollingWindow},
			timeline.SpikeConfig{PositiveK: cfg.PositiveK, NegativeK: cfg.NegativeK},
		),
		classifier: signalsvc.NewClassifier(cfg.CorrelationThreshold),
		now:        time.Now,
		log:        logger.Get().Component("analysis_service"),
	}, nil
}

// Window resolves a time filter against the current time in the configured location
func (s *Service) Window(filter market.TimeFilter) (market.Window, error) {
	return filter.Window(s.now().In(s.cfg.Location))
}

// Indicator fetches the inputs of kind with enough history for warm-up and
// normalizes them over the window.
func (s *Service) Indicator(ctx context.Context, kind market.IndicatorKind, window market.Window) (market.IndicatorSeries, error) {
	spec, ok := feargreed.Specs[kind]
	if !ok {
		return market.IndicatorSeries{}, errors.NewValidationError("indicator", "unknown indicator", kind)
	}

	tickers := feargreed.Inputs[kind]
	fetchStart := spec.FetchStart(window.Start)
	prices := make([][]market.PricePoint, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	for i, ticker := range tickers {
		g.Go(func() error {
			series, err := s.fetchPrices(gctx, ticker, fetchStart, window.End)
			if err != nil {
				return err
			}
			prices[i] = series
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return market.IndicatorSeries{}, errors.Wrapf(err, "indicator %s", kind)
	}

	raw, err := feargreed.RawSeries(kind, prices...)
	if err != nil {
		return market.IndicatorSeries{}, err
	}
	series, err := feargreed.Normalize(spec, raw, window.Start)
	if err != nil {
		return market.IndicatorSeries{}, errors.Wrapf(err, "indicator %s", kind)
	}
	return series, nil
}

// Composite computes all four indicators concurrently and averages them
// over the days where every indicator has a value.
func (s *Service) Composite(ctx context.Context, window market.Window) (market.CompositeIndex, error) {
	series := make([]market.IndicatorSeries, len(market.AllIndicators))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range market.AllIndicators {
		g.Go(func() error {
			ind, err := s.Indicator(gctx, kind, window)
			if err != nil {
				return err
			}
			series[i] = ind
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return market.CompositeIndex{}, err
	}

	return feargreed.Compose(series...)
}

// SentimentTimeline fetches posts, scores them and returns the gap-filled
// timeline starting at q.Start.
func (s *Service) SentimentTimeline(ctx context.Context, q sentiment.PostQuery) (SentimentResult, error) {
	posts, err := s.caps.Posts.FetchPosts(ctx, q)
	if err != nil {
		return SentimentResult{}, errors.Wrapf(err, "fetch posts from %s", q.Source)
	}
	if len(posts) == 0 {
		return SentimentResult{}, errors.Wrapf(errors.ErrUpstreamDataUnavailable, "no posts in %s between %s and %s",
			q.Source, q.Start.Format(time.DateOnly), q.End.Format(time.DateOnly))
	}
	s.breadcrumb(ctx, "posts fetched", map[string]interface{}{"source": q.Source, "count": len(posts)})

	daily, err := s.pipeline.Run(ctx, posts)
	if err != nil {
		return SentimentResult{}, err
	}
	if len(daily) == 0 {
		return SentimentResult{}, errors.Wrap(errors.ErrUpstreamDataUnavailable, "every post failed scoring")
	}

	tl, err := s.timeline.Build(timeline.FromDaily(daily), q.Start.In(s.cfg.Location))
	if err != nil {
		return SentimentResult{}, err
	}
	return SentimentResult{Daily: daily, Timeline: tl}, nil
}

// Analyze produces the fused report for req. Market and sentiment branches
// run concurrently; the first failure cancels the other.
func (s *Service) Analyze(ctx context.Context, req Request) (*signal.Report, error) {
	started := time.Now()
	req.Ticker = strings.ToUpper(strings.TrimSpace(req.Ticker))
	report, err := s.analyze(ctx, req, started)
	metrics.RecordAnalysis(req.Ticker, time.Since(started), err)
	return report, err
}

func (s *Service) analyze(ctx context.Context, req Request, started time.Time) (*signal.Report, error) {
	if req.Ticker == "" {
		return nil, errors.NewValidationError("ticker", "ticker is required", req.Ticker)
	}
	if req.Source == "" {
		return nil, errors.NewValidationError("source", "post source is required", req.Source)
	}
	if req.TimeFilter == "" {
		req.TimeFilter = market.FilterMonth
	}

	window, err := s.Window(req.TimeFilter)
	if err != nil {
		return nil, err
	}

	ctx = errors.WithTicker(ctx, req.Ticker)
	log := s.log.Ctx(ctx)
	log.Infow("Starting analysis",
		"source", req.Source,
		"time_filter", req.TimeFilter,
		"start", window.Start,
		"end", window.End,
	)

	var (
		mu      sync.Mutex
		index   market.CompositeIndex
		prices  []market.PricePoint
		sentRes SentimentResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ci, err := s.Composite(gctx, window)
		if err != nil {
			return errors.Wrap(err, "fear/greed index")
		}
		mu.Lock()
		index = ci
		mu.Unlock()
		s.breadcrumb(gctx, "composite computed", map[string]interface{}{"days": len(ci.Points)})
		return nil
	})
	g.Go(func() error {
		p, err := s.fetchPrices(gctx, req.Ticker, window.Start, window.End)
		if err != nil {
			return err
		}
		mu.Lock()
		prices = p
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		res, err := s.SentimentTimeline(gctx, sentiment.PostQuery{
			Source: req.Source,
			Query:  req.Query,
			Start:  window.Start,
			End:    window.End,
			Limit:  req.Limit,
		})
		if err != nil {
			return errors.Wrap(err, "sentiment timeline")
		}
		mu.Lock()
		sentRes = res
		mu.Unlock()
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Warnw("Analysis failed", "error", err)
		return nil, err
	}

	rows := signalsvc.Correlate(prices, index, s.cfg.CorrelationWindow)
	if len(rows) == 0 {
		return nil, errors.Wrapf(errors.ErrUpstreamDataUnavailable, "%s prices share no day with the fear/greed index", req.Ticker)
	}
	records := s.classifier.Fuse(rows, sentRes.Timeline, sentRes.Daily)

	report := &signal.Report{
		ID:                uuid.New(),
		Ticker:            req.Ticker,
		GeneratedAt:       s.now().UTC(),
		Latency:           time.Since(started),
		PositiveThreshold: sentRes.Timeline.PositiveThreshold,
		NegativeThreshold: sentRes.Timeline.NegativeThreshold,
		Records:           records,
	}

	actionable := report.Actionable()
	for _, rec := range actionable {
		metrics.RecordSignal(req.Ticker, string(rec.Action))
	}

	log.Infow("Analysis complete",
		"report_id", report.ID,
		"days", len(records),
		"actionable", len(actionable),
		"latency_ms", report.Latency.Milliseconds(),
	)
	return report, nil
}

// fetchPrices returns daily prices of ticker or ErrUpstreamDataUnavailable when there are none
func (s *Service) fetchPrices(ctx context.Context, ticker string, start, end time.Time) ([]market.PricePoint, error) {
	prices, err := s.caps.Prices.FetchPriceSeries(ctx, ticker, start, end, dailyInterval)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s prices", ticker)
	}
	if len(prices) == 0 {
		return nil, errors.Wrapf(errors.ErrUpstreamDataUnavailable, "no %s prices between %s and %s",
			ticker, start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	return prices, nil
}

func (s *Service) breadcrumb(ctx context.Context, message string, data map[string]interface{}) {
	if s.caps.Tracker == nil {
		return
	}
	s.caps.Tracker.AddBreadcrumb(ctx, message, "analysis", errors.LevelInfo, data)
}
