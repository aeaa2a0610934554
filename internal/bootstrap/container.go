package bootstrap

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	chclient "marketpulse/internal/adapters/clickhouse"
	"marketpulse/internal/adapters/config"
	"marketpulse/internal/adapters/kafka"
	redisclient "marketpulse/internal/adapters/redis"
	"marketpulse/internal/api"
	"marketpulse/internal/domain/market"
	"marketpulse/internal/domain/sentiment"
	"marketpulse/internal/domain/signal"
	"marketpulse/internal/events"
	chrepo "marketpulse/internal/repository/clickhouse"
	"marketpulse/internal/services/analysis"
	"marketpulse/internal/workers"
	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
)

// Container holds all application dependencies in initialization order
type Container struct {
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure
	CH    *chclient.Client
	Redis *redisclient.Client

	Repos    *Repositories
	Adapters *Adapters
	Services *Services

	HTTPServer *api.Server
	Scheduler  *workers.Scheduler

	Lifecycle *Lifecycle
	WG        *sync.WaitGroup
	Context   context.Context
	Cancel    context.CancelFunc
}

// Repositories groups the data access layer
type Repositories struct {
	Posts   *chrepo.PostRepository
	Prices  *chrepo.PriceRepository
	Reports signal.ReportStore
}

// Adapters groups external integrations. Notifier is nil when Telegram is disabled.
type Adapters struct {
	Scorer        sentiment.TextScorer
	closeScorer   func()
	KafkaProducer *kafka.Producer
	Publisher     *events.SignalPublisher
	Notifier      signal.Notifier
}

// Services groups the application services
type Services struct {
	Analysis *analysis.Service
}

// NewContainer creates an empty container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())
	return &Container{
		Repos:     &Repositories{},
		Adapters:  &Adapters{},
		Services:  &Services{},
		Lifecycle: NewLifecycle(),
		WG:        &sync.WaitGroup{},
		Context:   ctx,
		Cancel:    cancel,
	}
}

// MustInit runs every initialization phase; failures are fatal
func (c *Container) MustInit() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitRepositories()
	c.MustInitAdapters()
	c.MustInitServices()
	c.MustInitApplication()
	c.MustInitBackground()
}

// Start launches the HTTP server and the scheduler
func (c *Container) Start() error {
	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		if err := c.HTTPServer.Start(); err != nil {
			c.Log.Errorw("HTTP server stopped with error", "error", err)
		}
	}()

	if err := c.Scheduler.Start(c.Context); err != nil {
		return errors.Wrap(err, "start scheduler")
	}

	c.Log.Info("MarketPulse started")
	return nil
}

// Shutdown stops every component in reverse dependency order
func (c *Container) Shutdown() {
	c.Cancel()
	c.Lifecycle.Shutdown(c)
}

// RunOnce analyzes every configured ticker a single time and writes each
// report to out as indented JSON.
func (c *Container) RunOnce(ctx context.Context, out io.Writer) error {
	filter, err := market.ParseTimeFilter(c.Config.Analysis.TimeFilter)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	var errs errors.MultiError
	for _, ticker := range c.Config.Analysis.Tickers {
		report, err := c.Services.Analysis.Analyze(ctx, analysis.Request{
			Ticker:     ticker,
			Source:     c.Config.Analysis.Source,
			Query:      c.Config.Analysis.Query,
			TimeFilter: filter,
			Limit:      c.Config.Analysis.PostLimit,
		})
		if err != nil {
			errs.Add(errors.Wrapf(err, "analyze %s", ticker))
			continue
		}
		if err := c.Repos.Reports.SaveLatest(ctx, *report); err != nil {
			c.Log.Warnw("Failed to store report", "ticker", report.Ticker, "error", err)
		}
		if err := enc.Encode(report); err != nil {
			return errors.Wrap(err, "write report")
		}
	}
	return errs.ToError()
}
