package analysis

import (
	"context"
	"sync"
	"time"

	"marketpulse/internal/domain/market"
	"marketpulse/internal/domain/signal"
	"marketpulse/internal/metrics"
	analysissvc "marketpulse/internal/services/analysis"
	"marketpulse/internal/workers"
	"marketpulse/pkg/errors"
)

// analyzer is implemented by analysis.Service
type analyzer interface {
	Analyze(ctx context.Context, req analysissvc.Request) (*signal.Report, error)
}

// locker guards a ticker against concurrent runs from several replicas
type locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// Config describes the analyses a Worker runs each interval
type Config struct {
	Tickers    []string
	Source     string
	Query      string
	TimeFilter market.TimeFilter
	PostLimit  int
	Timeout    time.Duration
}

// Deps are the sinks of a finished report. Publisher, Notifier and Locker may be nil.
type Deps struct {
	Analyzer  analyzer
	Store     signal.ReportStore
	Publisher signal.Publisher
	Notifier  signal.Notifier
	Locker    locker
}

// Worker analyzes every configured ticker, stores the report and fans out
// actionable signals.
type Worker struct {
	*workers.BaseWorker
	cfg  Config
	deps Deps

	mu       sync.Mutex
	notified map[string]time.Time // ticker -> day of the last notified record
}

// NewWorker creates the scheduled analysis worker
func NewWorker(cfg Config, deps Deps, interval time.Duration, enabled bool) *Worker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	if cfg.TimeFilter == "" {
		cfg.TimeFilter = market.FilterMonth
	}
	return &Worker{
		BaseWorker: workers.NewBaseWorker("analysis", interval, enabled),
		cfg:        cfg,
		deps:       deps,
		notified:   make(map[string]time.Time),
	}
}

// Run analyzes each ticker in turn. A failing ticker does not stop the others.
func (w *Worker) Run(ctx context.Context) error {
	var errs errors.MultiError
	for _, ticker := range w.cfg.Tickers {
		if ctx.Err() != nil {
			errs.Add(ctx.Err())
			break
		}
		if err := w.runTicker(ctx, ticker); err != nil {
			errs.Add(errors.Wrapf(err, "ticker %s", ticker))
		}
	}
	return errs.ToError()
}

func (w *Worker) runTicker(ctx context.Context, ticker string) error {
	ctx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	if w.deps.Locker != nil {
		key := "analysis:" + ticker
		ok, err := w.deps.Locker.AcquireLock(ctx, key, w.cfg.Timeout)
		if err != nil {
			return errors.Wrap(err, "acquire lock")
		}
		if !ok {
			w.Log().Infow("Analysis already running elsewhere", "ticker", ticker)
			return nil
		}
		defer func() {
			if err := w.deps.Locker.ReleaseLock(context.WithoutCancel(ctx), key); err != nil {
				w.Log().Warnw("Failed to release lock", "ticker", ticker, "error", err)
			}
		}()
	}

	report, err := w.deps.Analyzer.Analyze(ctx, analysissvc.Request{
		Ticker:     ticker,
		Source:     w.cfg.Source,
		Query:      w.cfg.Query,
		TimeFilter: w.cfg.TimeFilter,
		Limit:      w.cfg.PostLimit,
	})
	if err != nil {
		return err
	}

	if latest, ok := report.Latest(); ok {
		metrics.CompositeScore.Set(latest.FearGreedScore)
	}

	if err := w.deps.Store.SaveLatest(ctx, *report); err != nil {
		return errors.Wrap(err, "save report")
	}

	// sinks are best effort once the report is stored
	if w.deps.Publisher != nil {
		if err := w.deps.Publisher.PublishSignals(ctx, *report); err != nil {
			w.Log().Errorw("Failed to publish signals", "ticker", ticker, "error", err)
		}
	}
	w.notifyLatest(ctx, report)

	w.Log().Infow("Analysis stored",
		"ticker", report.Ticker,
		"report_id", report.ID,
		"actionable", len(report.Actionable()),
		"latency", report.Latency,
	)
	return nil
}

// notifyLatest alerts on the most recent record when it is actionable and
// has not been sent before.
func (w *Worker) notifyLatest(ctx context.Context, report *signal.Report) {
	if w.deps.Notifier == nil {
		return
	}
	latest, ok := report.Latest()
	if !ok || !latest.Action.Actionable() {
		return
	}

	w.mu.Lock()
	last, seen := w.notified[report.Ticker]
	w.mu.Unlock()
	if seen && !latest.Timestamp.After(last) {
		return
	}

	if err := w.deps.Notifier.NotifySignal(ctx, report.Ticker, latest); err != nil {
		w.Log().Errorw("Failed to send notification", "ticker", report.Ticker, "error", err)
		return
	}

	w.mu.Lock()
	w.notified[report.Ticker] = latest.Timestamp
	w.mu.Unlock()
}
