package bootstrap

import (
	"marketpulse/internal/domain/market"
	"marketpulse/internal/workers"
	analysisworker "marketpulse/internal/workers/analysis"
)

// ========================================
// Phase 7: Background workers
// ========================================

func (c *Container) MustInitBackground() {
	filter, err := market.ParseTimeFilter(c.Config.Analysis.TimeFilter)
	if err != nil {
		c.Log.Fatalf("invalid analysis time filter: %v", err)
	}

	deps := analysisworker.Deps{
		Analyzer:  c.Services.Analysis,
		Store:     c.Repos.Reports,
		Publisher: c.Adapters.Publisher,
		Locker:    c.Redis,
	}
	if c.Adapters.Notifier != nil {
		deps.Notifier = c.Adapters.Notifier
	}

	c.Scheduler = workers.NewScheduler(c.Config.Workers.AnalysisTimeout)
	c.Scheduler.RegisterWorker(analysisworker.NewWorker(analysisworker.Config{
		Tickers:    c.Config.Analysis.Tickers,
		Source:     c.Config.Analysis.Source,
		Query:      c.Config.Analysis.Query,
		TimeFilter: filter,
		PostLimit:  c.Config.Analysis.PostLimit,
		Timeout:    c.Config.Workers.AnalysisTimeout,
	}, deps, c.Config.Workers.AnalysisInterval, true))
}
