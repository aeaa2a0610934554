package bootstrap

import (
	"context"
	"os"
	"strings"
	"time"

	"marketpulse/internal/adapters/ai"
	chclient "marketpulse/internal/adapters/clickhouse"
	"marketpulse/internal/adapters/config"
	errnoop "marketpulse/internal/adapters/errors/noop"
	"marketpulse/internal/adapters/errors/sentry"
	"marketpulse/internal/adapters/kafka"
	redisclient "marketpulse/internal/adapters/redis"
	"marketpulse/internal/adapters/telegram"
	"marketpulse/internal/api"
	"marketpulse/internal/api/health"
	"marketpulse/internal/domain/market"
	"marketpulse/internal/domain/sentiment"
	"marketpulse/internal/events"
	"marketpulse/internal/metrics"
	"marketpulse/internal/ml"
	chrepo "marketpulse/internal/repository/clickhouse"
	redisrepo "marketpulse/internal/repository/redis"
	"marketpulse/internal/services/analysis"
	sentimentsvc "marketpulse/internal/services/sentiment"
	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
	"marketpulse/pkg/retry"
)

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration and initializes logging and error tracking
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	c.Log = logger.Get()
	c.Log.Infof("Starting %s %s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Env)

	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)

	metrics.Init()
}

// ========================================
// Phase 2: Infrastructure
// ========================================

// MustInitInfrastructure connects ClickHouse and Redis, retrying while they come up
func (c *Container) MustInitInfrastructure() {
	backoff := retry.Backoff{MinBackoff: time.Second, MaxBackoff: 10 * time.Second, MaxAttempts: 6}

	c.Log.Info("Connecting to ClickHouse...")
	err := retry.Do(c.Context, "clickhouse connect", backoff, func(ctx context.Context) error {
		client, err := chclient.NewClient(ctx, c.Config.ClickHouse)
		if err != nil {
			return err
		}
		c.CH = client
		return nil
	})
	if err != nil {
		c.Log.Fatalf("failed to connect clickhouse: %v", err)
	}

	c.Log.Info("Connecting to Redis...")
	err = retry.Do(c.Context, "redis connect", backoff, func(ctx context.Context) error {
		client, err := redisclient.NewClient(ctx, c.Config.Redis)
		if err != nil {
			return err
		}
		c.Redis = client
		return nil
	})
	if err != nil {
		c.Log.Fatalf("failed to connect redis: %v", err)
	}

	c.Log.Info("Data stores connected")
}

// ========================================
// Phase 3: Repositories
// ========================================

func (c *Container) MustInitRepositories() {
	if err := chrepo.Migrate(c.Context, c.CH.Conn()); err != nil {
		c.Log.Fatalf("failed to migrate clickhouse: %v", err)
	}

	c.Repos.Posts = chrepo.NewPostRepository(c.CH.Conn())
	c.Repos.Prices = chrepo.NewPriceRepository(c.CH.Conn())
	c.Repos.Reports = redisrepo.NewReportRepository(c.Redis, c.Config.Redis.ReportTTL)

	metrics.RegisterCollector(metrics.NewFreshnessCollector(
		chrepo.Freshness{PostRepository: c.Repos.Posts, PriceRepository: c.Repos.Prices},
		freshnessTickers(c.Config.Analysis.Tickers),
	))
}

// ========================================
// Phase 4: External Adapters
// ========================================

// MustInitAdapters builds the polarity scorer, Kafka publisher and Telegram notifier
func (c *Container) MustInitAdapters() {
	scorer, closeScorer, err := provideScorer(c.Context, c.Config.Scorer)
	if err != nil {
		c.Log.Fatalf("failed to create %s scorer: %v", c.Config.Scorer.Provider, err)
	}
	c.Adapters.closeScorer = closeScorer
	c.Adapters.Scorer = decorateScorer(scorer, c.Config.Scorer, c.Config.Redis, c.Redis)
	c.Log.Infow("Polarity scorer ready", "provider", c.Config.Scorer.Provider, "cache", c.Config.Scorer.CacheEnabled)

	c.Adapters.KafkaProducer = kafka.NewProducer(kafka.ProducerConfig{Brokers: c.Config.Kafka.Brokers})
	c.Adapters.Publisher = events.NewSignalPublisher(c.Adapters.KafkaProducer, c.Config.Kafka.SignalTopic, c.Config.App.Name)

	if c.Config.Telegram.Enabled {
		bot, err := telegram.NewBot(telegram.Config{Token: c.Config.Telegram.BotToken})
		if err != nil {
			c.Log.Fatalf("failed to create telegram bot: %v", err)
		}
		c.Adapters.Notifier = telegram.NewSignalNotifier(bot, c.Config.Telegram.ChatIDs)
	}
}

// ========================================
// Phase 5: Services
// ========================================

func (c *Container) MustInitServices() {
	svc, err := analysis.NewService(analysis.Capabilities{
		Posts:   c.Repos.Posts,
		Prices:  c.Repos.Prices,
		Scorer:  c.Adapters.Scorer,
		Tracker: c.ErrorTracker,
	}, analysisConfig(c.Config.Fusion))
	if err != nil {
		c.Log.Fatalf("failed to create analysis service: %v", err)
	}
	c.Services.Analysis = svc
}

// ========================================
// Phase 6: Application (HTTP)
// ========================================

func (c *Container) MustInitApplication() {
	healthHandler := health.New(map[string]health.Checker{
		"clickhouse": c.CH,
		"redis":      c.Redis,
	}, c.Config.App.Name, c.Config.App.Version)

	c.HTTPServer = api.NewServer(api.ServerConfig{
		Port:        c.Config.HTTP.Port,
		ServiceName: c.Config.App.Name,
		Version:     c.Config.App.Version,
	}, healthHandler, c.Repos.Reports)
}

// ========================================
// Providers
// ========================================

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment, cfg.App.Version)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// provideScorer builds the configured polarity backend and its release func
func provideScorer(ctx context.Context, cfg config.ScorerConfig) (sentiment.TextScorer, func(), error) {
	opts := ai.Options{
		RequestsPerMin: cfg.RequestsPerMin,
		MaxTextChars:   cfg.MaxTextChars,
	}

	switch strings.ToLower(cfg.Provider) {
	case "onnx":
		if _, err := os.Stat(cfg.ModelPath); err != nil {
			return nil, nil, errors.Wrapf(errors.ErrNotFound, "model file %s", cfg.ModelPath)
		}
		s, err := ml.NewPolarityScorer(ml.PolarityConfig{
			ModelPath:   cfg.ModelPath,
			VocabPath:   cfg.VocabPath,
			LibraryPath: cfg.ORTLibrary,
			MaxTokens:   cfg.MaxTokens,
			MaxChars:    cfg.MaxTextChars,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			s.Close()
			_ = ml.DestroyEnvironment()
		}, nil
	case "openai":
		opts.APIKey, opts.Model = cfg.OpenAIKey, cfg.OpenAIModel
		s, err := ai.NewOpenAIScorer(opts)
		return s, func() {}, err
	case "gemini":
		opts.APIKey, opts.Model = cfg.GeminiKey, cfg.GeminiModel
		s, err := ai.NewGeminiScorer(ctx, opts)
		return s, func() {}, err
	}
	return nil, nil, errors.NewValidationError("SCORER_PROVIDER", "unknown provider", cfg.Provider)
}

// decorateScorer adds the timeout and metrics wrapper, then the Redis cache
// when enabled, so cache hits do not count as scorer calls.
func decorateScorer(s sentiment.TextScorer, cfg config.ScorerConfig, rc config.RedisConfig, cache sentimentsvc.Cache) sentiment.TextScorer {
	provider := strings.ToLower(cfg.Provider)
	scorer := sentiment.TextScorer(sentimentsvc.NewInstrumentedScorer(s, provider, cfg.Timeout))
	if cfg.CacheEnabled && cache != nil {
		scorer = sentimentsvc.NewCachedScorer(scorer, cache, provider, rc.ScoreTTL)
	}
	return scorer
}

func analysisConfig(f config.FusionConfig) analysis.Config {
	return analysis.Config{
		TitleWeight:          f.TitleWeight,
		CommentsWeight:       f.CommentsWeight,
		Concurrency:          f.Limit(),
		BestEffort:           f.BestEffort,
		GapThresholdDays:     f.GapThresholdDays,
		RollingWindow:        f.RollingWindow,
		PositiveK:            f.PositiveK,
		NegativeK:            f.NegativeK,
		CorrelationWindow:    f.CorrelationWindow,
		CorrelationThreshold: f.CorrelationThreshold,
		Location:             f.Location(),
	}
}

// freshnessTickers lists the indicator inputs plus the analysed tickers, without duplicates
func freshnessTickers(analysed []string) []string {
	all := []string{
		market.TickerVIX, market.TickerSP500, market.TickerStocks,
		market.TickerBonds, market.TickerJunkBonds, market.TickerInvestmentGrd,
	}
	seen := make(map[string]bool, len(all)+len(analysed))
	out := make([]string, 0, len(all)+len(analysed))
	for _, t := range append(all, analysed...) {
		t = strings.ToUpper(t)
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
