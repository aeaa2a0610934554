package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"marketpulse/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	ClickHouse    ClickHouseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Telegram      TelegramConfig
	Scorer        ScorerConfig
	Fusion        FusionConfig
	Analysis      AnalysisConfig
	ErrorTracking ErrorTrackingConfig
	Workers       WorkerConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"marketpulse"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type HTTPConfig struct {
	Port int `envconfig:"HTTP_PORT" default:"8080"`
}

type ClickHouseConfig struct {
	Host     string `envconfig:"CLICKHOUSE_HOST" required:"true"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"marketpulse"`
}

type RedisConfig struct {
	Host      string        `envconfig:"REDIS_HOST" required:"true"`
	Port      int           `envconfig:"REDIS_PORT" default:"6379"`
	Password  string        `envconfig:"REDIS_PASSWORD"`
	DB        int           `envconfig:"REDIS_DB" default:"0"`
	ScoreTTL  time.Duration `envconfig:"REDIS_SCORE_TTL" default:"168h"`
	ReportTTL time.Duration `envconfig:"REDIS_REPORT_TTL" default:"24h"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Brokers     []string `envconfig:"KAFKA_BROKERS" required:"true"`
	SignalTopic string   `envconfig:"KAFKA_SIGNAL_TOPIC" default:"signals.fused"`
}

type TelegramConfig struct {
	Enabled  bool    `envconfig:"TELEGRAM_ENABLED" default:"false"`
	BotToken string  `envconfig:"TELEGRAM_BOT_TOKEN"`
	ChatIDs  []int64 `envconfig:"TELEGRAM_CHAT_IDS"`
}

// ScorerConfig selects the text polarity backend
type ScorerConfig struct {
	Provider       string        `envconfig:"SCORER_PROVIDER" default:"onnx"` // onnx | openai | gemini
	ModelPath      string        `envconfig:"SCORER_MODEL_PATH" default:"models/distilbert-sst2.onnx"`
	VocabPath      string        `envconfig:"SCORER_VOCAB_PATH" default:"models/vocab.txt"`
	ORTLibrary     string        `envconfig:"ONNXRUNTIME_LIB"`
	MaxTokens      int           `envconfig:"SCORER_MAX_TOKENS" default:"512"`
	OpenAIKey      string        `envconfig:"OPENAI_API_KEY"`
	OpenAIModel    string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	GeminiKey      string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel    string        `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	RequestsPerMin float64       `envconfig:"SCORER_REQUESTS_PER_MINUTE" default:"500"`
	MaxTextChars   int           `envconfig:"SCORER_MAX_TEXT_CHARS" default:"2000"`
	Timeout        time.Duration `envconfig:"SCORER_TIMEOUT" default:"30s"`
	CacheEnabled   bool          `envconfig:"SCORER_CACHE_ENABLED" default:"true"`
}

// FusionConfig holds the tunable constants of the fusion engine
type FusionConfig struct {
	TitleWeight          float64 `envconfig:"FUSION_TITLE_WEIGHT" default:"0.3"`
	CommentsWeight       float64 `envconfig:"FUSION_COMMENTS_WEIGHT" default:"0.7"`
	Concurrency          int     `envconfig:"FUSION_CONCURRENCY" default:"0"` // 0 = 2x NumCPU
	BestEffort           bool    `envconfig:"FUSION_BEST_EFFORT" default:"false"`
	GapThresholdDays     int     `envconfig:"FUSION_GAP_THRESHOLD_DAYS" default:"5"`
	RollingWindow        int     `envconfig:"FUSION_ROLLING_WINDOW" default:"7"`
	PositiveK            float64 `envconfig:"FUSION_POSITIVE_K" default:"1.5"`
	NegativeK            float64 `envconfig:"FUSION_NEGATIVE_K" default:"1.5"`
	CorrelationWindow    int     `envconfig:"FUSION_CORRELATION_WINDOW" default:"7"`
	CorrelationThreshold float64 `envconfig:"FUSION_CORRELATION_THRESHOLD" default:"0.3"`
	TimeZone             string  `envconfig:"FUSION_TIME_ZONE" default:"America/New_York"`
}

// Limit returns the effective scoring concurrency
func (c FusionConfig) Limit() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	return 2 * runtime.NumCPU()
}

// Location resolves TimeZone, falling back to UTC
func (c FusionConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AnalysisConfig describes what the scheduled analysis worker runs
type AnalysisConfig struct {
	Tickers    []string `envconfig:"ANALYSIS_TICKERS" default:"SPY"`
	Source     string   `envconfig:"ANALYSIS_SOURCE" default:"wallstreetbets"`
	Query      string   `envconfig:"ANALYSIS_QUERY"`
	TimeFilter string   `envconfig:"ANALYSIS_TIME_FILTER" default:"month"`
	PostLimit  int      `envconfig:"ANALYSIS_POST_LIMIT" default:"100"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	Provider    string `envconfig:"ERROR_TRACKING_PROVIDER" default:"sentry"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// WorkerConfig contains intervals for background workers
type WorkerConfig struct {
	AnalysisInterval time.Duration `envconfig:"WORKER_ANALYSIS_INTERVAL" default:"1h"`
	AnalysisTimeout  time.Duration `envconfig:"WORKER_ANALYSIS_TIMEOUT" default:"10m"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express
func (c *Config) Validate() error {
	f := c.Fusion
	if f.TitleWeight < 0 || f.CommentsWeight < 0 {
		return errors.NewValidationError("FUSION_TITLE_WEIGHT", "weights must be non-negative", f.TitleWeight)
	}
	if f.RollingWindow < 1 {
		return errors.NewValidationError("FUSION_ROLLING_WINDOW", "must be at least 1", f.RollingWindow)
	}
	if f.CorrelationWindow < 2 {
		return errors.NewValidationError("FUSION_CORRELATION_WINDOW", "must be at least 2", f.CorrelationWindow)
	}
	if f.GapThresholdDays < 1 {
		return errors.NewValidationError("FUSION_GAP_THRESHOLD_DAYS", "must be at least 1", f.GapThresholdDays)
	}
	switch c.Scorer.Provider {
	case "onnx":
	case "openai":
		if c.Scorer.OpenAIKey == "" {
			return errors.NewValidationError("OPENAI_API_KEY", "required for openai scorer", "")
		}
	case "gemini":
		if c.Scorer.GeminiKey == "" {
			return errors.NewValidationError("GEMINI_API_KEY", "required for gemini scorer", "")
		}
	default:
		return errors.NewValidationError("SCORER_PROVIDER", "unknown provider", c.Scorer.Provider)
	}
	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return errors.NewValidationError("TELEGRAM_BOT_TOKEN", "required when telegram is enabled", "")
	}
	if len(c.Analysis.Tickers) == 0 {
		return errors.NewValidationError("ANALYSIS_TICKERS", "at least one ticker required", "")
	}
	return nil
}
