package config

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/pkg/errors"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CLICKHOUSE_HOST", "localhost")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("KAFKA_BROKERS", "localhost:9092,localhost:9093")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost:9092", "localhost:9093"}, cfg.Kafka.Brokers)
	assert.Equal(t, "signals.fused", cfg.Kafka.SignalTopic)
	assert.Equal(t, 0.3, cfg.Fusion.TitleWeight)
	assert.Equal(t, 0.7, cfg.Fusion.CommentsWeight)
	assert.Equal(t, 5, cfg.Fusion.GapThresholdDays)
	assert.Equal(t, 7, cfg.Fusion.RollingWindow)
	assert.Equal(t, 1.5, cfg.Fusion.PositiveK)
	assert.Equal(t, 0.3, cfg.Fusion.CorrelationThreshold)
	assert.Equal(t, 2*runtime.NumCPU(), cfg.Fusion.Limit())
	assert.Equal(t, "onnx", cfg.Scorer.Provider)
	assert.Equal(t, time.Hour, cfg.Workers.AnalysisInterval)
	assert.Equal(t, []string{"SPY"}, cfg.Analysis.Tickers)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Scorer: ScorerConfig{Provider: "onnx"},
			Fusion: FusionConfig{
				TitleWeight:       0.3,
				CommentsWeight:    0.7,
				GapThresholdDays:  5,
				RollingWindow:     7,
				CorrelationWindow: 7,
			},
			Analysis: AnalysisConfig{Tickers: []string{"SPY"}},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"valid", func(*Config) {}, ""},
		{"negative weight", func(c *Config) { c.Fusion.TitleWeight = -1 }, "FUSION_TITLE_WEIGHT"},
		{"zero rolling window", func(c *Config) { c.Fusion.RollingWindow = 0 }, "FUSION_ROLLING_WINDOW"},
		{"correlation window of one", func(c *Config) { c.Fusion.CorrelationWindow = 1 }, "FUSION_CORRELATION_WINDOW"},
		{"openai without key", func(c *Config) { c.Scorer.Provider = "openai" }, "OPENAI_API_KEY"},
		{"gemini without key", func(c *Config) { c.Scorer.Provider = "gemini" }, "GEMINI_API_KEY"},
		{"unknown provider", func(c *Config) { c.Scorer.Provider = "bert" }, "SCORER_PROVIDER"},
		{"telegram without token", func(c *Config) { c.Telegram.Enabled = true }, "TELEGRAM_BOT_TOKEN"},
		{"no tickers", func(c *Config) { c.Analysis.Tickers = nil }, "ANALYSIS_TICKERS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *errors.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.True(t, errors.Is(err, errors.ErrInvalidInput))
		})
	}
}

func TestFusionLocationFallback(t *testing.T) {
	assert.Equal(t, time.UTC, FusionConfig{TimeZone: "Nowhere/Invalid"}.Location())
}
