package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/internal/domain/sentiment"
	"marketpulse/internal/domain/signal"
)

func TestClassifyPrecedence(t *testing.T) {
	c := NewClassifier(0)

	tests := []struct {
		name     string
		pos, neg bool
		corr     float64
		want     signal.Action
	}{
		{"positive spike, strong correlation", true, false, 0.5, signal.ActionMomentumTrade},
		{"negative spike, strong correlation", false, true, 0.31, signal.ActionPotentialExit},
		{"both spikes resolve to first rule", true, true, 0.5, signal.ActionMomentumTrade},
		{"spike with negative correlation", true, false, -0.4, signal.ActionMixedSignal},
		{"spike with zero correlation", false, true, 0, signal.ActionMixedSignal},
		{"spike inside dead zone", true, false, 0.2, signal.ActionNone},
		{"spike at threshold", false, true, 0.3, signal.ActionNone},
		{"no spike", false, false, 0.9, signal.ActionNone},
		{"no spike negative", false, false, -0.9, signal.ActionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.pos, tt.neg, tt.corr))
		})
	}
}

func TestClassifyCustomThreshold(t *testing.T) {
	c := NewClassifier(0.1)
	assert.Equal(t, signal.ActionMomentumTrade, c.Classify(true, false, 0.2))
}

func TestFuseLeftJoin(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, time.May, d, 0, 0, 0, 0, time.UTC) }

	rows := []signal.CorrelationPoint{
		{Timestamp: day(1), Price: 500, FearGreedScore: 40, Correlation: 0.6},
		{Timestamp: day(2), Price: 505, FearGreedScore: 45, Correlation: -0.2},
		{Timestamp: day(3), Price: 510, FearGreedScore: 50, Correlation: 0.9},
	}
	tl := sentiment.Timeline{Points: []sentiment.TimelinePoint{
		{Date: day(1), Sentiment: 12, PositiveSpike: true},
		{Date: day(2), Sentiment: -7, NegativeSpike: true},
	}}
	daily := []sentiment.DailySentiment{{
		Date: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.FixedZone("EDT", -4*3600)),
		Post: sentiment.ScoredPost{RawPost: sentiment.RawPost{
			Title:      "SPY to the moon",
			ArticleURL: "https://example.com/a",
			Comments:   []sentiment.Comment{{Body: "lol", Votes: 1}, {Body: "calls", Votes: 9}},
		}},
	}}

	got := NewClassifier(0.3).Fuse(rows, tl, daily)
	require.Len(t, got, 3)

	assert.Equal(t, signal.ActionMomentumTrade, got[0].Action)
	assert.Equal(t, 12.0, got[0].Sentiment)
	assert.Equal(t, "SPY to the moon", got[0].Title)
	assert.Equal(t, "calls", got[0].TopComment)
	assert.Equal(t, 500.0, got[0].Price)

	assert.Equal(t, signal.ActionMixedSignal, got[1].Action)
	assert.Empty(t, got[1].Title)

	assert.Equal(t, signal.ActionNone, got[2].Action, "day absent from timeline has no spikes")
	assert.Zero(t, got[2].Sentiment)
	assert.Equal(t, 0.9, got[2].Correlation)
}
