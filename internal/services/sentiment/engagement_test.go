package sentiment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"marketpulse/internal/domain/sentiment"
)

func TestRawInterest(t *testing.T) {
	s := NewEngagementScorer()

	tests := []struct {
		name string
		in   sentiment.Engagement
		want float64
	}{
		{
			name: "zero score and comments",
			in:   sentiment.Engagement{},
			want: 0,
		},
		{
			name: "formula",
			in: sentiment.Engagement{
				Score:            100,
				UpvoteRatio:      0.9,
				NumComments:      20,
				TopCommentScores: []int{30, 10},
			},
			want: 100*0.9 + 20 + 40/(1+math.Log(101)+math.Log(21)),
		},
		{
			name: "score of minus one is undefined",
			in:   sentiment.Engagement{Score: -1, NumComments: 3},
			want: 0,
		},
		{
			name: "negative comment count",
			in:   sentiment.Engagement{Score: 5, NumComments: -2},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.RawInterest(tt.in), 1e-9)
		})
	}
}

func TestScoreBatchNormalizesToMax(t *testing.T) {
	posts := []sentiment.RawPost{
		{ID: "a", Engagement: sentiment.Engagement{Score: 10, UpvoteRatio: 1}},
		{ID: "b", Engagement: sentiment.Engagement{Score: 20, UpvoteRatio: 1}},
		{ID: "c", Engagement: sentiment.Engagement{Score: -5}},
	}

	out := NewEngagementScorer().ScoreBatch(posts)

	assert.InDelta(t, 50, out[0].InterestScore, 1e-9)
	assert.InDelta(t, 100, out[1].InterestScore, 1e-9)
	assert.Zero(t, out[2].InterestScore)
	assert.Zero(t, posts[1].InterestScore, "input must not be mutated")
}

func TestScoreBatchAllZero(t *testing.T) {
	out := NewEngagementScorer().ScoreBatch([]sentiment.RawPost{{}, {}})
	for _, p := range out {
		assert.Zero(t, p.InterestScore)
	}
}
