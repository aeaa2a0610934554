package sentiment

import (
	"math"

	"marketpulse/internal/domain/sentiment"
)

// EngagementScorer turns post metadata into a [0,100] interest weight
// relative to the most engaging post of the batch.
type EngagementScorer struct{}

// NewEngagementScorer creates an engagement scorer
func NewEngagementScorer() *EngagementScorer {
	return &EngagementScorer{}
}

// RawInterest computes (score*ratio) + comments + quality, where
// quality = sum(top comment scores) / (1 + ln(score+1) + ln(comments+1)).
// Inputs that make the logarithms or the result undefined yield 0.
func (s *EngagementScorer) RawInterest(e sentiment.Engagement) float64 {
	if e.Score <= -1 || e.NumComments < 0 {
		return 0
	}

	top := 0
	for _, v := range e.TopCommentScores {
		top += v
	}

	denom := 1 + math.Log(float64(e.Score)+1) + math.Log(float64(e.NumComments)+1)
	if denom == 0 || math.IsNaN(denom) || math.IsInf(denom, 0) {
		return 0
	}
	quality := float64(top) / denom

	raw := float64(e.Score)*e.UpvoteRatio + float64(e.NumComments) + quality
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0
	}
	return raw
}

// ScoreBatch returns copies of posts with InterestScore set to
// raw / max(raw) * 100, clamped to [0,100]. A bad post scores 0
// without affecting the rest of the batch.
func (s *EngagementScorer) ScoreBatch(posts []sentiment.RawPost) []sentiment.RawPost {
	raws := make([]float64, len(posts))
	maxRaw := 0.0
	for i, p := range posts {
		raws[i] = s.RawInterest(p.Engagement)
		if raws[i] > maxRaw {
			maxRaw = raws[i]
		}
	}

	out := make([]sentiment.RawPost, len(posts))
	for i, p := range posts {
		p.InterestScore = 0
		if maxRaw > 0 {
			p.InterestScore = clamp(raws[i]/maxRaw*100, 0, 100)
		}
		out[i] = p
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
