package sentiment

import "time"

// Comment is a single reply under a post together with its net votes
type Comment struct {
	Body  string `ch:"body"`
	Votes int    `ch:"votes"`
}

// Engagement is the attention metadata used to weight a post
type Engagement struct {
	Score            int     `ch:"score"`
	UpvoteRatio      float64 `ch:"upvote_ratio"`
	NumComments      int     `ch:"num_comments"`
	TopCommentScores []int   `ch:"top_comment_scores"` // placeholders for collapsed threads excluded
}

// RawPost is a social post as delivered by the post fetcher. Immutable once fetched.
type RawPost struct {
	ID            string
	Source        string // subreddit, feed name
	Title         string
	ArticleURL    string
	Timestamp     time.Time
	Engagement    Engagement
	InterestScore float64 // [0,100], filled by the engagement scorer
	Comments      []Comment
}

// TopComment returns the body of the highest voted comment, first wins on ties
func (p RawPost) TopComment() string {
	best := -1
	for i, c := range p.Comments {
		if best < 0 || c.Votes > p.Comments[best].Votes {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return p.Comments[best].Body
}

// Polarity is a negative/positive probability pair returned by a TextScorer
type Polarity struct {
	Negative float64 `json:"negative"`
	Positive float64 `json:"positive"`
}

// Sum returns Negative + Positive
func (p Polarity) Sum() float64 {
	return p.Negative + p.Positive
}

// Normalized rescales the pair to sum to 1; a zero pair is returned unchanged
func (p Polarity) Normalized() Polarity {
	sum := p.Sum()
	if sum <= 0 {
		return p
	}
	return Polarity{Negative: p.Negative / sum, Positive: p.Positive / sum}
}

// ScoredPost is a RawPost with its interest-weighted net sentiment.
// NetSentiment lies roughly in [-InterestScore, +InterestScore].
type ScoredPost struct {
	RawPost
	NetSentiment float64
}

// DailySentiment is the canonical observation for one calendar day
type DailySentiment struct {
	Date time.Time // midnight of the day in the pipeline's location
	Post ScoredPost
}

// TimelinePoint is one calendar day of the gap-filled sentiment timeline
type TimelinePoint struct {
	Date          time.Time `json:"date"`
	Sentiment     float64   `json:"sentiment_filled"`
	IsFilled      bool      `json:"is_filled"`
	RollingAvg    float64   `json:"rolling_avg"`
	PositiveSpike bool      `json:"positive_spike"`
	NegativeSpike bool      `json:"negative_spike"`
}

// Timeline is a gap-free daily sentiment series with its spike thresholds
type Timeline struct {
	Points            []TimelinePoint `json:"points"`
	PositiveThreshold float64         `json:"positive_threshold"`
	NegativeThreshold float64         `json:"negative_threshold"`
}
