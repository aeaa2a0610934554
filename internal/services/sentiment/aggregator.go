package sentiment

import (
	"context"

	"marketpulse/internal/domain/sentiment"
	"marketpulse/pkg/errors"
)

const (
	DefaultTitleWeight    = 0.3
	DefaultCommentsWeight = 0.7
)

// Aggregator fuses title and vote-weighted comment polarities into a
// single net sentiment scaled by the post's interest score.
type Aggregator struct {
	scorer         sentiment.TextScorer
	titleWeight    float64
	commentsWeight float64
}

// NewAggregator creates an aggregator; non-positive weights fall back to 0.3/0.7
func NewAggregator(scorer sentiment.TextScorer, titleWeight, commentsWeight float64) *Aggregator {
	if titleWeight <= 0 && commentsWeight <= 0 {
		titleWeight, commentsWeight = DefaultTitleWeight, DefaultCommentsWeight
	}
	return &Aggregator{
		scorer:         scorer,
		titleWeight:    titleWeight,
		commentsWeight: commentsWeight,
	}
}

// Aggregate scores one post. Scorer failures are returned wrapped in
// errors.ErrScoringFailed.
func (a *Aggregator) Aggregate(ctx context.Context, post sentiment.RawPost) (sentiment.ScoredPost, error) {
	comments, err := a.scoreComments(ctx, post.Comments)
	if err != nil {
		return sentiment.ScoredPost{}, errors.Wrapf(err, "post %s comments", post.ID)
	}

	title, err := a.scorer.Score(ctx, post.Title)
	if err != nil {
		return sentiment.ScoredPost{}, errors.Wrapf(wrapScoring(err), "post %s title", post.ID)
	}

	overall := sentiment.Polarity{
		Negative: title.Negative*a.titleWeight + comments.Negative*a.commentsWeight,
		Positive: title.Positive*a.titleWeight + comments.Positive*a.commentsWeight,
	}.Normalized()

	return sentiment.ScoredPost{
		RawPost:      post,
		NetSentiment: (overall.Positive - overall.Negative) * post.InterestScore,
	}, nil
}

// scoreComments returns the vote-weighted polarity of the comments.
// Zero total votes contributes nothing and skips scoring entirely.
func (a *Aggregator) scoreComments(ctx context.Context, comments []sentiment.Comment) (sentiment.Polarity, error) {
	total := 0
	for _, c := range comments {
		total += c.Votes
	}
	if total == 0 {
		return sentiment.Polarity{}, nil
	}

	limit := a.scorer.MaxTextLength()
	var agg sentiment.Polarity
	for i, c := range comments {
		p, err := a.scorer.Score(ctx, truncateRunes(c.Body, limit))
		if err != nil {
			return sentiment.Polarity{}, errors.Wrapf(wrapScoring(err), "comment %d", i)
		}
		w := float64(c.Votes) / float64(total)
		agg.Negative += p.Negative * w
		agg.Positive += p.Positive * w
	}
	return agg, nil
}

func wrapScoring(err error) error {
	return errors.Mark(err, errors.ErrScoringFailed)
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
