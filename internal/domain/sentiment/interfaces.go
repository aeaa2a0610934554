package sentiment

import (
	"context"
	"time"
)

// PostQuery selects posts from one source within a time window
type PostQuery struct {
	Source string
	Query  string // empty matches everything in Source
	Start  time.Time
	End    time.Time
	Limit  int
}

// PostFetcher returns raw posts ordered by relevance or recency.
// An empty result is returned as an empty slice with a nil error.
type PostFetcher interface {
	FetchPosts(ctx context.Context, q PostQuery) ([]RawPost, error)
}

// TextScorer scores a short text for polarity. Probabilities need not sum to 1.
type TextScorer interface {
	Score(ctx context.Context, text string) (Polarity, error)

	// MaxTextLength is the longest input, in runes, the scorer accepts
	MaxTextLength() int
}
