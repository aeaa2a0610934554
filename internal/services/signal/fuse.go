package signal

import (
	"time"

	"marketpulse/internal/domain/market"
	"marketpulse/internal/domain/sentiment"
	"marketpulse/internal/domain/signal"
)

// Fuse left-joins the timeline and canonical daily posts onto the
// correlation rows by calendar day and classifies each day. Days without a
// timeline point get zero sentiment and no spikes.
func (c *Classifier) Fuse(rows []signal.CorrelationPoint, tl sentiment.Timeline, daily []sentiment.DailySentiment) []signal.FusedRecord {
	points := make(map[time.Time]sentiment.TimelinePoint, len(tl.Points))
	for _, p := range tl.Points {
		points[market.Day(p.Date)] = p
	}
	posts := make(map[time.Time]sentiment.ScoredPost, len(daily))
	for _, d := range daily {
		posts[market.Day(d.Date)] = d.Post
	}

	out := make([]signal.FusedRecord, len(rows))
	for i, r := range rows {
		day := market.Day(r.Timestamp)
		rec := signal.FusedRecord{
			Timestamp:      r.Timestamp,
			Price:          r.Price,
			FearGreedScore: r.FearGreedScore,
			Correlation:    r.Correlation,
		}
		if p, ok := points[day]; ok {
			rec.Sentiment = p.Sentiment
			rec.PositiveSpike = p.PositiveSpike
			rec.NegativeSpike = p.NegativeSpike
		}
		if post, ok := posts[day]; ok {
			rec.Title = post.Title
			rec.ArticleURL = post.ArticleURL
			rec.TopComment = post.TopComment()
		}
		rec.Action = c.Classify(rec.PositiveSpike, rec.NegativeSpike, rec.Correlation)
		out[i] = rec
	}
	return out
}
