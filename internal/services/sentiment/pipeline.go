package sentiment

import (
	"context"
	"math"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"marketpulse/internal/domain/sentiment"
	"marketpulse/internal/metrics"
	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
)

// PipelineConfig configures a Pipeline
type PipelineConfig struct {
	// Concurrency bounds in-flight Aggregate calls; <= 0 means 2x NumCPU
	Concurrency int

	// BestEffort drops failed posts instead of failing the batch
	BestEffort bool

	// Location defines calendar days; nil means UTC
	Location *time.Location
}

// Pipeline scores a batch of posts concurrently and reduces the result to
// one canonical observation per calendar day.
type Pipeline struct {
	engagement *EngagementScorer
	aggregator *Aggregator
	cfg        PipelineConfig
	log        *logger.Logger
}

// NewPipeline creates a pipeline
func NewPipeline(aggregator *Aggregator, cfg PipelineConfig) *Pipeline {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2 * runtime.NumCPU()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Pipeline{
		engagement: NewEngagementScorer(),
		aggregator: aggregator,
		cfg:        cfg,
		log:        logger.Get().Component("sentiment_pipeline"),
	}
}

// Run assigns interest scores, aggregates every post, and keeps the post
// with the largest |net sentiment| per day. Output is sorted by day and
// does not depend on goroutine completion order.
func (p *Pipeline) Run(ctx context.Context, posts []sentiment.RawPost) ([]sentiment.DailySentiment, error) {
	scored, err := p.ScorePosts(ctx, posts)
	if err != nil {
		return nil, err
	}
	return ReduceDaily(scored, p.cfg.Location), nil
}

// ScorePosts returns scored posts in input order. In best-effort mode
// failed posts are omitted and logged.
func (p *Pipeline) ScorePosts(ctx context.Context, posts []sentiment.RawPost) ([]sentiment.ScoredPost, error) {
	weighted := p.engagement.ScoreBatch(posts)
	results := make([]sentiment.ScoredPost, len(weighted))
	failed := make([]error, len(weighted))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	for i := range weighted {
		g.Go(func() error {
			res, err := p.aggregator.Aggregate(gctx, weighted[i])
			metrics.RecordPostScored(err)
			if err != nil {
				if p.cfg.BestEffort && !isContextErr(gctx) {
					failed[i] = err
					return nil
				}
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "score posts")
	}

	out := make([]sentiment.ScoredPost, 0, len(results))
	var skipped errors.MultiError
	for i := range results {
		if failed[i] != nil {
			skipped.Add(failed[i])
			continue
		}
		out = append(out, results[i])
	}
	if skipped.HasErrors() {
		p.log.Warnw("Skipped posts that failed scoring",
			"skipped", len(skipped.Errors),
			"total", len(weighted),
			"error", skipped.ToError(),
		)
	}
	return out, nil
}

func isContextErr(ctx context.Context) bool {
	return ctx.Err() != nil
}

// ReduceDaily groups posts by calendar day in loc, keeps the largest
// |NetSentiment| per day, and sorts ascending. Ties keep the earlier post
// in input order.
func ReduceDaily(posts []sentiment.ScoredPost, loc *time.Location) []sentiment.DailySentiment {
	if loc == nil {
		loc = time.UTC
	}
	byDay := make(map[time.Time]int)
	var days []sentiment.DailySentiment

	for _, post := range posts {
		day := startOfDay(post.Timestamp, loc)
		idx, ok := byDay[day]
		if !ok {
			byDay[day] = len(days)
			days = append(days, sentiment.DailySentiment{Date: day, Post: post})
			continue
		}
		if math.Abs(post.NetSentiment) > math.Abs(days[idx].Post.NetSentiment) {
			days[idx].Post = post
		}
	}

	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})
	return days
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
