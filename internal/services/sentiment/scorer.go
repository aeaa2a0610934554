package sentiment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"marketpulse/internal/domain/sentiment"
	"marketpulse/internal/metrics"
	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
)

// Cache is the subset of the Redis adapter used for polarity caching
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CachedScorer memoizes polarity by provider and text hash.
// Cache failures fall through to the wrapped scorer.
type CachedScorer struct {
	next     sentiment.TextScorer
	cache    Cache
	provider string
	ttl      time.Duration
	log      *logger.Logger
}

var _ sentiment.TextScorer = (*CachedScorer)(nil)

// NewCachedScorer wraps next with a polarity cache
func NewCachedScorer(next sentiment.TextScorer, cache Cache, provider string, ttl time.Duration) *CachedScorer {
	return &CachedScorer{
		next:     next,
		cache:    cache,
		provider: provider,
		ttl:      ttl,
		log:      logger.Get().Component("polarity_cache"),
	}
}

// Score implements sentiment.TextScorer
func (s *CachedScorer) Score(ctx context.Context, text string) (sentiment.Polarity, error) {
	key := s.key(text)

	var cached sentiment.Polarity
	err := s.cache.Get(ctx, key, &cached)
	switch {
	case err == nil:
		metrics.RecordCache("polarity", "hit")
		return cached, nil
	case errors.Is(err, errors.ErrNotFound):
		metrics.RecordCache("polarity", "miss")
	default:
		metrics.RecordCache("polarity", "error")
		s.log.Debugw("Polarity cache read failed", "error", err)
	}

	p, err := s.next.Score(ctx, text)
	if err != nil {
		return sentiment.Polarity{}, err
	}
	if err := s.cache.Set(ctx, key, p, s.ttl); err != nil {
		s.log.Debugw("Polarity cache write failed", "error", err)
	}
	return p, nil
}

// MaxTextLength implements sentiment.TextScorer
func (s *CachedScorer) MaxTextLength() int {
	return s.next.MaxTextLength()
}

func (s *CachedScorer) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "polarity:" + s.provider + ":" + hex.EncodeToString(sum[:16])
}

// InstrumentedScorer bounds each call by a timeout and records call counts and latency
type InstrumentedScorer struct {
	next     sentiment.TextScorer
	provider string
	timeout  time.Duration
}

var _ sentiment.TextScorer = (*InstrumentedScorer)(nil)

// NewInstrumentedScorer wraps next with Prometheus metrics; timeout 0 disables the deadline
func NewInstrumentedScorer(next sentiment.TextScorer, provider string, timeout time.Duration) *InstrumentedScorer {
	return &InstrumentedScorer{next: next, provider: provider, timeout: timeout}
}

// Score implements sentiment.TextScorer
func (s *InstrumentedScorer) Score(ctx context.Context, text string) (sentiment.Polarity, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	p, err := s.next.Score(ctx, text)
	metrics.RecordScorerCall(s.provider, time.Since(start), err)
	return p, err
}

// MaxTextLength implements sentiment.TextScorer
func (s *InstrumentedScorer) MaxTextLength() int {
	return s.next.MaxTextLength()
}
