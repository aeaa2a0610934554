// Package ai implements text polarity scoring on hosted LLMs.
package ai

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"marketpulse/internal/domain/sentiment"
	"marketpulse/pkg/errors"
)

const systemPrompt = `You are a financial sentiment classifier for retail investor forums.
Given a post title or comment, return the probability that its tone toward the market is negative and the probability that it is positive.
Sarcasm and slang are common; judge the intended tone.
Respond with JSON only: {"negative": <0..1>, "positive": <0..1>}.`

// Options shared by the hosted scorers
type Options struct {
	APIKey         string
	Model          string
	RequestsPerMin float64
	MaxTextChars   int
}

func (o Options) limiter() *rate.Limiter {
	if o.RequestsPerMin <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := int(o.RequestsPerMin / 10)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(o.RequestsPerMin/60), burst)
}

func (o Options) maxChars() int {
	if o.MaxTextChars <= 0 {
		return 2000
	}
	return o.MaxTextChars
}

// completer sends one classification prompt and returns the raw reply
type completer func(ctx context.Context, text string) (string, error)

// llmScorer adapts a completer to sentiment.TextScorer
type llmScorer struct {
	provider string
	complete completer
	limiter  *rate.Limiter
	maxChars int
}

var _ sentiment.TextScorer = (*llmScorer)(nil)

// Score implements sentiment.TextScorer
func (s *llmScorer) Score(ctx context.Context, text string) (sentiment.Polarity, error) {
	if strings.TrimSpace(text) == "" {
		return sentiment.Polarity{}, nil
	}
	if utf8.RuneCountInString(text) > s.maxChars {
		text = string([]rune(text)[:s.maxChars])
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return sentiment.Polarity{}, errors.Wrapf(err, "%s rate limiter", s.provider)
	}

	reply, err := s.complete(ctx, text)
	if err != nil {
		return sentiment.Polarity{}, errors.Mark(errors.Wrapf(err, "%s completion", s.provider), errors.ErrScoringFailed)
	}
	p, err := ParsePolarity(reply)
	if err != nil {
		return sentiment.Polarity{}, errors.Wrapf(err, "%s reply", s.provider)
	}
	return p, nil
}

// MaxTextLength implements sentiment.TextScorer
func (s *llmScorer) MaxTextLength() int {
	return s.maxChars
}

// ParsePolarity extracts the first JSON object from an LLM reply. Values
// must be within [0,1].
func ParsePolarity(reply string) (sentiment.Polarity, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return sentiment.Polarity{}, errors.Wrapf(errors.ErrScoringFailed, "no JSON object in %q", reply)
	}

	var p sentiment.Polarity
	if err := json.Unmarshal([]byte(reply[start:end+1]), &p); err != nil {
		return sentiment.Polarity{}, errors.Mark(err, errors.ErrScoringFailed)
	}
	for _, v := range []float64{p.Negative, p.Positive} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return sentiment.Polarity{}, errors.Wrapf(errors.ErrScoringFailed, "probability out of range: %v", v)
		}
	}
	return p, nil
}
