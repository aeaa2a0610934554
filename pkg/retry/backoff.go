package retry

import (
	"context"
	"time"

	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
)

// Backoff configures exponential retry of an operation
type Backoff struct {
	MinBackoff        time.Duration // first wait, default 1s
	MaxBackoff        time.Duration // cap, default 30s
	BackoffMultiplier float64       // default 2.0
	MaxAttempts       int           // default 5
}

func (b Backoff) withDefaults() Backoff {
	if b.MinBackoff <= 0 {
		b.MinBackoff = time.Second
	}
	if b.MaxBackoff <= 0 {
		b.MaxBackoff = 30 * time.Second
	}
	if b.BackoffMultiplier < 1 {
		b.BackoffMultiplier = 2.0
	}
	if b.MaxAttempts <= 0 {
		b.MaxAttempts = 5
	}
	return b
}

// Delays returns the wait before each retry (MaxAttempts-1 entries)
func (b Backoff) Delays() []time.Duration {
	b = b.withDefaults()
	out := make([]time.Duration, 0, b.MaxAttempts-1)
	d := b.MinBackoff
	for i := 1; i < b.MaxAttempts; i++ {
		out = append(out, d)
		d = time.Duration(float64(d) * b.BackoffMultiplier)
		if d > b.MaxBackoff {
			d = b.MaxBackoff
		}
	}
	return out
}

// Do runs op until it succeeds, attempts run out or ctx is done.
// Permanent errors are not retried.
func Do(ctx context.Context, name string, b Backoff, op func(ctx context.Context) error) error {
	log := logger.Get().With("component", "retry", "operation", name)
	delays := b.Delays()

	var err error
	for attempt := 0; ; attempt++ {
		if err = op(ctx); err == nil {
			if attempt > 0 {
				log.Infow("Operation succeeded after retries", "attempts", attempt+1)
			}
			return nil
		}
		if errors.Permanent(err) || attempt >= len(delays) {
			break
		}

		log.Warnw("Operation failed, retrying",
			"attempt", attempt+1,
			"next_backoff", delays[attempt],
			"error", err,
		)

		timer := time.NewTimer(delays[attempt])
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Wrapf(ctx.Err(), "%s cancelled after %d attempts", name, attempt+1)
		case <-timer.C:
		}
	}
	return errors.Wrapf(err, "%s failed", name)
}
