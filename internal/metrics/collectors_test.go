package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type fakeFreshness struct {
	posts  uint64
	prices map[string]time.Time
}

func (f fakeFreshness) CountPostsSince(context.Context, time.Time) (uint64, error) {
	return f.posts, nil
}

func (f fakeFreshness) LatestPriceTime(_ context.Context, ticker string) (time.Time, error) {
	ts, ok := f.prices[ticker]
	if !ok {
		return time.Time{}, errors.New("no bars")
	}
	return ts, nil
}

func TestFreshnessCollector(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	c := NewFreshnessCollector(fakeFreshness{
		posts:  42,
		prices: map[string]time.Time{"SPY": now.Add(-time.Hour)},
	}, []string{"SPY", "QQQ"})
	c.now = func() time.Time { return now }

	// posts gauge + one price age; QQQ is skipped
	assert.Equal(t, 2, testutil.CollectAndCount(c))
}

func TestRecordHelpers(t *testing.T) {
	RecordSignal("SPY", "Momentum trade")
	assert.Equal(t, 1.0, testutil.ToFloat64(SignalsEmitted.WithLabelValues("SPY", "Momentum trade")))

	RecordPostScored(nil)
	RecordPostScored(errors.New("boom"))
	assert.Equal(t, 1.0, testutil.ToFloat64(PostsScored.WithLabelValues("error")))
}
