package analysis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/internal/domain/signal"
	"marketpulse/internal/metrics"
	analysissvc "marketpulse/internal/services/analysis"
	"marketpulse/pkg/errors"
)

type fakeAnalyzer struct {
	mu      sync.Mutex
	reports map[string]*signal.Report
	fail    map[string]error
	reqs    []analysissvc.Request
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req analysissvc.Request) (*signal.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if err := f.fail[req.Ticker]; err != nil {
		return nil, err
	}
	return f.reports[req.Ticker], nil
}

type memStore struct {
	saved map[string]signal.Report
}

func (m *memStore) SaveLatest(_ context.Context, r signal.Report) error {
	if m.saved == nil {
		m.saved = map[string]signal.Report{}
	}
	m.saved[r.Ticker] = r
	return nil
}

func (m *memStore) GetLatest(_ context.Context, ticker string) (*signal.Report, error) {
	r, ok := m.saved[ticker]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return &r, nil
}

type countingPublisher struct{ reports []signal.Report }

func (p *countingPublisher) PublishSignals(_ context.Context, r signal.Report) error {
	p.reports = append(p.reports, r)
	return nil
}

type countingNotifier struct{ sent []signal.FusedRecord }

func (n *countingNotifier) NotifySignal(_ context.Context, _ string, rec signal.FusedRecord) error {
	n.sent = append(n.sent, rec)
	return nil
}

type fakeLocker struct {
	held     map[string]bool
	released []string
}

func (l *fakeLocker) AcquireLock(_ context.Context, key string, _ time.Duration) (bool, error) {
	if l.held[key] {
		return false, nil
	}
	return true, nil
}

func (l *fakeLocker) ReleaseLock(_ context.Context, key string) error {
	l.released = append(l.released, key)
	return nil
}

func reportFor(ticker string, last signal.Action, lastDay int) *signal.Report {
	return &signal.Report{
		ID:     uuid.New(),
		Ticker: ticker,
		Records: []signal.FusedRecord{
			{Timestamp: time.Date(2024, 3, lastDay-1, 0, 0, 0, 0, time.UTC), Action: signal.ActionPotentialExit},
			{Timestamp: time.Date(2024, 3, lastDay, 0, 0, 0, 0, time.UTC), Action: last, FearGreedScore: 63.5},
		},
	}
}

func TestWorkerRun(t *testing.T) {
	analyzer := &fakeAnalyzer{reports: map[string]*signal.Report{
		"SPY": reportFor("SPY", signal.ActionMomentumTrade, 4),
		"QQQ": reportFor("QQQ", signal.ActionNone, 4),
	}}
	store := &memStore{}
	pub := &countingPublisher{}
	notifier := &countingNotifier{}
	locker := &fakeLocker{}

	w := NewWorker(Config{Tickers: []string{"SPY", "QQQ"}, Source: "wallstreetbets", PostLimit: 50},
		Deps{Analyzer: analyzer, Store: store, Publisher: pub, Notifier: notifier, Locker: locker},
		time.Hour, true)

	require.NoError(t, w.Run(context.Background()))

	assert.Len(t, store.saved, 2)
	assert.Len(t, pub.reports, 2)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, signal.ActionMomentumTrade, notifier.sent[0].Action)
	assert.Equal(t, []string{"analysis:SPY", "analysis:QQQ"}, locker.released)
	assert.Equal(t, 63.5, testutil.ToFloat64(metrics.CompositeScore))

	require.Len(t, analyzer.reqs, 2)
	assert.Equal(t, "wallstreetbets", analyzer.reqs[0].Source)
	assert.Equal(t, 50, analyzer.reqs[0].Limit)
	assert.Equal(t, "month", string(analyzer.reqs[0].TimeFilter))
}

func TestWorkerNotifiesEachDayOnce(t *testing.T) {
	analyzer := &fakeAnalyzer{reports: map[string]*signal.Report{
		"SPY": reportFor("SPY", signal.ActionMixedSignal, 4),
	}}
	notifier := &countingNotifier{}
	w := NewWorker(Config{Tickers: []string{"SPY"}, Source: "stocks"},
		Deps{Analyzer: analyzer, Store: &memStore{}, Notifier: notifier}, time.Hour, true)

	require.NoError(t, w.Run(context.Background()))
	require.NoError(t, w.Run(context.Background()))
	assert.Len(t, notifier.sent, 1)

	analyzer.reports["SPY"] = reportFor("SPY", signal.ActionMixedSignal, 5)
	require.NoError(t, w.Run(context.Background()))
	assert.Len(t, notifier.sent, 2)
}

func TestWorkerContinuesAfterTickerFailure(t *testing.T) {
	analyzer := &fakeAnalyzer{
		reports: map[string]*signal.Report{"QQQ": reportFor("QQQ", signal.ActionNone, 4)},
		fail:    map[string]error{"SPY": errors.ErrUpstreamDataUnavailable},
	}
	store := &memStore{}
	w := NewWorker(Config{Tickers: []string{"SPY", "QQQ"}, Source: "stocks"},
		Deps{Analyzer: analyzer, Store: store}, time.Hour, true)

	err := w.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUpstreamDataUnavailable))
	assert.Contains(t, err.Error(), "ticker SPY")
	assert.Contains(t, store.saved, "QQQ")
}

func TestWorkerSkipsLockedTicker(t *testing.T) {
	analyzer := &fakeAnalyzer{reports: map[string]*signal.Report{"SPY": reportFor("SPY", signal.ActionNone, 4)}}
	locker := &fakeLocker{held: map[string]bool{"analysis:SPY": true}}
	w := NewWorker(Config{Tickers: []string{"SPY"}, Source: "stocks"},
		Deps{Analyzer: analyzer, Store: &memStore{}, Locker: locker}, time.Hour, true)

	require.NoError(t, w.Run(context.Background()))
	assert.Empty(t, analyzer.reqs)
	assert.Empty(t, locker.released)
}
