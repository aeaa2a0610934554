package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/internal/adapters/kafka"
	"marketpulse/internal/domain/signal"
	"marketpulse/pkg/errors"
)

type recordingProducer struct {
	batches map[string][]kafka.Message
	failOn  string
}

func (p *recordingProducer) PublishBatch(_ context.Context, topic string, msgs []kafka.Message) error {
	if topic == p.failOn {
		return errors.New("write failed")
	}
	if p.batches == nil {
		p.batches = map[string][]kafka.Message{}
	}
	p.batches[topic] = append(p.batches[topic], msgs...)
	return nil
}

func testReport() signal.Report {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	return signal.Report{
		ID:                uuid.New(),
		Ticker:            "SPY",
		Latency:           1500 * time.Millisecond,
		PositiveThreshold: 12,
		NegativeThreshold: -9,
		Records: []signal.FusedRecord{
			{Timestamp: day, Action: signal.ActionNone},
			{Timestamp: day.AddDate(0, 0, 1), Action: signal.ActionMomentumTrade, Correlation: 0.5, PositiveSpike: true, Title: "calls\xff"},
			{Timestamp: day.AddDate(0, 0, 2), Action: signal.ActionPotentialExit, Correlation: -0.4, NegativeSpike: true},
		},
	}
}

func TestPublishSignals(t *testing.T) {
	producer := &recordingProducer{}
	pub := NewSignalPublisher(producer, "", "analysis_worker")
	report := testReport()

	require.NoError(t, pub.PublishSignals(context.Background(), report))

	signals := producer.batches[kafka.TopicFusedSignals]
	require.Len(t, signals, 2)

	var first SignalFusedEvent
	require.NoError(t, json.Unmarshal(signals[0].Value, &first))
	assert.Equal(t, "SPY", string(signals[0].Key))
	assert.Equal(t, TypeSignalFused, first.Type)
	assert.Equal(t, report.ID.String(), first.ReportID)
	assert.Equal(t, string(signal.ActionMomentumTrade), first.Action)
	assert.Equal(t, "calls", first.Title)
	assert.NotEmpty(t, first.ID)

	summaries := producer.batches[kafka.TopicReports]
	require.Len(t, summaries, 1)
	var summary ReportCompletedEvent
	require.NoError(t, json.Unmarshal(summaries[0].Value, &summary))
	assert.Equal(t, 3, summary.Days)
	assert.Equal(t, 2, summary.ActionableDays)
	assert.Equal(t, int64(1500), summary.LatencyMillis)
}

func TestPublishSignalsNothingActionable(t *testing.T) {
	producer := &recordingProducer{}
	pub := NewSignalPublisher(producer, "custom.topic", "test")
	report := testReport()
	report.Records = report.Records[:1]

	require.NoError(t, pub.PublishSignals(context.Background(), report))
	assert.Empty(t, producer.batches["custom.topic"])
	assert.Len(t, producer.batches[kafka.TopicReports], 1)
}

func TestPublishSignalsProducerError(t *testing.T) {
	producer := &recordingProducer{failOn: kafka.TopicFusedSignals}
	pub := NewSignalPublisher(producer, "", "test")

	err := pub.PublishSignals(context.Background(), testReport())
	require.Error(t, err)
	assert.Empty(t, producer.batches[kafka.TopicReports])
}
