package events

import (
	"context"
	"encoding/json"
	"time"

	"marketpulse/internal/adapters/kafka"
	"marketpulse/internal/domain/signal"
	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
)

// Compile-time check
var _ signal.Publisher = (*SignalPublisher)(nil)

// batchProducer is the part of kafka.Producer the publisher needs
type batchProducer interface {
	PublishBatch(ctx context.Context, topic string, messages []kafka.Message) error
}

// SignalFusedEvent is one actionable day of a report
type SignalFusedEvent struct {
	BaseEvent
	ReportID       string    `json:"report_id"`
	Ticker         string    `json:"ticker"`
	Date           time.Time `json:"date"`
	Action         string    `json:"action"`
	Price          float64   `json:"price"`
	FearGreedScore float64   `json:"fear_greed_score"`
	Correlation    float64   `json:"correlation"`
	Sentiment      float64   `json:"sentiment"`
	PositiveSpike  bool      `json:"positive_spike"`
	NegativeSpike  bool      `json:"negative_spike"`
	Title          string    `json:"title,omitempty"`
	ArticleURL     string    `json:"article_url,omitempty"`
}

// ReportCompletedEvent summarizes a finished analysis
type ReportCompletedEvent struct {
	BaseEvent
	ReportID          string  `json:"report_id"`
	Ticker            string  `json:"ticker"`
	Days              int     `json:"days"`
	ActionableDays    int     `json:"actionable_days"`
	LatencyMillis     int64   `json:"latency_ms"`
	PositiveThreshold float64 `json:"positive_threshold"`
	NegativeThreshold float64 `json:"negative_threshold"`
}

// SignalPublisher writes report events to Kafka
type SignalPublisher struct {
	producer    batchProducer
	signalTopic string
	reportTopic string
	source      string
	now         func() time.Time
	log         *logger.Logger
}

// NewSignalPublisher creates a publisher writing fused signals to signalTopic
func NewSignalPublisher(producer batchProducer, signalTopic, source string) *SignalPublisher {
	if signalTopic == "" {
		signalTopic = kafka.TopicFusedSignals
	}
	return &SignalPublisher{
		producer:    producer,
		signalTopic: signalTopic,
		reportTopic: kafka.TopicReports,
		source:      source,
		now:         time.Now,
		log:         logger.Get().Component("signal_publisher"),
	}
}

// PublishSignals sends one event per actionable record, then the report summary.
// Records are keyed by ticker so a consumer sees them in day order.
func (p *SignalPublisher) PublishSignals(ctx context.Context, report signal.Report) error {
	actionable := report.Actionable()
	now := p.now()

	if len(actionable) > 0 {
		msgs := make([]kafka.Message, 0, len(actionable))
		for _, rec := range actionable {
			data, err := json.Marshal(p.signalEvent(report, rec, now))
			if err != nil {
				return errors.Wrap(err, "marshal signal event")
			}
			msgs = append(msgs, kafka.Message{Key: []byte(report.Ticker), Value: data})
		}
		if err := p.producer.PublishBatch(ctx, p.signalTopic, msgs); err != nil {
			return errors.Wrap(err, "publish fused signals")
		}
	}

	summary := ReportCompletedEvent{
		BaseEvent:         NewBaseEvent(TypeReportCompleted, p.source, now),
		ReportID:          report.ID.String(),
		Ticker:            report.Ticker,
		Days:              len(report.Records),
		ActionableDays:    len(actionable),
		LatencyMillis:     report.Latency.Milliseconds(),
		PositiveThreshold: report.PositiveThreshold,
		NegativeThreshold: report.NegativeThreshold,
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return errors.Wrap(err, "marshal report event")
	}
	if err := p.producer.PublishBatch(ctx, p.reportTopic, []kafka.Message{{Key: []byte(report.Ticker), Value: data}}); err != nil {
		return errors.Wrap(err, "publish report summary")
	}

	p.log.Debugw("Report published",
		"ticker", report.Ticker,
		"report_id", report.ID,
		"actionable", len(actionable),
	)
	return nil
}

func (p *SignalPublisher) signalEvent(report signal.Report, rec signal.FusedRecord, now time.Time) SignalFusedEvent {
	return SignalFusedEvent{
		BaseEvent:      NewBaseEvent(TypeSignalFused, p.source, now),
		ReportID:       report.ID.String(),
		Ticker:         report.Ticker,
		Date:           rec.Timestamp,
		Action:         string(rec.Action),
		Price:          rec.Price,
		FearGreedScore: rec.FearGreedScore,
		Correlation:    rec.Correlation,
		Sentiment:      rec.Sentiment,
		PositiveSpike:  rec.PositiveSpike,
		NegativeSpike:  rec.NegativeSpike,
		Title:          sanitize(rec.Title),
		ArticleURL:     rec.ArticleURL,
	}
}
