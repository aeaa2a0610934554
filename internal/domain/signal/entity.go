package signal

import (
	"time"

	"github.com/google/uuid"
)

// Action is the trading signal attached to a fused day
type Action string

const (
	ActionMomentumTrade Action = "Momentum trade"
	ActionPotentialExit Action = "Potential exit"
	ActionMixedSignal   Action = "Mixed signal"
	ActionNone          Action = "no signal"
)

// Actionable reports whether the action is anything but ActionNone
func (a Action) Actionable() bool {
	return a != ActionNone && a != ""
}

// CorrelationPoint is one day of the price vs fear/greed join
type CorrelationPoint struct {
	Timestamp      time.Time `json:"timestamp"`
	Price          float64   `json:"price"`
	FearGreedScore float64   `json:"fear_greed_score"`
	Correlation    float64   `json:"correlation"` // 0 during warm-up
}

// FusedRecord is one day of price, fear/greed and sentiment with its action
type FusedRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	Price          float64   `json:"price"`
	FearGreedScore float64   `json:"fear_greed_score"`
	Correlation    float64   `json:"correlation"`
	Sentiment      float64   `json:"sentiment"`
	Title          string    `json:"title,omitempty"`
	ArticleURL     string    `json:"article_url,omitempty"`
	TopComment     string    `json:"top_comment,omitempty"`
	PositiveSpike  bool      `json:"positive_spike"`
	NegativeSpike  bool      `json:"negative_spike"`
	Action         Action    `json:"action"`
}

// Report is the result of one analysis request
type Report struct {
	ID                uuid.UUID     `json:"id"`
	Ticker            string        `json:"ticker"`
	GeneratedAt       time.Time     `json:"generated_at"`
	Latency           time.Duration `json:"latency"`
	PositiveThreshold float64       `json:"positive_threshold"`
	NegativeThreshold float64       `json:"negative_threshold"`
	Records           []FusedRecord `json:"records"`
}

// Actionable returns the records whose action is not ActionNone
func (r Report) Actionable() []FusedRecord {
	var out []FusedRecord
	for _, rec := range r.Records {
		if rec.Action.Actionable() {
			out = append(out, rec)
		}
	}
	return out
}

// Latest returns the most recent record, if any
func (r Report) Latest() (FusedRecord, bool) {
	if len(r.Records) == 0 {
		return FusedRecord{}, false
	}
	return r.Records[len(r.Records)-1], true
}
