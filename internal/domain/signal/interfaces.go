package signal

import "context"

// Publisher fans actionable records out to downstream consumers
type Publisher interface {
	PublishSignals(ctx context.Context, report Report) error
}

// Notifier delivers a human-readable alert for an actionable record
type Notifier interface {
	NotifySignal(ctx context.Context, ticker string, rec FusedRecord) error
}

// ReportStore keeps the latest report per ticker
type ReportStore interface {
	SaveLatest(ctx context.Context, report Report) error
	GetLatest(ctx context.Context, ticker string) (*Report, error)
}
