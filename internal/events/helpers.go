package events

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	TypeSignalFused     = "signal.fused"
	TypeReportCompleted = "report.completed"
)

const eventVersion = "1.0"

// BaseEvent is the envelope shared by every published event
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
}

// NewBaseEvent creates a new base event with defaults
func NewBaseEvent(eventType, source string, now time.Time) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: now.UTC(),
		Source:    source,
		Version:   eventVersion,
	}
}

// sanitize drops invalid UTF-8 from free text scraped from social posts
func sanitize(s string) string {
	return strings.ToValidUTF8(s, "")
}
