package kafka

// Topic definitions for Kafka event streaming
const (
	// TopicFusedSignals carries actionable fused records, keyed by ticker
	TopicFusedSignals = "signals.fused"

	// TopicReports carries a summary of every completed analysis
	TopicReports = "signals.reports"
)
