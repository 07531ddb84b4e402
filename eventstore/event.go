package eventstore

import (
	"encoding/json"
	"time"
)

// Event is a single domain event as observed on the bus. The identity
// fields come from the envelope; ReceivedAt is stamped locally on
// ingest and drives retention.
type Event struct {
	EventID       string          `json:"event_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Domain        string          `json:"domain"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	AggregateID   string          `json:"aggregate_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	CausationID   string          `json:"causation_id,omitempty"`
	Version       string          `json:"version,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	ReceivedAt    time.Time       `json:"received_at"`
}

// Age returns how long the event has been in the window relative to now.
func (e *Event) Age(now time.Time) time.Duration {
	return now.Sub(e.ReceivedAt)
}

// Correlated reports whether the event carries a correlation ID.
func (e *Event) Correlated() bool {
	return e.CorrelationID != ""
}

// Caused reports whether the event names a causing event.
func (e *Event) Caused() bool {
	return e.CausationID != ""
}
