package domainevent

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/c360/eventscape/errors"
	"github.com/c360/eventscape/eventstore"
	"github.com/c360/eventscape/pkg/timestamp"
	"github.com/google/uuid"
)

// DefaultMaxPayloadBytes caps the raw envelope size. Anything larger
// is rejected before decode so a misbehaving producer cannot balloon
// the window's memory.
const DefaultMaxPayloadBytes = 64 * 1024

// envelope is the wire shape published by upstream producers. Fields
// are tolerant: producers disagree on which ones they fill in.
type envelope struct {
	EventID       string          `json:"event_id"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     any             `json:"timestamp"`
	CorrelationID *string         `json:"correlation_id"`
	CausationID   *string         `json:"causation_id"`
	Version       string          `json:"version"`
	Data          json.RawMessage `json:"data"`
}

// decodeEnvelope turns a raw bus message into an Event.
//
// Subject tokens carry the taxonomy: {domain}.{aggregate_type}.{event_type}.{version}.
// Body tolerances match the upstream producers: a missing event_id gets
// a synthesized UUID, a missing or unparseable timestamp becomes now,
// and null link IDs become empty strings. A body that is not a JSON
// object, or a subject with fewer than three tokens, is malformed.
func decodeEnvelope(subject string, data []byte, maxBytes int, now time.Time) (eventstore.Event, error) {
	if maxBytes > 0 && len(data) > maxBytes {
		return eventstore.Event{}, errors.WrapInvalid(errors.ErrPayloadTooLarge,
			"domainevent", "decodeEnvelope", "size check for "+subject)
	}

	tokens := strings.Split(subject, ".")
	if len(tokens) < 3 {
		return eventstore.Event{}, errors.WrapInvalid(errors.ErrMalformedEvent,
			"domainevent", "decodeEnvelope", "subject "+subject)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return eventstore.Event{}, errors.WrapInvalid(errors.ErrMalformedEvent,
			"domainevent", "decodeEnvelope", "body decode for "+subject)
	}

	e := eventstore.Event{
		EventID:       env.EventID,
		Domain:        tokens[0],
		AggregateType: tokens[1],
		EventType:     tokens[2],
		AggregateID:   env.AggregateID,
		Version:       env.Version,
		Payload:       env.Data,
		ReceivedAt:    now,
	}
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if env.CorrelationID != nil {
		e.CorrelationID = *env.CorrelationID
	}
	if env.CausationID != nil {
		e.CausationID = *env.CausationID
	}
	e.Timestamp = parseTimestamp(env.Timestamp, now)
	return e, nil
}

// parseTimestamp accepts RFC3339 strings plus epoch second and
// millisecond numerics; anything else falls back to now.
func parseTimestamp(raw any, now time.Time) time.Time {
	if raw == nil {
		return now.UTC()
	}
	if s, ok := raw.(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC()
		}
	}
	if ms := timestamp.Parse(raw); ms > 0 {
		return timestamp.FromUnixMs(ms).UTC()
	}
	return now.UTC()
}
