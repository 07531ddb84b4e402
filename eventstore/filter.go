package eventstore

import (
	"slices"
	"strings"
	"time"

	"github.com/c360/eventscape/errors"
)

// Filter selects a subset of the event window. Zero-value fields match
// everything, so filters compose by setting only the dimensions that
// matter.
type Filter struct {
	// Domains restricts to events from these domains.
	Domains []string `json:"domains,omitempty"`

	// EventTypes restricts to these exact event types.
	EventTypes []string `json:"event_types,omitempty"`

	// EventTypeContains matches when the event type contains any of
	// these substrings (case-insensitive).
	EventTypeContains []string `json:"event_type_contains,omitempty"`

	// Window restricts to events received within this duration of now.
	Window time.Duration `json:"window,omitempty"`

	// OnlyCorrelated restricts to events carrying a correlation ID.
	OnlyCorrelated bool `json:"only_correlated,omitempty"`

	// Query is a case-insensitive substring match across the event's
	// identity fields.
	Query string `json:"query,omitempty"`
}

// Match reports whether the event passes every set dimension of the
// filter. Age is measured against now.
func (f Filter) Match(e *Event, now time.Time) bool {
	if len(f.Domains) > 0 && !slices.Contains(f.Domains, e.Domain) {
		return false
	}
	if len(f.EventTypes) > 0 && !slices.Contains(f.EventTypes, e.EventType) {
		return false
	}
	if len(f.EventTypeContains) > 0 {
		et := strings.ToLower(e.EventType)
		found := false
		for _, sub := range f.EventTypeContains {
			if strings.Contains(et, strings.ToLower(sub)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Window > 0 && e.Age(now) > f.Window {
		return false
	}
	if f.OnlyCorrelated && !e.Correlated() {
		return false
	}
	if f.Query != "" && !f.matchQuery(e) {
		return false
	}
	return true
}

func (f Filter) matchQuery(e *Event) bool {
	q := strings.ToLower(f.Query)
	for _, field := range []string{
		e.EventID, e.Domain, e.AggregateType, e.EventType, e.AggregateID, e.CorrelationID,
	} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Preset names understood by FilterPreset.
const (
	PresetHighTraffic = "high-traffic"
	PresetErrorsOnly  = "errors-only"
	PresetCorrelated  = "correlated"
	PresetRecent      = "recent"
)

// FilterPreset returns one of the named canned filters.
func FilterPreset(name string) (Filter, error) {
	switch name {
	case PresetHighTraffic:
		return Filter{Window: 60 * time.Second}, nil
	case PresetErrorsOnly:
		return Filter{EventTypeContains: []string{"error", "failed", "rejected"}}, nil
	case PresetCorrelated:
		return Filter{OnlyCorrelated: true}, nil
	case PresetRecent:
		return Filter{Window: 30 * time.Second}, nil
	default:
		return Filter{}, errors.WrapInvalid(errors.ErrInvalidConfig, "eventstore", "FilterPreset", "unknown preset "+name)
	}
}
