package component

import "fmt"

// JetStreamPort - NATS JetStream for durable, at-least-once messaging.
// Used by the event input when replaying retained history from a stream.
type JetStreamPort struct {
	// Stream configuration
	StreamName string   `json:"stream_name"`       // e.g., "DOMAIN_EVENTS"
	Subjects   []string `json:"subjects"`          // e.g., ["*.*.event.v1"]
	Storage    string   `json:"storage,omitempty"` // "file" or "memory", default "file"

	// Consumer configuration (for inputs)
	ConsumerName  string `json:"consumer_name,omitempty"`  // Durable consumer name
	DeliverPolicy string `json:"deliver_policy,omitempty"` // "all", "last", "new", default "new"
	AckPolicy     string `json:"ack_policy,omitempty"`     // "explicit", "none", "all", default "explicit"

	// Interface contract
	Interface *InterfaceContract `json:"interface,omitempty"`
}

// ResourceID returns unique identifier for JetStream ports
func (j JetStreamPort) ResourceID() string {
	if j.StreamName != "" {
		return fmt.Sprintf("jetstream:%s", j.StreamName)
	}
	// For consumers without explicit stream name
	if len(j.Subjects) > 0 {
		return fmt.Sprintf("jetstream:%s", j.Subjects[0])
	}
	return "jetstream:unknown"
}

// IsExclusive returns false as JetStream manages consumer coordination
func (j JetStreamPort) IsExclusive() bool {
	return false
}

// Type returns the port type identifier
func (j JetStreamPort) Type() string {
	return "jetstream"
}
