package engine

import (
	"time"

	"github.com/c360/eventscape/flowgraph"
)

// Frame is one tick's worth of layout, published on the frame subject
// and broadcast to WebSocket clients. It is self-contained: a consumer
// can render it with no other state.
type Frame struct {
	Tick      uint64          `json:"tick"`
	Time      time.Time       `json:"time"`
	NodeCount int             `json:"node_count"`
	EdgeCount int             `json:"edge_count"`
	Nodes     []Node          `json:"nodes"`
	Edges     []flowgraph.Edge `json:"edges"`
}

// Node is one event's visual state within a frame.
type Node struct {
	ID          string     `json:"id"`
	Domain      string     `json:"domain"`
	EventType   string     `json:"event_type"`
	AggregateID string     `json:"aggregate_id,omitempty"`
	Position    [3]float64 `json:"position"`
	Color       [3]float64 `json:"color"`
	Scale       float64    `json:"scale"`
	AgeSeconds  float64    `json:"age_seconds"`
}
