package engine

import (
	"github.com/c360/eventscape/metric"
	"github.com/prometheus/client_golang/prometheus"
)

// engineMetrics holds Prometheus metrics for the simulation engine.
type engineMetrics struct {
	eventsIngested  prometheus.Counter
	eventsDuplicate prometheus.Counter
	eventsEvicted   *prometheus.CounterVec // by reason (capacity/retention)

	storeSize  prometheus.Gauge
	graphNodes prometheus.Gauge
	graphEdges prometheus.Gauge

	tickDuration    prometheus.Histogram
	framesPublished prometheus.Counter
}

// newEngineMetrics creates and registers engine metrics with the provided registry.
func newEngineMetrics(registry *metric.MetricsRegistry) *engineMetrics {
	if registry == nil {
		return nil // Metrics disabled
	}

	m := &engineMetrics{
		eventsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventscape",
			Subsystem: "engine",
			Name:      "events_ingested_total",
			Help:      "Events accepted into the window",
		}),
		eventsDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventscape",
			Subsystem: "engine",
			Name:      "events_duplicate_total",
			Help:      "Events rejected as duplicates of a live event ID",
		}),
		eventsEvicted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventscape",
			Subsystem: "engine",
			Name:      "events_evicted_total",
			Help:      "Events evicted from the window",
		}, []string{"reason"}), // reason: capacity, retention

		storeSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eventscape",
			Subsystem: "engine",
			Name:      "store_size",
			Help:      "Events currently in the window",
		}),
		graphNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eventscape",
			Subsystem: "engine",
			Name:      "graph_nodes",
			Help:      "Nodes in the flow graph",
		}),
		graphEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eventscape",
			Subsystem: "engine",
			Name:      "graph_edges",
			Help:      "Edges in the flow graph",
		}),

		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "eventscape",
			Subsystem: "engine",
			Name:      "tick_duration_seconds",
			Help:      "Full tick duration (drain through publish)",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
		framesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventscape",
			Subsystem: "engine",
			Name:      "frames_published_total",
			Help:      "Frames published to the frame subject",
		}),
	}

	registry.RegisterCounter("engine", "events_ingested", m.eventsIngested)
	registry.RegisterCounter("engine", "events_duplicate", m.eventsDuplicate)
	registry.RegisterCounterVec("engine", "events_evicted", m.eventsEvicted)
	registry.RegisterGauge("engine", "store_size", m.storeSize)
	registry.RegisterGauge("engine", "graph_nodes", m.graphNodes)
	registry.RegisterGauge("engine", "graph_edges", m.graphEdges)
	registry.RegisterHistogram("engine", "tick_duration", m.tickDuration)
	registry.RegisterCounter("engine", "frames_published", m.framesPublished)

	return m
}
