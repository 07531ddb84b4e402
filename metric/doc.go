// Package metric provides Prometheus-based metrics collection and an HTTP
// server for eventscape monitoring and observability.
//
// The package offers a centralized metrics registry managing both core
// platform metrics (service status, event counters, NATS health) and custom
// component-specific metrics. It includes an HTTP server exposing metrics in
// Prometheus format.
//
// # Architecture
//
// The package follows a three-layer design:
//
//  1. Core Metrics: Platform-level metrics automatically registered (Metrics type)
//  2. Component Registry: Extensible registration for component-specific metrics (MetricsRegistrar interface)
//  3. HTTP Server: Metrics endpoint with health checks (Server type)
//
// # Basic Usage
//
// Setting up metrics collection and the HTTP server:
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil {
//	        log.Printf("Metrics server error: %v", err)
//	    }
//	}()
//
//	// Record core platform metrics
//	coreMetrics := registry.CoreMetrics()
//	coreMetrics.RecordServiceStatus("engine", 2)
//	coreMetrics.RecordEventReceived("domainevent", "orders")
//	coreMetrics.RecordNATSStatus(true)
//
// Metrics are served at http://localhost:9090/metrics with a health check at
// http://localhost:9090/health.
//
// # Core Metrics
//
// The registry automatically registers core platform metrics tracking:
//
//   - Service lifecycle: service_status (0=stopped, 1=starting, 2=running, 3=stopping, 4=failed)
//   - Event pipeline: events_received_total, events_processed_total, events_dropped_total
//   - Frame output: frames_published_total
//   - Processing performance: processing_duration_seconds
//   - NATS connectivity: nats_connected, nats_rtt_milliseconds, nats_reconnects_total
//   - Error tracking: errors_total
//
// # Component-Specific Metrics
//
// Components can register custom metrics through the MetricsRegistrar
// interface. The registry namespaces registrations by component and metric
// name, rejecting duplicates at both the registry and Prometheus level. A nil
// registry is tolerated everywhere: components check for nil and skip metric
// recording, so tests can construct components without metrics plumbing.
//
//	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
//	    Namespace: "eventscape",
//	    Subsystem: "engine",
//	    Name:      "graph_nodes",
//	    Help:      "Current number of nodes in the flow graph",
//	})
//	if err := registry.RegisterGauge("engine", "graph_nodes", gauge); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// The registry serializes registration and unregistration with an internal
// mutex. Recording values on already-registered collectors is lock-free and
// safe for concurrent use (delegated to prometheus client library).
package metric
