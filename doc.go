// Package eventscape provides a real-time event graph layout engine.
// It ingests timestamped, causally-linked domain events from NATS, keeps
// a bounded recent window, derives a causation/correlation flow graph,
// runs force-directed 3D layout on a fixed tick, and publishes per-tick
// frames for visualization clients.
//
// # Architecture
//
// Eventscape is built from three components orchestrated by a service layer:
//
//	┌─────────────────────────────────────┐
//	│       Service Layer                 │  Lifecycle, health, HTTP API
//	│  (service manager, comp. manager)   │  /api/frame, /api/stats, ...
//	└─────────────────────────────────────┘
//	           ↓ orchestrates
//	┌──────────┐   ┌──────────┐   ┌──────────┐
//	│ Domain   │ → │  Engine  │ → │WebSocket │
//	│ Event    │   │(graph +  │   │ Output   │
//	│ Input    │   │ layout)  │   │          │
//	└──────────┘   └──────────┘   └──────────┘
//	     ↑              │               ↑
//	 NATS events    frame subject   NATS frames
//
// The domain event input subscribes to event subjects (core NATS or a
// JetStream stream), validates and deduplicates envelopes, and buffers
// them. The engine drains that buffer each tick, maintains the bounded
// event window, rebuilds the flow graph from causation and correlation
// links, advances the force simulation, and publishes a frame. The
// WebSocket output fans frames out to connected browsers, dropping the
// oldest pending frame for slow clients so renderers always converge on
// the present.
//
// # Packages
//
// Domain:
//   - eventstore: bounded event window with count and age eviction
//   - flowgraph: causation/correlation edge derivation
//   - layout: force-directed simulation and one-shot arrangements
//   - style: node color and size assignment
//   - engine: tick loop tying store, graph, layout, and publishing together
//
// Components:
//   - input/domainevent: NATS event ingestion
//   - output/websocket: frame broadcasting
//   - componentregistry: factory registration
//
// Infrastructure:
//   - component: component lifecycle, registry, port definitions
//   - natsclient: NATS connection management with circuit breaker
//   - service: HTTP services and lifecycle orchestration
//   - config: configuration loading and validation
//   - metric: Prometheus metrics
//   - errors: structured error handling
//   - health: health check system
//
// Utilities:
//   - pkg/buffer: ring buffer for streaming
//   - pkg/cache: LRU caching
//   - pkg/retry: retry policies
//   - pkg/worker: worker pools
//   - pkg/timestamp: time utilities
//
// # Usage
//
// Run the binary against a NATS server:
//
//	# Defaults: events from {org}.{platform}.event.>, frames on
//	# {org}.{platform}.eventscape.frame.v1, WebSocket on :8081/ws,
//	# HTTP API on :8080
//	./bin/eventscape --config configs/example.json
//
// Embedding the engine directly:
//
//	eng, err := engine.NewEngine(engine.Deps{
//	    Config:     cfg,
//	    NATSClient: natsClient,
//	    Logger:     logger,
//	})
//	eng.AttachSource(source)
//	eng.Initialize()
//	eng.Start(ctx)
//
// # Design Principles
//
// Composition over configuration: small, focused components connected
// via NATS subjects. Explicit dependencies, no globals. Bounded buffers
// everywhere an unbounded producer meets a slower consumer. Integration
// tests run against real NATS via testcontainers.
package eventscape
