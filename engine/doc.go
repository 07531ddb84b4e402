// Package engine runs the event-flow simulation.
//
// The engine is the only writer to the event store, the flow graph and
// the layout: one tick goroutine drains the ingest queue, cascades
// evictions, steps the force simulation and publishes a frame, every
// tick. Everything any other goroutine can see (admin API snapshots,
// frame listeners, stats) is a copy taken under the engine's lock; the
// live structures are never shared.
//
// Tick order matters and is fixed: drain, ingest with capacity
// cascade, retention eviction with cascade, layout step, frame build,
// publish. An event and its graph edges and layout position therefore
// appear and disappear atomically with respect to frames.
package engine
