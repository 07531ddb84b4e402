// Package buffer provides thread-safe circular buffers with configurable overflow policies,
// built-in statistics tracking, and optional Prometheus metrics integration.
//
// # Overview
//
// The buffer package implements circular buffers for managing data flow between
// producers and consumers in concurrent systems. Buffers are generic, thread-safe,
// and provide observability through always-on statistics and optional metrics.
// Writes never block: when a buffer is full, the overflow policy picks an item
// to drop. This keeps producers such as message bus callbacks fast under load.
//
// # Quick Start
//
// Basic buffer creation:
//
//	buf, err := buffer.NewCircularBuffer[int](1000)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Write data
//	err = buf.Write(42)
//
//	// Read data
//	value, ok := buf.Read()
//
// With overflow policy and metrics:
//
//	buf, err := buffer.NewCircularBuffer[*Event](1000,
//		buffer.WithOverflowPolicy[*Event](buffer.DropOldest),
//		buffer.WithMetrics[*Event](registry, "domainevent_input"),
//	)
//
// # Overflow Policies
//
// The buffer supports two overflow behaviors when capacity is reached:
//
//   - DropOldest: Remove oldest item to make room (default)
//   - DropNewest: Reject new items when full
//
// A drop callback can observe discarded items, for example to count drops or
// log a sample of what was lost:
//
//	buf, _ := buffer.NewCircularBuffer[*Event](1000,
//		buffer.WithDropCallback[*Event](func(ev *Event) {
//			droppedTotal.Inc()
//		}),
//	)
//
// # Observability Architecture
//
// The buffer package implements a dual-tracking pattern:
//
// Statistics (Always On):
//   - Tracks all operations using atomic counters
//   - Zero configuration required
//   - Available via buf.Stats()
//   - Provides computed metrics (throughput, drop rate, utilization)
//
// Prometheus Metrics (Optional):
//   - Enabled via WithMetrics(registry, prefix)
//   - Exposes writes, reads, peeks, overflows, drops, size, and utilization
//   - The prefix becomes the component label, so several buffers can share
//     one registry
//
// # Batch Draining
//
// Consumers that process items in ticks use ReadBatch to drain up to a fixed
// number of items per pass:
//
//	for _, item := range buf.ReadBatch(10) {
//		process(item)
//	}
//
// ReadBatch returns fewer items than requested when the buffer holds fewer,
// and nil when it is empty.
//
// # Thread Safety
//
// All buffer operations are safe for concurrent use. Statistics use atomic
// counters so reading them never contends with buffer operations.
package buffer
