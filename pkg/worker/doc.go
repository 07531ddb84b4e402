// Package worker provides a generic, thread-safe worker pool for concurrent task processing.
//
// # Overview
//
// The worker package implements a worker pool pattern with:
//   - Generic type support for type-safe work processing
//   - Bounded queues with backpressure (non-blocking submit)
//   - Context-aware cancellation and graceful shutdown
//   - Always-on statistics plus optional Prometheus metrics
//
// # Core Concepts
//
// The pool manages a fixed number of goroutines (workers) that process work
// items from a bounded channel (queue). Using Go generics, the pool can
// process any work type T without type assertions:
//
//	pool := worker.NewPool[DecodeTask](
//	    4,    // workers
//	    256,  // queue size
//	    func(ctx context.Context, task DecodeTask) error {
//	        return decode(ctx, task)
//	    },
//	)
//
// # Non-Blocking Submit with Backpressure
//
// Submit() uses a non-blocking send rather than blocking on a full queue:
//   - Callers never block waiting for queue space
//   - ErrQueueFull signals system overload
//   - Dropped work counts indicate workers can't keep up
//
// This matters for message bus callbacks, which must return quickly no matter
// how far behind the workers have fallen.
//
// # Lifecycle
//
// Start(ctx) launches the workers. Workers exit when the context is cancelled
// or the queue is closed. Stop(timeout) closes the queue, lets workers drain
// remaining items, and waits up to timeout before returning ErrStopTimeout.
// Stop is idempotent.
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//
//	if err := pool.Start(ctx); err != nil {
//	    return err
//	}
//	defer pool.Stop(5 * time.Second)
//
//	if err := pool.Submit(task); err != nil {
//	    // ErrQueueFull, ErrPoolNotStarted, or ErrPoolStopped
//	}
//
// # Observability
//
// Statistics are always tracked with atomic counters and exposed via Stats().
// Prometheus metrics are opt-in via WithMetricsRegistry(registry, prefix);
// the prefix namespaces the pool's metrics so multiple pools can coexist:
//
//	pool := worker.NewPool[DecodeTask](4, 256, process,
//	    worker.WithMetricsRegistry[DecodeTask](registry, "domainevent_decode"),
//	)
//
// Registered metrics cover queue depth, utilization, submitted, processed,
// failed, dropped, and a processing duration histogram labeled by status.
//
// # Thread Safety
//
// All pool operations are safe for concurrent use. Submit holds only a read
// lock, so concurrent producers do not serialize on the pool's lifecycle
// state.
package worker
