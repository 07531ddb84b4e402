// Package cache provides a thread-safe TTL cache with built-in statistics
// tracking and optional Prometheus metrics integration.
//
// # Overview
//
// Entries expire after a fixed time-to-live. Expired entries are removed by a
// background cleanup goroutine and eagerly on access. The implementation is
// generic, thread-safe, and observable through always-on statistics plus
// optional metrics.
//
// The primary consumer is duplicate suppression: remembering recently seen
// event IDs for a bounded window so replays and redeliveries can be skipped
// without the memory growing forever.
//
// # Quick Start
//
//	cache, err := cache.NewTTL[struct{}](ctx, 60*time.Second, 30*time.Second)
//	if err != nil {
//		return err
//	}
//	defer cache.Close()
//
//	if _, seen := cache.Get(eventID); seen {
//		return nil // duplicate
//	}
//	cache.Set(eventID, struct{}{})
//
// With metrics and an eviction callback:
//
//	cache, err := cache.NewTTL[string](ctx, time.Minute, 30*time.Second,
//		cache.WithMetrics[string](registry, "dedupe"),
//		cache.WithEvictionCallback[string](func(key, value string) {
//			log.Debug("expired", "key", key)
//		}),
//	)
//
// # Config-Driven Construction
//
// NewFromConfig builds a cache from a JSON-friendly Config. Durations accept
// both strings ("60s", "5m") and integer nanoseconds. A disabled config
// yields a no-op cache so callers need no conditional logic:
//
//	cfg := cache.Config{Enabled: true, TTL: time.Minute, CleanupInterval: 30 * time.Second}
//	c, err := cache.NewFromConfig[struct{}](ctx, cfg)
//
// # Lifecycle
//
// The cleanup goroutine exits when the constructor's context is cancelled or
// when Close is called. Close is idempotent and waits briefly for the cleanup
// goroutine to stop.
//
// # Observability
//
// Statistics (hits, misses, sets, deletes, evictions, size, hit ratio) are
// always collected and available via Stats(). WithMetrics additionally
// publishes them as Prometheus metrics labeled by component.
package cache
