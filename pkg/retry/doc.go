// Package retry provides simple exponential backoff retry logic for transient failures.
//
// # Overview
//
// This package offers a minimal retry mechanism with exponential backoff, designed to
// handle transient failures in bus connections, stream provisioning, and component
// startup.
//
// # Core Functions
//
//   - Do: Execute function with retry and exponential backoff
//   - DoWithResult: Execute function with retry, returns both result and error
//
// # Configuration Presets
//
//   - DefaultConfig(): 3 attempts, 100ms-5s delay (normal operations)
//   - Quick(): 10 attempts, 50ms-1s delay (component startup)
//   - Persistent(): 30 attempts, 200ms-10s delay (critical resources)
//
// # Usage Examples
//
// Basic retry with defaults:
//
//	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
//	    return client.Connect()
//	})
//
// Retry with result:
//
//	stream, err := retry.DoWithResult(ctx, retry.Quick(), func() (jetstream.Stream, error) {
//	    return js.Stream(ctx, streamName)
//	})
//
// # Context Cancellation
//
// All retry operations respect context cancellation and stop retrying immediately
// when the context is cancelled, either during operation execution or during the
// backoff delay.
//
// # Thread Safety
//
// All functions are safe for concurrent use.
package retry
