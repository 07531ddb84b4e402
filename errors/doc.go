// Package errors provides standardized error handling patterns for eventscape components.
//
// # Overview
//
// The errors package implements a three-class error classification system for
// the event visualization pipeline: Transient (temporary, retryable), Invalid
// (bad input, non-retryable), and Fatal (unrecoverable, stop processing).
//
// Classification lets components make informed decisions about retries and
// failure recovery without hardcoded error string matching.
//
// # Error Classification
//
// Errors are classified based on their type or content:
//
//   - Transient: Network timeouts, bus disconnects, temporary unavailability (retry recommended)
//   - Invalid: Malformed envelopes, duplicate event IDs, oversized payloads (do not retry)
//   - Fatal: Bad configuration, corrupted state (stop processing)
//
// The classification system integrates with Go's standard error handling,
// supporting errors.Is(), errors.As(), and error wrapping chains.
//
// # Quick Start
//
// Use standard error variables for common conditions:
//
//	if seen.Contains(evt.EventID) {
//	    return errors.ErrDuplicateEvent
//	}
//
// Wrap errors with context for debugging:
//
//	if err := store.Ingest(evt); err != nil {
//	    return errors.Wrap(err, "engine", "tick", "ingest event")
//	}
//
// Check classification for retry logic:
//
//	if err := operation(); err != nil {
//	    if errors.IsTransient(err) {
//	        config := errors.DefaultRetryConfig()
//	        if config.ShouldRetry(err, attempt) {
//	            time.Sleep(config.BackoffDelay(attempt))
//	            // retry operation
//	        }
//	    }
//	}
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// This format enables consistent log parsing and operational monitoring across
// the pipeline. Three wrapper functions provide classification-aware wrapping:
//
//	errors.WrapTransient(err, "Component", "Method", "action")  // For retryable errors
//	errors.WrapInvalid(err, "Component", "Method", "action")    // For validation errors
//	errors.WrapFatal(err, "Component", "Method", "action")      // For unrecoverable errors
//
// The generic Wrap() function preserves the original error's classification.
//
// # Retry Configuration
//
// The package includes built-in retry support with exponential backoff:
//
//	config := errors.DefaultRetryConfig()
//
//	for attempt := 0; attempt < config.MaxRetries; attempt++ {
//	    if err := operation(); err != nil {
//	        if !config.ShouldRetry(err, attempt) {
//	            return err
//	        }
//	        time.Sleep(config.BackoffDelay(attempt))
//	        continue
//	    }
//	    return nil
//	}
//
// ToRetryConfig() converts to the retry package's Config for use with
// retry.Do and friends.
//
// # Thread Safety
//
// All classification and wrapping operations are thread-safe. Error variables
// are immutable and safe for concurrent access.
package errors
