// Package service provides service lifecycle management, HTTP server coordination,
// and component orchestration for the eventscape platform.
//
// The package is built around a small set of cooperating types:
//
// BaseService: Foundation for all services with standardized lifecycle management:
//   - Lifecycle states: Stopped → Starting → Running → Stopping
//   - Health monitoring with periodic checks
//   - Metrics integration with the shared registry
//   - Context-based cancellation and graceful shutdown
//
// Manager: Central orchestration of HTTP server and service lifecycle:
//   - HTTP server management with graceful shutdown
//   - Service registration and dependency injection
//   - Two-phase HTTP initialization (system endpoints → service endpoints)
//   - Health aggregation across all services
//   - OpenAPI documentation aggregation
//
// ComponentManager: Component lifecycle management:
//   - Component instantiation from registry factories
//   - Phase-ordered startup (outputs before processors before inputs)
//   - Event source wiring between input components and the layout engine
//   - Health monitoring of managed components
//   - HTTP API for frame snapshots, stats, alternative layouts, and pause control
//
// # Service Patterns
//
// All services follow the standard constructor pattern:
//
//	func NewMyService(rawConfig json.RawMessage, deps *Dependencies) (Service, error) {
//	    var cfg MyConfig
//	    if len(rawConfig) > 0 {
//	        if err := json.Unmarshal(rawConfig, &cfg); err != nil {
//	            return nil, fmt.Errorf("parse config: %w", err)
//	        }
//	    }
//	    base := NewBaseServiceWithOptions("my-service", nil,
//	        WithLogger(deps.Logger),
//	        WithMetrics(deps.MetricsRegistry))
//	    return &MyService{BaseService: base, config: cfg}, nil
//	}
//
// Services that expose HTTP endpoints implement HTTPHandler; Manager mounts
// them under a per-service prefix and merges their OpenAPI fragments into a
// single document served at /openapi.json.
//
// # HTTP Server Management
//
// Manager coordinates HTTP server lifecycle with two-phase initialization:
//
//  1. Early Phase (initializeHTTPInfrastructure):
//     - System endpoints registered: /health, /healthz, /readyz, /services
//     - HTTP server created but not started
//
//  2. Late Phase (completeHTTPSetup):
//     - Service endpoints registered after services start
//     - OpenAPI documentation aggregated
//     - HTTP server starts listening
//
// This prevents race conditions and ensures system endpoints are available
// before service-specific endpoints.
//
// # Graceful Shutdown
//
// Manager coordinates graceful shutdown in reverse registration order, then
// shuts down the HTTP server with a timeout. ComponentManager stops its
// components in reverse start order so inputs quiesce before the engine and
// the outputs drain last.
//
// # Security Considerations
//
// The service HTTP APIs are designed for internal edge deployment:
//   - No built-in authentication (add reverse proxy for production)
//   - No rate limiting (implement at gateway level)
//   - Path traversal protection on component endpoints
//   - Input validation on all HTTP handlers
package service
