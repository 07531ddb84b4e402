// Package health provides health monitoring for eventscape components and
// systems with thread-safe status tracking and aggregation.
//
// The health package tracks the health status of individual components and
// aggregates system-wide health information for monitoring and operational
// visibility.
//
// # Health States
//
// The package supports three health states:
//   - Healthy: component operating normally
//   - Degraded: component operating with reduced functionality
//   - Unhealthy: component not functioning properly
//
// # Core Components
//
// Status: Individual component health state containing status level,
// descriptive message, timestamp, optional metrics, and hierarchical
// sub-statuses.
//
// Monitor: Thread-safe centralized tracking for multiple component health
// statuses with concurrent read/write access and automatic timestamp
// management.
//
// # Basic Usage
//
// Creating and tracking component health:
//
//	monitor := health.NewMonitor()
//
//	monitor.UpdateHealthy("domainevent", "Subscribed to event subjects")
//	monitor.UpdateDegraded("engine", "Ingest queue near capacity")
//	monitor.UpdateUnhealthy("websocket", "Listener failed to bind")
//
//	if status, exists := monitor.Get("engine"); exists && status.IsHealthy() {
//	    log.Println("Engine is healthy")
//	}
//
// # System-Wide Aggregation
//
// Aggregation rules: any unhealthy sub-status makes the aggregate unhealthy;
// otherwise any degraded sub-status makes it degraded; otherwise healthy.
//
//	systemHealth := monitor.AggregateHealth("eventscape")
//
// Tick-driven components report health every tick. AggregateWithMaxAge
// downgrades healthy statuses that have not been refreshed within the given
// window, surfacing a stalled tick loop as degraded:
//
//	systemHealth := monitor.AggregateWithMaxAge("eventscape", 10*time.Second)
//
// # Sanitization
//
// Error messages converted from component health via FromComponentHealth are
// sanitized before exposure: URLs, file paths, IP addresses, ports, and
// credential-looking fragments are replaced with placeholders so health
// endpoints do not leak deployment details.
package health
