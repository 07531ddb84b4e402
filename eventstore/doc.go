// Package eventstore maintains the bounded window of recent domain
// events that the visualization engine works from.
//
// The store keeps at most a configured number of events and evicts
// anything older than the retention period. Eviction order is oldest
// first by arrival time, so the window always reflects the most recent
// activity on the bus. Alongside the raw window, the package provides
// running statistics (per-domain and per-type counts, event rates,
// payload sizes) and composable filters used to project subsets of the
// window for display.
package eventstore
