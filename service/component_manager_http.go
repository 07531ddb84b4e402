package service

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/c360/eventscape/engine"
	"github.com/c360/eventscape/eventstore"
	"github.com/c360/eventscape/health"
	"github.com/c360/eventscape/layout"
)

// Ensure ComponentManager implements HTTPHandler interface
var _ HTTPHandler = (*ComponentManager)(nil)

// renderEngine is the view of the layout engine the HTTP API needs.
// Matched by type assertion against managed processor components.
type renderEngine interface {
	Snapshot() engine.Frame
	SnapshotFiltered(f eventstore.Filter) engine.Frame
	AltLayout(algo layout.Algorithm) (engine.Frame, error)
	Stats() eventstore.Snapshot
	Pause()
	Resume()
	Paused() bool
}

// extractComponentName safely extracts and validates a component name from the URL path
func extractComponentName(path string) (string, bool) {
	path = strings.TrimSuffix(path, "/")

	parts := strings.Split(path, "/")
	if len(parts) < 2 {
		return "", false
	}

	name := parts[len(parts)-1]

	if name == "" || name == "." || name == ".." {
		return "", false
	}

	decoded, err := url.QueryUnescape(name)
	if err != nil {
		return "", false
	}

	// Check for path traversal attempts
	if strings.Contains(decoded, "/") || strings.Contains(decoded, "\\") {
		return "", false
	}

	return decoded, true
}

// RegisterHTTPHandlers registers HTTP endpoints for the ComponentManager service
func (cm *ComponentManager) RegisterHTTPHandlers(prefix string, mux *http.ServeMux) {
	if !strings.HasSuffix(prefix, "/") {
		prefix = prefix + "/"
	}

	cm.logger.Info("ComponentManager HTTP handlers registered", "prefix", prefix)

	// Component endpoints
	mux.HandleFunc(prefix+"health", cm.handleComponentsHealth)
	mux.HandleFunc(prefix+"components/", cm.handleComponentStatus)
	mux.HandleFunc(prefix+"components", cm.handleComponentsList)

	// Render endpoints backed by the layout engine
	mux.HandleFunc(prefix+"frame", cm.handleFrame)
	mux.HandleFunc(prefix+"stats", cm.handleStats)
	mux.HandleFunc(prefix+"layout", cm.handleLayout)
	mux.HandleFunc(prefix+"pause", cm.handlePause)
	mux.HandleFunc(prefix+"resume", cm.handleResume)
}

// findRenderEngine locates the managed component that drives the layout
// simulation. Returns nil when no engine component is configured.
func (cm *ComponentManager) findRenderEngine() renderEngine {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	for _, mc := range cm.components {
		if eng, ok := mc.Component.(renderEngine); ok {
			return eng
		}
	}
	return nil
}

// handleComponentsHealth returns aggregated health for all managed components
func (cm *ComponentManager) handleComponentsHealth(w http.ResponseWriter, _ *http.Request) {
	componentHealth := cm.GetComponentHealth()

	var statuses []health.Status
	for name, h := range componentHealth {
		if h.Healthy {
			statuses = append(statuses, health.NewHealthy(name, "Component operating normally"))
		} else {
			statuses = append(statuses, health.NewUnhealthy(name, h.LastError))
		}
	}

	response := struct {
		Overall    health.Status   `json:"overall"`
		Components []health.Status `json:"components"`
	}{
		Overall:    health.Aggregate("components", statuses),
		Components: statuses,
	}

	w.Header().Set("Content-Type", "application/json")
	if response.Overall.IsUnhealthy() {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		cm.logger.Error("Failed to encode components health response", "error", err)
	}
}

// handleComponentsList returns all managed components with state
func (cm *ComponentManager) handleComponentsList(w http.ResponseWriter, _ *http.Request) {
	statuses := cm.GetComponentStatus()

	components := make([]ComponentStatus, 0, len(statuses))
	for _, status := range statuses {
		components = append(components, status)
	}

	response := map[string]any{
		"components": components,
		"count":      len(components),
	}

	writeJSON(cm, w, response)
}

// handleComponentStatus returns detailed status for one component
func (cm *ComponentManager) handleComponentStatus(w http.ResponseWriter, r *http.Request) {
	name, ok := extractComponentName(r.URL.Path)
	if !ok {
		http.Error(w, "invalid component name", http.StatusBadRequest)
		return
	}

	statuses := cm.GetComponentStatus()
	status, exists := statuses[name]
	if !exists {
		http.Error(w, "component not found", http.StatusNotFound)
		return
	}

	writeJSON(cm, w, status)
}

// handleFrame returns the current frame, optionally filtered by query
// parameters: preset, domain, type, contains, window, correlated, q.
func (cm *ComponentManager) handleFrame(w http.ResponseWriter, r *http.Request) {
	eng := cm.findRenderEngine()
	if eng == nil {
		http.Error(w, "no engine component configured", http.StatusServiceUnavailable)
		return
	}

	filter, filtered, err := filterFromQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var frame engine.Frame
	if filtered {
		frame = eng.SnapshotFiltered(filter)
	} else {
		frame = eng.Snapshot()
	}

	writeJSON(cm, w, frame)
}

// filterFromQuery builds an event filter from URL query parameters.
// The preset parameter seeds the filter; explicit parameters override.
func filterFromQuery(q url.Values) (eventstore.Filter, bool, error) {
	var filter eventstore.Filter
	filtered := false

	if preset := q.Get("preset"); preset != "" {
		f, err := eventstore.FilterPreset(preset)
		if err != nil {
			return eventstore.Filter{}, false, err
		}
		filter = f
		filtered = true
	}

	if domains := q.Get("domain"); domains != "" {
		filter.Domains = strings.Split(domains, ",")
		filtered = true
	}
	if eventTypes := q.Get("type"); eventTypes != "" {
		filter.EventTypes = strings.Split(eventTypes, ",")
		filtered = true
	}
	if contains := q.Get("contains"); contains != "" {
		filter.EventTypeContains = strings.Split(contains, ",")
		filtered = true
	}
	if window := q.Get("window"); window != "" {
		d, err := time.ParseDuration(window)
		if err != nil {
			return eventstore.Filter{}, false, err
		}
		filter.Window = d
		filtered = true
	}
	if correlated := q.Get("correlated"); correlated == "true" {
		filter.OnlyCorrelated = true
		filtered = true
	}
	if query := q.Get("q"); query != "" {
		filter.Query = query
		filtered = true
	}

	return filter, filtered, nil
}

// handleStats returns event statistics from the engine's store
func (cm *ComponentManager) handleStats(w http.ResponseWriter, _ *http.Request) {
	eng := cm.findRenderEngine()
	if eng == nil {
		http.Error(w, "no engine component configured", http.StatusServiceUnavailable)
		return
	}

	writeJSON(cm, w, eng.Stats())
}

// handleLayout returns a one-shot alternative arrangement of the current
// graph without disturbing the running simulation.
func (cm *ComponentManager) handleLayout(w http.ResponseWriter, r *http.Request) {
	eng := cm.findRenderEngine()
	if eng == nil {
		http.Error(w, "no engine component configured", http.StatusServiceUnavailable)
		return
	}

	algo := layout.Algorithm(r.URL.Query().Get("algo"))
	if algo == "" {
		http.Error(w, "algo query parameter is required", http.StatusBadRequest)
		return
	}

	frame, err := eng.AltLayout(algo)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(cm, w, frame)
}

// handlePause stops event intake while the simulation keeps ticking
func (cm *ComponentManager) handlePause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	eng := cm.findRenderEngine()
	if eng == nil {
		http.Error(w, "no engine component configured", http.StatusServiceUnavailable)
		return
	}

	eng.Pause()
	writeJSON(cm, w, map[string]bool{"paused": true})
}

// handleResume resumes event intake after a pause
func (cm *ComponentManager) handleResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	eng := cm.findRenderEngine()
	if eng == nil {
		http.Error(w, "no engine component configured", http.StatusServiceUnavailable)
		return
	}

	eng.Resume()
	writeJSON(cm, w, map[string]bool{"paused": false})
}

// writeJSON writes a JSON response with the standard header
func writeJSON(cm *ComponentManager, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		cm.logger.Error("Failed to encode response", "error", err)
	}
}

// OpenAPISpec returns the OpenAPI specification for ComponentManager endpoints
func (cm *ComponentManager) OpenAPISpec() *OpenAPISpec {
	return &OpenAPISpec{
		Paths: map[string]PathSpec{
			"/health": {
				GET: &OperationSpec{
					Summary:     "Get component health status",
					Description: "Returns aggregated health status for all managed components",
					Tags:        []string{"Components"},
					Responses: map[string]ResponseSpec{
						"200": {
							Description: "Component health information",
							ContentType: "application/json",
						},
					},
				},
			},
			"/components": {
				GET: &OperationSpec{
					Summary:     "List all components",
					Description: "Returns all managed components with lifecycle state and flow metrics",
					Tags:        []string{"Components"},
					Responses: map[string]ResponseSpec{
						"200": {
							Description: "List of components",
							ContentType: "application/json",
						},
					},
				},
			},
			"/components/{name}": {
				GET: &OperationSpec{
					Summary:     "Get component status",
					Description: "Returns detailed status for a specific component",
					Tags:        []string{"Components"},
					Parameters: []ParameterSpec{
						{
							Name:        "name",
							In:          "path",
							Required:    true,
							Description: "Component instance name",
							Schema:      Schema{Type: "string"},
						},
					},
					Responses: map[string]ResponseSpec{
						"200": {
							Description: "Component status",
							ContentType: "application/json",
						},
						"404": {
							Description: "Component not found",
						},
					},
				},
			},
			"/frame": {
				GET: &OperationSpec{
					Summary:     "Get the current layout frame",
					Description: "Returns the latest frame, optionally filtered by domain, type, window, or preset",
					Tags:        []string{"Render"},
					Parameters: []ParameterSpec{
						{
							Name:        "preset",
							In:          "query",
							Description: "Canned filter: high-traffic, errors-only, correlated, recent",
							Schema:      Schema{Type: "string"},
						},
						{
							Name:        "domain",
							In:          "query",
							Description: "Comma-separated list of domains",
							Schema:      Schema{Type: "string"},
						},
						{
							Name:        "window",
							In:          "query",
							Description: "Duration such as 30s or 5m",
							Schema:      Schema{Type: "string"},
						},
					},
					Responses: map[string]ResponseSpec{
						"200": {
							Description: "Frame with nodes and edges",
							ContentType: "application/json",
						},
					},
				},
			},
			"/stats": {
				GET: &OperationSpec{
					Summary:     "Get event statistics",
					Description: "Returns event counts, rates, and correlation chain statistics",
					Tags:        []string{"Render"},
					Responses: map[string]ResponseSpec{
						"200": {
							Description: "Event statistics",
							ContentType: "application/json",
						},
					},
				},
			},
			"/layout": {
				GET: &OperationSpec{
					Summary:     "Get an alternative arrangement",
					Description: "Projects the current graph through a named layout algorithm without disturbing the simulation",
					Tags:        []string{"Render"},
					Parameters: []ParameterSpec{
						{
							Name:        "algo",
							In:          "query",
							Required:    true,
							Description: "Layout algorithm: circular, grid, hierarchical, random",
							Schema:      Schema{Type: "string"},
						},
					},
					Responses: map[string]ResponseSpec{
						"200": {
							Description: "Frame with projected positions",
							ContentType: "application/json",
						},
						"400": {
							Description: "Unknown algorithm",
						},
					},
				},
			},
			"/pause": {
				POST: &OperationSpec{
					Summary:     "Pause event intake",
					Description: "Stops draining and eviction; the simulation keeps ticking",
					Tags:        []string{"Render"},
					Responses: map[string]ResponseSpec{
						"200": {
							Description: "Paused",
							ContentType: "application/json",
						},
					},
				},
			},
			"/resume": {
				POST: &OperationSpec{
					Summary:     "Resume event intake",
					Description: "Resumes draining and eviction after a pause",
					Tags:        []string{"Render"},
					Responses: map[string]ResponseSpec{
						"200": {
							Description: "Resumed",
							ContentType: "application/json",
						},
					},
				},
			},
		},
	}
}
