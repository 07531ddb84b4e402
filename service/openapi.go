package service

import "net/http"

// HTTPHandler is implemented by services that expose HTTP endpoints.
// The manager mounts each handler under a per-service prefix and
// merges its OpenAPISpec into the /openapi.json document.
type HTTPHandler interface {
	RegisterHTTPHandlers(prefix string, mux *http.ServeMux)
	OpenAPISpec() *OpenAPISpec
}

// OpenAPIDocument is the merged OpenAPI 3.0 document served at
// /openapi.json, assembled from every HTTP service's fragment.
type OpenAPIDocument struct {
	OpenAPI string              `json:"openapi"`
	Info    InfoSpec            `json:"info"`
	Servers []ServerSpec        `json:"servers"`
	Paths   map[string]PathSpec `json:"paths"`
	Tags    []TagSpec           `json:"tags,omitempty"`
}
