package component

import (
	"encoding/json"
	"time"
)

// Test helpers shared across test files

// mockComponent is a minimal Discoverable implementation for registry and
// schema tests.
type mockComponent struct {
	name          string
	componentType string
	inputPorts    []Port
	outputPorts   []Port
	healthy       bool
}

func newMockComponent(name, componentType string) *mockComponent {
	return &mockComponent{
		name:          name,
		componentType: componentType,
		healthy:       true,
		inputPorts: []Port{
			{
				Name:        "events",
				Direction:   DirectionInput,
				Required:    true,
				Description: "Test input port",
				Config:      NATSPort{Subject: "test.input.event.v1"},
			},
		},
		outputPorts: []Port{
			{
				Name:        "frames",
				Direction:   DirectionOutput,
				Required:    true,
				Description: "Test output port",
				Config:      NATSPort{Subject: "test.output.frame.v1"},
			},
		},
	}
}

func (m *mockComponent) Meta() Metadata {
	return Metadata{
		Name:        m.name,
		Type:        m.componentType,
		Description: "Mock component for testing",
		Version:     "1.0.0",
	}
}

func (m *mockComponent) InputPorts() []Port  { return m.inputPorts }
func (m *mockComponent) OutputPorts() []Port { return m.outputPorts }

func (m *mockComponent) ConfigSchema() ConfigSchema {
	return ConfigSchema{
		Properties: map[string]PropertySchema{
			"subject": {Type: "string", Description: "Subject pattern", Default: "*.*.event.v1"},
		},
		Required: []string{"subject"},
	}
}

func (m *mockComponent) Health() HealthStatus {
	return HealthStatus{
		Healthy:   m.healthy,
		LastCheck: time.Now(),
		Uptime:    time.Hour,
	}
}

func (m *mockComponent) DataFlow() FlowMetrics {
	return FlowMetrics{
		MessagesPerSecond: 10.0,
		BytesPerSecond:    1024.0,
		LastActivity:      time.Now(),
	}
}

// mockFactory builds mockComponent instances from a {"name":..., "type":...}
// raw config.
func mockFactory(rawConfig json.RawMessage, _ Dependencies) (Discoverable, error) {
	cfg := struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}{Name: "mock", Type: "input"}
	if len(rawConfig) > 0 {
		if err := json.Unmarshal(rawConfig, &cfg); err != nil {
			return nil, err
		}
	}
	return newMockComponent(cfg.Name, cfg.Type), nil
}

// intPtr returns a pointer to an int value.
// Used for optional schema fields like Minimum and Maximum.
func intPtr(i int) *int {
	return &i
}
