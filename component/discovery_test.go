package component

import (
	"encoding/json"
	"testing"
	"time"
)

// TestPropertySchemaCategorySerialization verifies Category round-trips through
// JSON for the admin API, and that omitempty drops it when unset.
func TestPropertySchemaCategorySerialization(t *testing.T) {
	testCases := []struct {
		name     string
		schema   PropertySchema
		expected string
	}{
		{
			name: "tick interval is basic",
			schema: PropertySchema{
				Type:        "int",
				Description: "Layout tick interval in milliseconds",
				Category:    "basic",
			},
			expected: `{"type":"int","description":"Layout tick interval in milliseconds","category":"basic"}`,
		},
		{
			name: "spring constant is advanced",
			schema: PropertySchema{
				Type:        "float",
				Description: "Spring force constant for the layout",
				Category:    "advanced",
			},
			expected: `{"type":"float","description":"Spring force constant for the layout","category":"advanced"}`,
		},
		{
			name: "uncategorized omits field",
			schema: PropertySchema{
				Type:        "bool",
				Description: "Enable JetStream replay",
				Category:    "",
			},
			expected: `{"type":"bool","description":"Enable JetStream replay"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			jsonData, err := json.Marshal(tc.schema)
			if err != nil {
				t.Fatalf("Failed to marshal: %v", err)
			}

			if string(jsonData) != tc.expected {
				t.Errorf("Expected JSON:\n%s\nGot:\n%s", tc.expected, string(jsonData))
			}

			var unmarshaled PropertySchema
			if err := json.Unmarshal(jsonData, &unmarshaled); err != nil {
				t.Fatalf("Failed to unmarshal: %v", err)
			}

			if unmarshaled.Category != tc.schema.Category {
				t.Errorf("Expected Category %q, got %q", tc.schema.Category, unmarshaled.Category)
			}
		})
	}
}

// TestPropertySchemaBackwardCompatibility ensures configs written before the
// Category field existed still parse.
func TestPropertySchemaBackwardCompatibility(t *testing.T) {
	oldJSON := `{"type":"string","description":"Frame subject","default":"*.*.eventscape.frame.v1"}`

	var schema PropertySchema
	if err := json.Unmarshal([]byte(oldJSON), &schema); err != nil {
		t.Fatalf("Failed to unmarshal old format: %v", err)
	}

	if schema.Category != "" {
		t.Errorf("Expected empty Category for old format, got %q", schema.Category)
	}

	if schema.Type != "string" {
		t.Errorf("Expected Type string, got %q", schema.Type)
	}

	if schema.Description != "Frame subject" {
		t.Errorf("Expected Description 'Frame subject', got %q", schema.Description)
	}
}

// TestHealthStatusSerialization verifies the health payload the admin API
// serves for each component.
func TestHealthStatusSerialization(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	status := HealthStatus{
		Healthy:    false,
		LastCheck:  now,
		ErrorCount: 3,
		LastError:  "NATS connection lost",
		Uptime:     90 * time.Second,
	}

	jsonData, err := json.Marshal(status)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var decoded HealthStatus
	if err := json.Unmarshal(jsonData, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if decoded.Healthy {
		t.Error("Expected Healthy=false after round trip")
	}
	if decoded.ErrorCount != 3 {
		t.Errorf("Expected ErrorCount 3, got %d", decoded.ErrorCount)
	}
	if decoded.LastError != "NATS connection lost" {
		t.Errorf("Expected LastError preserved, got %q", decoded.LastError)
	}
	if decoded.Uptime != 90*time.Second {
		t.Errorf("Expected Uptime 90s, got %v", decoded.Uptime)
	}
}
