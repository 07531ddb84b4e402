package service

import "slices"

// ComponentManagerConfig configures the ComponentManager service
// Simple struct - no UnmarshalJSON, no Enabled field
type ComponentManagerConfig struct {
	EnabledComponents []string `json:"enabled_components"` // Instance names to allow; empty = all
}

// Validate checks if the configuration is valid
func (c ComponentManagerConfig) Validate() error {
	// Component names are validated when components are created.
	// EnabledComponents can be empty (all components enabled).
	return nil
}

// componentEnabled reports whether an instance passes the allow-list.
func (c ComponentManagerConfig) componentEnabled(name string) bool {
	if len(c.EnabledComponents) == 0 {
		return true
	}
	return slices.Contains(c.EnabledComponents, name)
}
