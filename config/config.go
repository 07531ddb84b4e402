package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/c360/eventscape/types"
)

// ComponentConfigs holds component instance configurations.
// The map key is the instance name (e.g., "domainevent-main").
// Components are only created if both:
// 1. Their factory has been registered via init()
// 2. They have an entry in this config map with enabled=true
type ComponentConfigs map[string]types.ComponentConfig

// Config represents the complete application configuration:
// Version (semver), Platform (identity), NATS (connection),
// Services, and Components.
type Config struct {
	Version    string               `json:"version"`
	Platform   PlatformConfig       `json:"platform"`
	NATS       NATSConfig           `json:"nats"`
	Services   types.ServiceConfigs `json:"services"`
	Components ComponentConfigs     `json:"components"`
}

// SafeConfig provides thread-safe access to configuration
type SafeConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewSafeConfig creates a new thread-safe config wrapper
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = &Config{}
	}
	return &SafeConfig{
		config: cfg,
	}
}

// Get returns a deep copy of the current configuration
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Clone()
}

// Update atomically updates the configuration after validation
func (sc *SafeConfig) Update(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg
	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}

	// Use JSON marshaling/unmarshaling for deep copy
	data, err := json.Marshal(c)
	if err != nil {
		copied := *c
		return &copied
	}

	var clone Config
	if err := json.Unmarshal(data, &clone); err != nil {
		copied := *c
		return &copied
	}

	return &clone
}

// PlatformConfig defines platform identity. Org and platform become the
// first two tokens of every NATS subject the system publishes or
// subscribes, including the frame subject.
type PlatformConfig struct {
	Org string `json:"org"` // Organization namespace (e.g., "c360", "acme")
	ID  string `json:"id"`  // Platform identifier (e.g., "platform1")

	// Federation support for multi-platform deployments
	InstanceID  string `json:"instance_id,omitempty"` // e.g., "west-1", "dev-local"
	Environment string `json:"environment,omitempty"` // "prod", "dev", "test"
}

// NATSConfig defines NATS connection settings
type NATSConfig struct {
	URLs          []string        `json:"urls,omitempty"`
	MaxReconnects int             `json:"max_reconnects,omitempty"`
	ReconnectWait time.Duration   `json:"reconnect_wait,omitempty"`
	Username      string          `json:"username,omitempty"`
	Password      string          `json:"password,omitempty"`
	Token         string          `json:"token,omitempty"`
	JetStream     JetStreamConfig `json:"jetstream,omitempty"`
}

// JetStreamConfig for JetStream settings
type JetStreamConfig struct {
	Enabled         bool   `json:"enabled"`
	Domain          string `json:"domain,omitempty"`
	MaxMemory       int64  `json:"max_memory,omitempty"`
	MaxFileStore    int64  `json:"max_file_store,omitempty"`
	RetentionPolicy string `json:"retention_policy,omitempty"`
}

// Validate checks if the config is valid
func (c *Config) Validate() error {
	if c.Platform.Org == "" {
		return errors.New("platform.org is required")
	}

	// Normalize org to lowercase
	c.Platform.Org = strings.ToLower(c.Platform.Org)

	if !isValidNATSSubjectPart(c.Platform.Org) {
		return fmt.Errorf(
			"platform.org '%s' is not valid for NATS subjects (must be alphanumeric with dots, dashes, underscores)",
			c.Platform.Org,
		)
	}

	if c.Platform.ID == "" {
		return errors.New("platform.id is required")
	}

	for instanceName, config := range c.Components {
		if instanceName == "" {
			return errors.New("component instance name cannot be empty")
		}
		if err := config.Validate(); err != nil {
			return fmt.Errorf("component %s: %w", instanceName, err)
		}
	}

	return nil
}

// isValidNATSSubjectPart checks if a string is valid for use in NATS subjects.
// Valid characters are alphanumeric, dots, dashes, and underscores.
func isValidNATSSubjectPart(s string) bool {
	if len(s) == 0 {
		return false
	}

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) &&
			r != '-' && r != '_' && r != '.' {
			return false
		}
	}
	return true
}

// Loader handles configuration loading with layers and overrides
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		layers:     []string{},
		validation: false,
		envPrefix:  "EVENTSCAPE",
	}
}

// AddLayer adds a configuration file layer
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables configuration validation
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads configuration from a single file
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load loads and merges all configuration layers
func (l *Loader) Load() (*Config, error) {
	// Start with defaults
	cfg := l.getDefaults()

	// Load each layer and merge using map-based approach
	for _, path := range l.layers {
		rawConfig, err := l.loadRawJSON(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		cfg = l.mergeFromMap(cfg, rawConfig)
	}

	// Apply environment overrides
	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	// Validate if enabled
	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// getDefaults returns default configuration: a local single-platform
// deployment with the full ingest-engine-broadcast pipeline enabled.
func (l *Loader) getDefaults() *Config {
	return &Config{
		Platform: PlatformConfig{
			Org:         "local",
			ID:          "dev",
			Environment: "dev",
		},
		NATS: NATSConfig{
			URLs:          []string{"nats://localhost:4222"},
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
			JetStream: JetStreamConfig{
				Enabled: false,
			},
		},
		Components: ComponentConfigs{
			"domainevent": types.ComponentConfig{
				Type:    types.ComponentTypeInput,
				Name:    "domainevent",
				Enabled: true,
				Config:  json.RawMessage(`{}`),
			},
			"engine": types.ComponentConfig{
				Type:    types.ComponentTypeProcessor,
				Name:    "engine",
				Enabled: true,
				Config:  json.RawMessage(`{}`),
			},
			"websocket": types.ComponentConfig{
				Type:    types.ComponentTypeOutput,
				Name:    "websocket",
				Enabled: true,
				Config:  json.RawMessage(`{}`),
			},
		},
	}
}

// loadRawJSON loads configuration from a JSON file as a map
func (l *Loader) loadRawJSON(path string) (map[string]any, error) {
	// Use secure file reading with validation
	data, err := safeReadFile(path)
	if err != nil {
		return nil, err
	}

	// Validate JSON depth to prevent DoS
	if err := validateJSONDepth(data); err != nil {
		return nil, fmt.Errorf("invalid JSON structure: %w", err)
	}

	// Unmarshal into map
	var rawConfig map[string]any
	if err := json.Unmarshal(data, &rawConfig); err != nil {
		return nil, err
	}

	// Convert duration strings
	l.parseDurations(rawConfig)

	return rawConfig, nil
}

// mergeFromMap merges configuration from a raw map, only overriding fields present in the map
func (l *Loader) mergeFromMap(base *Config, override map[string]any) *Config {
	if override == nil {
		return base
	}

	// Marshal the base config to JSON then to map
	baseJSON, err := json.Marshal(base)
	if err != nil {
		return base
	}

	var baseMap map[string]any
	if err := json.Unmarshal(baseJSON, &baseMap); err != nil {
		return base
	}

	// Deep merge the maps
	mergedMap := l.deepMergeMaps(baseMap, override)

	// Convert back to Config
	mergedJSON, err := json.Marshal(mergedMap)
	if err != nil {
		return base
	}

	var merged Config
	if err := json.Unmarshal(mergedJSON, &merged); err != nil {
		return base
	}

	return &merged
}

// deepMergeMaps recursively merges two maps, with override taking precedence
func (l *Loader) deepMergeMaps(base, override map[string]any) map[string]any {
	result := make(map[string]any)

	// Copy base values
	for k, v := range base {
		result[k] = v
	}

	// Override with values from override map
	for k, v := range override {
		if v == nil {
			continue
		}

		// If both base and override have maps at this key, merge them
		if baseMap, baseOk := base[k].(map[string]any); baseOk {
			if overrideMap, overrideOk := v.(map[string]any); overrideOk {
				result[k] = l.deepMergeMaps(baseMap, overrideMap)
				continue
			}
		}

		// Otherwise, override takes precedence
		result[k] = v
	}

	return result
}

// parseDurations converts duration strings to nanoseconds for json unmarshaling
func (l *Loader) parseDurations(data map[string]any) {
	if nats, ok := data["nats"].(map[string]any); ok {
		if wait, ok := nats["reconnect_wait"].(string); ok {
			if d, err := time.ParseDuration(wait); err == nil {
				nats["reconnect_wait"] = d.Nanoseconds()
			}
		}
	}
}

// applyEnvOverrides applies environment variable overrides
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	overrides := []struct {
		key   string
		apply func(string)
	}{
		{"_PLATFORM_ORG", func(v string) { cfg.Platform.Org = v }},
		{"_PLATFORM_ID", func(v string) { cfg.Platform.ID = v }},
		{"_PLATFORM_ENV", func(v string) { cfg.Platform.Environment = v }},
		{"_NATS_URLS", func(v string) { cfg.NATS.URLs = strings.Split(v, ",") }},
		{"_NATS_USERNAME", func(v string) { cfg.NATS.Username = v }},
		{"_NATS_PASSWORD", func(v string) { cfg.NATS.Password = v }},
		{"_NATS_TOKEN", func(v string) { cfg.NATS.Token = v }},
	}

	for _, o := range overrides {
		key := l.envPrefix + o.key
		val := os.Getenv(key)
		if val == "" {
			continue
		}
		if err := validateEnvVar(key, val); err != nil {
			return err
		}
		o.apply(val)
	}
	return nil
}

// SaveToFile saves the configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	// Use secure file writing with validation
	return safeWriteFile(path, data)
}

// GetOrg returns the organization from platform config
func (c *Config) GetOrg() string {
	return c.Platform.Org
}

// GetPlatform returns the platform identifier (prefer instance_id over id)
func (c *Config) GetPlatform() string {
	if c.Platform.InstanceID != "" {
		return c.Platform.InstanceID
	}
	return c.Platform.ID
}

// FrameSubject returns the NATS subject the engine publishes frames on
// for this platform.
func (c *Config) FrameSubject() string {
	return fmt.Sprintf("%s.%s.eventscape.frame.v1", c.GetOrg(), c.GetPlatform())
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// UnmarshalJSON implements custom JSON unmarshaling for Config so that
// nats.reconnect_wait accepts both duration strings and nanoseconds.
func (c *Config) UnmarshalJSON(data []byte) error {
	type Alias Config
	aux := &struct {
		NATS struct {
			URLs          []string        `json:"urls"`
			MaxReconnects int             `json:"max_reconnects"`
			ReconnectWait any             `json:"reconnect_wait"`
			Username      string          `json:"username,omitempty"`
			Password      string          `json:"password,omitempty"`
			Token         string          `json:"token,omitempty"`
			JetStream     JetStreamConfig `json:"jetstream"`
		} `json:"nats"`
		*Alias
	}{
		Alias: (*Alias)(c),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	c.NATS.URLs = aux.NATS.URLs
	c.NATS.MaxReconnects = aux.NATS.MaxReconnects
	c.NATS.Username = aux.NATS.Username
	c.NATS.Password = aux.NATS.Password
	c.NATS.Token = aux.NATS.Token
	c.NATS.JetStream = aux.NATS.JetStream

	switch v := aux.NATS.ReconnectWait.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		c.NATS.ReconnectWait = d
	case float64:
		c.NATS.ReconnectWait = time.Duration(v)
	}

	return nil
}
