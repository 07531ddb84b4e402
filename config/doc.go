// Package config provides configuration management for eventscape.
//
// This package handles loading and validation of application
// configuration from JSON files and environment variables.
//
// # Core Components
//
// Config: Main configuration structure containing platform identity,
// NATS connection details, service configurations, and component
// definitions.
//
// SafeConfig: Thread-safe wrapper using RWMutex and deep cloning to prevent
// concurrent access issues and accidental mutations.
//
// Loader: Loads configuration with layer merging (base + overrides) and
// environment variable substitution for flexible deployment scenarios.
//
// # Basic Usage
//
// Loading configuration from files with layer merging:
//
//	loader := config.NewLoader()
//	loader.AddLayer("config/base.json")
//	loader.AddLayer("config/production.json") // Overrides base
//	loader.EnableValidation(true)
//
//	cfg, err := loader.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Environment Variable Overrides
//
// Configuration values can be overridden using environment variables:
//
//	# Override platform identity
//	export EVENTSCAPE_PLATFORM_ORG="acme"
//	export EVENTSCAPE_PLATFORM_ID="prod-cluster-01"
//
//	# Override NATS URLs (comma-separated)
//	export EVENTSCAPE_NATS_URLS="nats://server1:4222,nats://server2:4222"
//
// # Layer Merging
//
// Configuration layers are merged with last-wins semantics:
//
//	base.json:
//	  {"platform": {"org": "local", "id": "dev"}}
//
//	production.json:
//	  {"platform": {"id": "prod"}}
//
//	Result:
//	  {"platform": {"org": "local", "id": "prod"}}
//
// # Security
//
// The package includes security validation:
//   - File size limits (10MB max) to prevent memory exhaustion
//   - JSON depth validation (100 levels max) to prevent DoS attacks
//   - Path validation to prevent directory traversal
//   - Regular file checks (no symlinks or device files)
package config
