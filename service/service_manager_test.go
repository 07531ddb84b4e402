package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/eventscape/types"
)

func TestManagerConfigValidate(t *testing.T) {
	assert.NoError(t, ManagerConfig{HTTPPort: 8080}.Validate())
	assert.Error(t, ManagerConfig{HTTPPort: -1}.Validate())
	assert.Error(t, ManagerConfig{HTTPPort: 70000}.Validate())
}

func TestConfigureFromServicesDefaults(t *testing.T) {
	m := NewServiceManager(NewServiceRegistry())
	require.NoError(t, m.ConfigureFromServices(nil, nil))

	assert.Equal(t, 8080, m.config.HTTPPort)
	assert.False(t, m.config.SwaggerUI)
	assert.Equal(t, "Eventscape API", m.config.ServerInfo.Title)
	assert.True(t, m.isHTTPManager)
}

func TestConfigureFromServicesExplicit(t *testing.T) {
	m := NewServiceManager(NewServiceRegistry())

	services := map[string]types.ServiceConfig{
		"service-manager": {
			Enabled: true,
			Config:  json.RawMessage(`{"http_port": 9090, "swagger_ui": true}`),
		},
	}
	require.NoError(t, m.ConfigureFromServices(services, nil))

	assert.Equal(t, 9090, m.config.HTTPPort)
	assert.True(t, m.config.SwaggerUI)
	assert.Equal(t, "1.0.0", m.config.ServerInfo.Version, "unset fields fall back to defaults")
}

func TestConfigureFromServicesRejectsBadPort(t *testing.T) {
	m := NewServiceManager(NewServiceRegistry())

	services := map[string]types.ServiceConfig{
		"service-manager": {
			Enabled: true,
			Config:  json.RawMessage(`{"http_port": 99999}`),
		},
	}
	assert.Error(t, m.ConfigureFromServices(services, nil))
}

func TestServiceNameToPrefix(t *testing.T) {
	m := NewServiceManager(NewServiceRegistry())

	assert.Equal(t, "api", m.serviceNameToPrefix("component-manager"))
	assert.Equal(t, "metrics", m.serviceNameToPrefix("metrics"))
	assert.Equal(t, "framerelay", m.serviceNameToPrefix("frame-relay"))
}

func TestCreateServiceUnknownConstructor(t *testing.T) {
	m := NewServiceManager(NewServiceRegistry())

	_, err := m.CreateService("nonexistent", nil, nil)
	assert.Error(t, err)
}

func TestRegistryConstructors(t *testing.T) {
	registry := NewServiceRegistry()
	require.NoError(t, RegisterAll(registry))

	names := registry.Constructors()
	assert.Contains(t, names, "metrics")
	assert.Contains(t, names, "component-manager")

	_, ok := registry.Constructor("metrics")
	assert.True(t, ok)
}
