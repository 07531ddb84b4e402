package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		construct  func(component, message string) Status
		wantStatus string
		wantBool   bool
	}{
		{"healthy", NewHealthy, "healthy", true},
		{"unhealthy", NewUnhealthy, "unhealthy", false},
		{"degraded", NewDegraded, "degraded", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := tt.construct("engine", "state message")

			assert.Equal(t, "engine", status.Component)
			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, tt.wantBool, status.Healthy)
			assert.Equal(t, "state message", status.Message)
			assert.False(t, status.Timestamp.IsZero(), "constructor should set timestamp")
		})
	}
}

func TestAggregate_Empty(t *testing.T) {
	status := Aggregate("system", nil)

	assert.True(t, status.IsHealthy())
	assert.Equal(t, "system", status.Component)
	assert.Empty(t, status.SubStatuses)
}

func TestAggregate_AllHealthy(t *testing.T) {
	subs := []Status{
		NewHealthy("domainevent", "subscribed"),
		NewHealthy("engine", "ticking"),
		NewHealthy("websocket", "3 clients"),
	}

	status := Aggregate("system", subs)

	assert.True(t, status.IsHealthy())
	assert.Len(t, status.SubStatuses, 3)
}

func TestAggregate_UnhealthyDominates(t *testing.T) {
	subs := []Status{
		NewHealthy("domainevent", "subscribed"),
		NewDegraded("engine", "slow ticks"),
		NewUnhealthy("websocket", "listener down"),
	}

	status := Aggregate("system", subs)

	assert.True(t, status.IsUnhealthy(), "unhealthy beats degraded in aggregation")
}

func TestAggregate_DegradedWithoutUnhealthy(t *testing.T) {
	subs := []Status{
		NewHealthy("domainevent", "subscribed"),
		NewDegraded("engine", "queue near capacity"),
	}

	status := Aggregate("system", subs)

	assert.True(t, status.IsDegraded())
}

func TestAggregate_CopiesSubStatuses(t *testing.T) {
	subs := []Status{
		NewHealthy("engine", "ok"),
	}

	status := Aggregate("system", subs)
	require.Len(t, status.SubStatuses, 1)

	// Mutating the input slice must not change the aggregate
	subs[0].Component = "mutated"
	assert.Equal(t, "engine", status.SubStatuses[0].Component)
}
