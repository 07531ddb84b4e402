package health

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMonitor(t *testing.T) {
	monitor := NewMonitor()

	require.NotNil(t, monitor)
	assert.Equal(t, 0, monitor.Count())
}

func TestMonitor_Update(t *testing.T) {
	monitor := NewMonitor()

	status := Status{
		Component: "engine",
		Status:    "healthy",
		Message:   "tick loop running",
	}

	monitor.Update("engine", status)

	retrieved, exists := monitor.Get("engine")
	require.True(t, exists)
	assert.Equal(t, "engine", retrieved.Component)
	assert.Equal(t, "healthy", retrieved.Status)
	assert.False(t, retrieved.Timestamp.IsZero(), "Update should set timestamp if not provided")
}

func TestMonitor_UpdateCorrectsComponentName(t *testing.T) {
	monitor := NewMonitor()

	status := Status{
		Component: "wrong-name",
		Status:    "healthy",
	}

	monitor.Update("domainevent", status)

	retrieved, exists := monitor.Get("domainevent")
	require.True(t, exists)
	assert.Equal(t, "domainevent", retrieved.Component)
}

func TestMonitor_ConvenienceMethods(t *testing.T) {
	monitor := NewMonitor()

	monitor.UpdateHealthy("healthy-comp", "all good")
	healthyStatus, exists := monitor.Get("healthy-comp")
	require.True(t, exists)
	assert.True(t, healthyStatus.IsHealthy())
	assert.Equal(t, "all good", healthyStatus.Message)

	monitor.UpdateUnhealthy("unhealthy-comp", "bus disconnected")
	unhealthyStatus, exists := monitor.Get("unhealthy-comp")
	require.True(t, exists)
	assert.True(t, unhealthyStatus.IsUnhealthy())

	monitor.UpdateDegraded("degraded-comp", "queue near capacity")
	degradedStatus, exists := monitor.Get("degraded-comp")
	require.True(t, exists)
	assert.True(t, degradedStatus.IsDegraded())
}

func TestMonitor_GetMissing(t *testing.T) {
	monitor := NewMonitor()

	_, exists := monitor.Get("non-existent")
	assert.False(t, exists)
}

func TestMonitor_GetAllReturnsCopy(t *testing.T) {
	monitor := NewMonitor()

	monitor.UpdateHealthy("comp1", "msg1")
	monitor.UpdateUnhealthy("comp2", "msg2")
	monitor.UpdateDegraded("comp3", "msg3")

	all := monitor.GetAll()
	require.Len(t, all, 3)

	for _, name := range []string{"comp1", "comp2", "comp3"} {
		_, exists := all[name]
		assert.True(t, exists, "component %s should be in GetAll result", name)
	}

	// Modifying the returned map must not affect the monitor
	all["comp1"] = Status{Component: "modified"}
	original, _ := monitor.Get("comp1")
	assert.NotEqual(t, "modified", original.Component)
}

func TestMonitor_Remove(t *testing.T) {
	monitor := NewMonitor()

	// Removing from empty monitor should not panic
	monitor.Remove("non-existent")

	monitor.UpdateHealthy("engine", "ok")
	require.Equal(t, 1, monitor.Count())

	monitor.Remove("engine")
	assert.Equal(t, 0, monitor.Count())

	_, exists := monitor.Get("engine")
	assert.False(t, exists)
}

func TestMonitor_AggregateHealth(t *testing.T) {
	monitor := NewMonitor()

	aggregate := monitor.AggregateHealth("system")
	assert.True(t, aggregate.IsHealthy(), "empty monitor should aggregate as healthy")
	assert.Equal(t, "system", aggregate.Component)

	monitor.UpdateHealthy("comp1", "msg1")
	monitor.UpdateHealthy("comp2", "msg2")
	aggregate = monitor.AggregateHealth("system")
	assert.True(t, aggregate.IsHealthy())

	monitor.UpdateUnhealthy("comp3", "error")
	aggregate = monitor.AggregateHealth("system")
	assert.True(t, aggregate.IsUnhealthy(), "any unhealthy component makes aggregate unhealthy")

	monitor.Remove("comp3")
	monitor.UpdateDegraded("comp4", "slow")
	aggregate = monitor.AggregateHealth("system")
	assert.True(t, aggregate.IsDegraded(), "degraded without unhealthy makes aggregate degraded")
}

func TestMonitor_AggregateWithMaxAge(t *testing.T) {
	monitor := NewMonitor()

	fresh := NewHealthy("engine", "tick loop running")
	monitor.Update("engine", fresh)

	stale := NewHealthy("domainevent", "subscribed")
	stale.Timestamp = time.Now().Add(-5 * time.Minute)
	monitor.Update("domainevent", stale)

	aggregate := monitor.AggregateWithMaxAge("system", time.Minute)
	assert.True(t, aggregate.IsDegraded(), "stale healthy status should degrade aggregate")

	found := false
	for _, sub := range aggregate.SubStatuses {
		if sub.Component == "domainevent" {
			found = true
			assert.True(t, sub.IsDegraded())
		}
	}
	assert.True(t, found)

	// Without a max age, staleness is ignored
	aggregate = monitor.AggregateWithMaxAge("system", 0)
	assert.True(t, aggregate.IsHealthy())
}

func TestMonitor_ListComponents(t *testing.T) {
	monitor := NewMonitor()

	assert.Empty(t, monitor.ListComponents())

	monitor.UpdateHealthy("comp1", "msg1")
	monitor.UpdateUnhealthy("comp2", "msg2")

	components := monitor.ListComponents()
	assert.Len(t, components, 2)
	assert.ElementsMatch(t, []string{"comp1", "comp2"}, components)
}

func TestMonitor_Clear(t *testing.T) {
	monitor := NewMonitor()

	monitor.UpdateHealthy("comp1", "msg1")
	monitor.UpdateUnhealthy("comp2", "msg2")
	require.Equal(t, 2, monitor.Count())

	monitor.Clear()

	assert.Equal(t, 0, monitor.Count())
	assert.Empty(t, monitor.GetAll())
}

func TestMonitor_ConcurrentAccess(t *testing.T) {
	monitor := NewMonitor()
	numGoroutines := 10
	numOperationsPerGoroutine := 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()

			for j := 0; j < numOperationsPerGoroutine; j++ {
				switch j % 4 {
				case 0:
					monitor.UpdateHealthy("comp", "healthy")
				case 1:
					monitor.UpdateUnhealthy("comp", "unhealthy")
				case 2:
					_, _ = monitor.Get("comp")
				case 3:
					_ = monitor.GetAll()
				}
			}
		}()
	}

	wg.Wait()

	monitor.UpdateHealthy("final-test", "test message")
	status, exists := monitor.Get("final-test")
	require.True(t, exists)
	assert.Equal(t, "final-test", status.Component)
}

func TestMonitor_ConcurrentAggregation(t *testing.T) {
	monitor := NewMonitor()
	numGoroutines := 5

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		if i == 0 {
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					_ = monitor.AggregateHealth("system")
					time.Sleep(time.Microsecond)
				}
			}()
		} else {
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					if j%2 == 0 {
						monitor.UpdateHealthy("comp", "msg")
					} else {
						monitor.Remove("comp")
					}
					time.Sleep(time.Microsecond)
				}
			}()
		}
	}

	wg.Wait()

	aggregate := monitor.AggregateHealth("final-system")
	assert.Equal(t, "final-system", aggregate.Component)
}
