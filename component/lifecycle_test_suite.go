package component

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/c360/eventscape/errors"
)

// LifecycleFactory creates a new instance of a LifecycleComponent for testing
type LifecycleFactory func() LifecycleComponent

// StandardLifecycleTests runs the shared lifecycle contract tests for any
// component that implements LifecycleComponent. Component packages call this
// from their own tests so every component honors the same Initialize/Start/
// Stop semantics.
func StandardLifecycleTests(t *testing.T, factory LifecycleFactory) {
	t.Run("Compliance", func(t *testing.T) {
		testLifecycleCompliance(t, factory)
	})
	t.Run("ErrorPaths", func(t *testing.T) {
		testLifecycleErrorPaths(t, factory)
	})
	t.Run("Concurrent", func(t *testing.T) {
		testConcurrentLifecycle(t, factory)
	})
}

// testLifecycleCompliance tests standard lifecycle state transitions
func testLifecycleCompliance(t *testing.T, factory LifecycleFactory) {
	tests := []struct {
		name string
		test func(t *testing.T, comp LifecycleComponent)
	}{
		{"Initialize", testInitialize},
		{"Start", testStart},
		{"StopWithoutStart", testStopWithoutStart},
		{"DoubleStart", testDoubleStart},
		{"DoubleStop", testDoubleStop},
		{"RestartAfterStop", testRestartAfterStop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp := factory()
			require.NotNil(t, comp, "Component factory returned nil")
			tt.test(t, comp)
		})
	}
}

func testInitialize(t *testing.T, comp LifecycleComponent) {
	err := comp.Initialize()
	assert.NoError(t, err, "Initialize should succeed on fresh component")
}

func testStart(t *testing.T, comp LifecycleComponent) {
	err := comp.Initialize()
	require.NoError(t, err, "Initialize must succeed before Start")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = comp.Start(ctx)
	assert.NoError(t, err, "Start should succeed after Initialize")

	// Clean shutdown
	err = comp.Stop(5 * time.Second)
	assert.NoError(t, err, "Stop should succeed after Start")
}

func testStopWithoutStart(t *testing.T, comp LifecycleComponent) {
	err := comp.Stop(5 * time.Second)
	assert.NoError(t, err, "Stop should be safe to call without Start")
}

func testDoubleStart(t *testing.T, comp LifecycleComponent) {
	err := comp.Initialize()
	require.NoError(t, err, "Initialize must succeed")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = comp.Start(ctx)
	require.NoError(t, err, "First Start should succeed")

	// Second start may be a no-op or an error, but must not panic or wedge
	_ = comp.Start(ctx)

	err = comp.Stop(5 * time.Second)
	assert.NoError(t, err, "Stop should succeed")
}

func testDoubleStop(t *testing.T, comp LifecycleComponent) {
	err := comp.Initialize()
	require.NoError(t, err, "Initialize must succeed")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = comp.Start(ctx)
	require.NoError(t, err, "Start must succeed")

	err = comp.Stop(5 * time.Second)
	assert.NoError(t, err, "First Stop should succeed")

	err = comp.Stop(5 * time.Second)
	assert.NoError(t, err, "Second Stop should be idempotent")
}

func testRestartAfterStop(t *testing.T, comp LifecycleComponent) {
	err := comp.Initialize()
	require.NoError(t, err, "Initialize should succeed")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = comp.Start(ctx)
	require.NoError(t, err, "First Start should succeed")

	err = comp.Stop(5 * time.Second)
	require.NoError(t, err, "Stop should succeed")

	// Restart
	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()

	err = comp.Start(ctx2)
	if err != nil {
		// Some components require re-initialization after stop
		err = comp.Initialize()
		require.NoError(t, err, "Re-initialize should succeed if Start fails after Stop")

		err = comp.Start(ctx2)
		assert.NoError(t, err, "Start should succeed after re-initialization")
	}

	err = comp.Stop(5 * time.Second)
	assert.NoError(t, err, "Final Stop should succeed")
}

// testLifecycleErrorPaths tests error scenarios and edge cases
func testLifecycleErrorPaths(t *testing.T, factory LifecycleFactory) {
	t.Run("cancelled_context_on_start", func(t *testing.T) {
		comp := factory()
		require.NotNil(t, comp, "Component factory returned nil")
		require.NoError(t, comp.Initialize(), "Initialize must succeed")

		ctx, cancel := context.WithCancel(context.Background())
		cancel() // Cancel immediately

		err := comp.Start(ctx)
		assert.Error(t, err, "Start with cancelled context should fail")
		if err != nil {
			ok := strings.Contains(err.Error(), "context") || strings.Contains(err.Error(), "cancel")
			assert.True(t, ok, "Error should mention the cancelled context: %v", err)
		}

		// Component must still be stoppable after the failed start
		assert.NoError(t, comp.Stop(5*time.Second))
	})

	t.Run("start_without_initialize", func(t *testing.T) {
		comp := factory()
		require.NotNil(t, comp, "Component factory returned nil")

		err := comp.Start(context.Background())
		// Either implicit initialization or a missing-precondition error is acceptable
		if err != nil {
			ok := stderrors.Is(err, pkgerrors.ErrNotStarted) || stderrors.Is(err, pkgerrors.ErrMissingConfig)
			assert.True(t, ok, "Start before Initialize should fail with a precondition sentinel: %v", err)
		}

		assert.NoError(t, comp.Stop(5*time.Second))
	})
}

// testConcurrentLifecycle tests concurrent operations on lifecycle methods
func testConcurrentLifecycle(t *testing.T, factory LifecycleFactory) {
	t.Run("ConcurrentStartStop", func(t *testing.T) {
		comp := factory()
		require.NotNil(t, comp, "Component factory returned nil")

		err := comp.Initialize()
		require.NoError(t, err, "Initialize must succeed")

		var wg sync.WaitGroup
		errs := make([]error, 40)

		// 20 goroutines trying to start
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				errs[idx] = comp.Start(ctx)
			}(i)
		}

		// 20 goroutines trying to stop
		for i := 20; i < 40; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				time.Sleep(10 * time.Millisecond) // Give starts a chance
				errs[idx] = comp.Stop(5 * time.Second)
			}(i)
		}

		wg.Wait()

		// No panics and at least one operation of each kind succeeded
		successfulStarts := 0
		successfulStops := 0
		for i, err := range errs {
			if i < 20 && err == nil {
				successfulStarts++
			} else if i >= 20 && err == nil {
				successfulStops++
			}
		}

		assert.GreaterOrEqual(t, successfulStarts, 1, "At least one Start should succeed")
		assert.GreaterOrEqual(t, successfulStops, 1, "At least one Stop should succeed")

		// Final cleanup
		_ = comp.Stop(5 * time.Second)
	})

	t.Run("ConcurrentInitialize", func(t *testing.T) {
		comp := factory()
		require.NotNil(t, comp, "Component factory returned nil")

		var wg sync.WaitGroup
		errs := make([]error, 20)

		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				errs[idx] = comp.Initialize()
			}(i)
		}

		wg.Wait()

		successCount := 0
		for _, err := range errs {
			if err == nil {
				successCount++
			}
		}

		assert.GreaterOrEqual(t, successCount, 1, "At least one Initialize should succeed")

		// Component should be in a valid state
		err := comp.Stop(5 * time.Second)
		assert.NoError(t, err, "Component should be stoppable after concurrent initialize")
	})
}
