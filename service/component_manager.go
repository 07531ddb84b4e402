// Package service provides service management and HTTP APIs for the eventscape platform.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/eventscape/component"
	"github.com/c360/eventscape/config"
	"github.com/c360/eventscape/engine"
	"github.com/c360/eventscape/natsclient"
	"github.com/c360/eventscape/types"
)

// ComponentManager handles lifecycle management of all components (inputs,
// processors, outputs) through the unified component system.
//
// ComponentManager follows lifecycle:
//
//	Initialize() - Create components but don't start them
//	Start(ctx)   - Start initialized components with context
//	Stop()       - Stop components in reverse order
//
// Components are started by type: outputs first, then processors, then
// inputs, so every consumer is listening before its producer begins.
// Stop runs the same order in reverse.
type ComponentManager struct {
	*BaseService

	config ComponentManagerConfig

	// core component management
	registry         *component.Registry
	componentConfigs config.ComponentConfigs
	platform         types.PlatformMeta
	components       map[string]*component.ManagedComponent
	startOrder       []string            // Track start order for reverse stop
	resources        map[string][]string // resourceID -> component names

	natsClient *natsclient.Client

	// Lifecycle hooks for debugging and monitoring
	onComponentStart func(ctx context.Context, name string, comp component.Discoverable)
	onComponentStop  func(ctx context.Context, name string, reason string)
	onComponentError func(ctx context.Context, name string, err error)

	// Thread safety for component operations
	mu          sync.RWMutex
	initialized atomic.Bool
	initMu      sync.Mutex
	started     atomic.Bool
	startMu     sync.Mutex
}

// startPhases orders component types for startup. Consumers come up
// before producers so no frame or event is published into the void.
var startPhases = []types.ComponentType{
	types.ComponentTypeOutput,
	types.ComponentTypeProcessor,
	types.ComponentTypeInput,
}

// NewComponentManager creates a new ComponentManager using the standard constructor pattern
func NewComponentManager(rawConfig json.RawMessage, deps *Dependencies) (Service, error) {
	var cfg ComponentManagerConfig
	if len(rawConfig) > 0 {
		if err := json.Unmarshal(rawConfig, &cfg); err != nil {
			return nil, fmt.Errorf("parse component-manager config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate component-manager config: %w", err)
	}

	var opts []Option
	if deps != nil {
		if deps.Logger != nil {
			opts = append(opts, WithLogger(deps.Logger))
		}
		if deps.MetricsRegistry != nil {
			opts = append(opts, WithMetrics(deps.MetricsRegistry))
		}
	}

	baseService := NewBaseServiceWithOptions("component-manager", nil, opts...)

	var platform types.PlatformMeta
	var registry *component.Registry
	var componentsConfig config.ComponentConfigs
	if deps != nil {
		platform = deps.Platform
		registry = deps.ComponentRegistry
		componentsConfig = deps.Components
	}
	if registry == nil {
		registry = component.NewRegistry()
	}
	if componentsConfig == nil {
		componentsConfig = make(config.ComponentConfigs)
	}

	cm := &ComponentManager{
		BaseService:      baseService,
		config:           cfg,
		registry:         registry,
		componentConfigs: componentsConfig,
		platform:         platform,
		components:       make(map[string]*component.ManagedComponent),
		startOrder:       make([]string, 0),
		resources:        make(map[string][]string),
	}

	if deps != nil && deps.NATSClient != nil {
		cm.natsClient = deps.NATSClient
	}

	cm.SetHealthCheck(cm.healthCheck)

	// Creation is separate from starting
	if err := cm.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize component manager: %w", err)
	}

	return cm, nil
}

// Initialize creates all configured components but does not start them.
// After creation it wires processor components to their event sources.
func (cm *ComponentManager) Initialize() error {
	cm.initMu.Lock()
	defer cm.initMu.Unlock()

	if cm.initialized.Load() {
		return nil
	}

	for instanceName, componentConfig := range cm.componentConfigs {
		if !componentConfig.Enabled {
			cm.logger.Debug("Skipping disabled component", "instance", instanceName)
			continue
		}
		if !cm.config.componentEnabled(instanceName) {
			cm.logger.Debug("Component excluded by enabled_components filter",
				"instance", instanceName)
			continue
		}

		deps := cm.buildComponentDependencies()
		if err := cm.CreateComponent(context.Background(), instanceName, componentConfig, deps); err != nil {
			cm.logger.Error("Failed to create component from config",
				"instance", instanceName,
				"factory", componentConfig.Name,
				"type", componentConfig.Type,
				"error", err)
			// Continue with other components instead of failing entirely
			continue
		}

		cm.logger.Info("Component created from config",
			"instance", instanceName,
			"factory", componentConfig.Name,
			"type", componentConfig.Type)
	}

	if err := cm.wireEventSources(); err != nil {
		return err
	}

	cm.initialized.Store(true)
	return nil
}

// wireEventSources attaches every processor that consumes drained events
// to an input component that produces them. Attachment happens before
// Start so the processor never ticks without a source.
func (cm *ComponentManager) wireEventSources() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	var sources []engine.EventSource
	for _, mc := range cm.components {
		if src, ok := mc.Component.(engine.EventSource); ok {
			sources = append(sources, src)
		}
	}

	for name, mc := range cm.components {
		attacher, ok := mc.Component.(interface {
			AttachSource(engine.EventSource) error
		})
		if !ok {
			continue
		}
		if len(sources) == 0 {
			return fmt.Errorf("component %s requires an event source but none is configured", name)
		}
		if err := attacher.AttachSource(sources[0]); err != nil {
			return fmt.Errorf("attach event source to %s: %w", name, err)
		}
		cm.logger.Info("Event source wired", "processor", name)
	}
	return nil
}

// Start starts all initialized components in phase order
func (cm *ComponentManager) Start(ctx context.Context) error {
	cm.startMu.Lock()
	defer cm.startMu.Unlock()

	if !cm.initialized.Load() {
		return fmt.Errorf("component manager not initialized")
	}

	if cm.started.Load() {
		return nil
	}

	for _, phase := range startPhases {
		if err := cm.startPhase(ctx, phase); err != nil {
			return err
		}
	}

	cm.started.Store(true)

	// Start the base service after components to avoid health check deadlocks
	if err := cm.BaseService.Start(ctx); err != nil {
		return fmt.Errorf("failed to start base service: %w", err)
	}

	return nil
}

// startPhase starts every component of one type
func (cm *ComponentManager) startPhase(ctx context.Context, phase types.ComponentType) error {
	cm.mu.Lock()
	names := make([]string, 0, len(cm.components))
	for name := range cm.components {
		if cfg, ok := cm.componentConfigs[name]; ok && cfg.Type == phase {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	cm.mu.Unlock()

	for _, name := range names {
		cm.mu.Lock()
		mc := cm.components[name]
		cm.mu.Unlock()
		if mc == nil {
			continue
		}

		lifecycle, ok := component.AsLifecycleComponent(mc.Component)
		if !ok {
			continue
		}

		childCtx, cancel := context.WithCancel(ctx)
		mc.Context = childCtx
		mc.Cancel = cancel

		cm.logger.Info("Starting component", "name", name, "type", phase)
		if err := lifecycle.Start(childCtx); err != nil {
			cm.updateComponentState(name, component.StateFailed, err)
			if cm.onComponentError != nil {
				cm.onComponentError(childCtx, name, err)
			}
			return fmt.Errorf("start component %s: %w", name, err)
		}

		cm.updateComponentState(name, component.StateStarted, nil)
		if cm.onComponentStart != nil {
			cm.onComponentStart(childCtx, name, mc.Component)
		}

		cm.mu.Lock()
		mc.StartOrder = len(cm.startOrder)
		cm.startOrder = append(cm.startOrder, name)
		cm.mu.Unlock()
	}
	return nil
}

// Stop gracefully stops all components in reverse order of startup
func (cm *ComponentManager) Stop(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if !cm.started.Load() {
		return cm.BaseService.Stop(timeout)
	}

	cm.mu.Lock()
	stopOrder := make([]string, len(cm.startOrder))
	copy(stopOrder, cm.startOrder)
	cm.mu.Unlock()

	var errs []error
	for i := len(stopOrder) - 1; i >= 0; i-- {
		name := stopOrder[i]

		cm.mu.Lock()
		mc, exists := cm.components[name]
		cm.mu.Unlock()
		if !exists {
			continue
		}

		cm.cancelComponentContext(mc)
		if err := cm.stopSingleComponent(ctx, name, mc); err != nil {
			errs = append(errs, err)
		}
	}

	cm.started.Store(false)

	if baseErr := cm.BaseService.Stop(timeout); baseErr != nil {
		errs = append(errs, fmt.Errorf("failed to stop base service: %w", baseErr))
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to stop %d components: %v", len(errs), errs)
	}
	return nil
}

// cancelComponentContext cancels the component's context if it exists
func (cm *ComponentManager) cancelComponentContext(mc *component.ManagedComponent) {
	if mc.Cancel != nil {
		mc.Cancel()
		mc.Cancel = nil
		mc.Context = nil
	}
}

// stopSingleComponent stops a single component and updates its state
func (cm *ComponentManager) stopSingleComponent(
	ctx context.Context, name string, mc *component.ManagedComponent,
) error {
	lifecycle, ok := component.AsLifecycleComponent(mc.Component)
	if !ok {
		cm.markComponentStopped(ctx, name, "no-lifecycle")
		return nil
	}

	timeout := 30 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining > 0 && remaining < timeout {
			timeout = remaining
		}
	}

	if err := lifecycle.Stop(timeout); err != nil {
		cm.updateComponentState(name, component.StateFailed, err)
		if cm.onComponentError != nil {
			cm.onComponentError(ctx, name, err)
		}
		return fmt.Errorf("component '%s': %w", name, err)
	}

	cm.markComponentStopped(ctx, name, "graceful")
	return nil
}

// markComponentStopped marks a component as stopped and calls the stop hook
func (cm *ComponentManager) markComponentStopped(ctx context.Context, name string, reason string) {
	cm.updateComponentState(name, component.StateStopped, nil)

	if cm.onComponentStop != nil {
		select {
		case <-ctx.Done():
			cm.logger.Warn("Skipping stop hook due to context cancellation", "component", name)
		default:
			cm.onComponentStop(ctx, name, reason)
		}
	}
}

// updateComponentState safely updates component state with proper locking
func (cm *ComponentManager) updateComponentState(name string, state component.State, err error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if mc, exists := cm.components[name]; exists {
		mc.State = state
		mc.LastError = err
	}
}

// Component retrieves a specific component instance by name
func (cm *ComponentManager) Component(name string) component.Discoverable {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	return cm.registry.Component(name)
}

// ListComponents returns all registered component instances
func (cm *ComponentManager) ListComponents() map[string]component.Discoverable {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	return cm.registry.ListComponents()
}

// GetRegistry returns the component registry for schema introspection
func (cm *ComponentManager) GetRegistry() *component.Registry {
	return cm.registry
}

// CreateComponent creates a new component instance and registers it
func (cm *ComponentManager) CreateComponent(
	ctx context.Context, instanceName string, cfg types.ComponentConfig, deps component.Dependencies,
) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if instanceName == "" {
		return fmt.Errorf("instance name cannot be empty")
	}
	if cfg.Name == "" {
		return fmt.Errorf("component factory name cannot be empty")
	}
	if cfg.Type == "" {
		return fmt.Errorf("component type cannot be empty")
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.components[instanceName]; exists {
		return fmt.Errorf("component '%s' already exists", instanceName)
	}

	comp, err := cm.registry.CreateComponent(instanceName, cfg, deps)
	if err != nil {
		return err
	}

	if err := cm.checkPortConflicts(comp); err != nil {
		cm.registry.UnregisterInstance(instanceName)
		return fmt.Errorf("port conflict for component '%s': %w", instanceName, err)
	}

	cm.registerPorts(instanceName, comp)

	mc := &component.ManagedComponent{
		Component: comp,
		State:     component.StateCreated,
	}

	if lifecycle, ok := component.AsLifecycleComponent(comp); ok {
		if err := lifecycle.Initialize(); err != nil {
			cm.registry.UnregisterInstance(instanceName)
			return fmt.Errorf("failed to initialize component '%s': %w", instanceName, err)
		}
		mc.State = component.StateInitialized
	}

	cm.components[instanceName] = mc
	return nil
}

// RemoveComponent stops and removes a component instance
func (cm *ComponentManager) RemoveComponent(instanceName string) error {
	if instanceName == "" {
		return fmt.Errorf("instance name cannot be empty")
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	mc, exists := cm.components[instanceName]
	if !exists {
		return fmt.Errorf("component '%s' not found", instanceName)
	}

	if mc.Cancel != nil {
		mc.Cancel()
		mc.Cancel = nil
		mc.Context = nil
	}

	if lifecycle, ok := component.AsLifecycleComponent(mc.Component); ok {
		if err := lifecycle.Stop(30 * time.Second); err != nil {
			mc.State = component.StateFailed
			mc.LastError = err
			return fmt.Errorf("failed to stop component '%s': %w", instanceName, err)
		}
	}

	cm.unregisterPorts(instanceName)
	delete(cm.components, instanceName)

	for i, name := range cm.startOrder {
		if name == instanceName {
			cm.startOrder = append(cm.startOrder[:i], cm.startOrder[i+1:]...)
			break
		}
	}

	cm.registry.UnregisterInstance(instanceName)
	return nil
}

// IsInitialized returns true if the component manager is initialized
func (cm *ComponentManager) IsInitialized() bool {
	return cm.initialized.Load()
}

// IsStarted returns true if the component manager is started
func (cm *ComponentManager) IsStarted() bool {
	return cm.started.Load()
}

// GetManagedComponents returns a copy of all managed components with their state
func (cm *ComponentManager) GetManagedComponents() map[string]*component.ManagedComponent {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	result := make(map[string]*component.ManagedComponent, len(cm.components))
	for name, mc := range cm.components {
		result[name] = &component.ManagedComponent{
			Component:  mc.Component,
			State:      mc.State,
			Context:    mc.Context,
			Cancel:     mc.Cancel,
			StartOrder: mc.StartOrder,
			LastError:  mc.LastError,
		}
	}

	return result
}

// checkPortConflicts checks for conflicts with existing port registrations
func (cm *ComponentManager) checkPortConflicts(comp component.Discoverable) error {
	allPorts := append(comp.InputPorts(), comp.OutputPorts()...)

	for _, port := range allPorts {
		if port.Config.IsExclusive() {
			resourceID := port.Config.ResourceID()
			if owners, exists := cm.resources[resourceID]; exists && len(owners) > 0 {
				return fmt.Errorf("exclusive resource %s already used by %v",
					resourceID, owners)
			}
		}
	}
	return nil
}

// registerPorts registers all ports from a component to track resource usage
func (cm *ComponentManager) registerPorts(name string, comp component.Discoverable) {
	allPorts := append(comp.InputPorts(), comp.OutputPorts()...)

	for _, port := range allPorts {
		resourceID := port.Config.ResourceID()
		cm.resources[resourceID] = append(cm.resources[resourceID], name)
	}
}

// unregisterPorts removes all port registrations for a component
func (cm *ComponentManager) unregisterPorts(name string) {
	mc, exists := cm.components[name]
	if !exists || mc.Component == nil {
		return
	}
	comp := mc.Component

	allPorts := append(comp.InputPorts(), comp.OutputPorts()...)
	for _, port := range allPorts {
		resourceID := port.Config.ResourceID()
		cm.removeFromSlice(resourceID, name)
	}
}

// removeFromSlice removes a component name from the resource owners slice
func (cm *ComponentManager) removeFromSlice(resourceID, name string) {
	owners := cm.resources[resourceID]
	for i, owner := range owners {
		if owner == name {
			cm.resources[resourceID] = append(owners[:i], owners[i+1:]...)
			break
		}
	}

	if len(cm.resources[resourceID]) == 0 {
		delete(cm.resources, resourceID)
	}
}

// healthCheck performs a health check for the ComponentManager.
// Called from BaseService health monitoring; must stay lightweight.
func (cm *ComponentManager) healthCheck() error {
	if !cm.initialized.Load() {
		return fmt.Errorf("component manager not initialized")
	}

	if !cm.started.Load() {
		return nil // Still starting up, assume healthy
	}

	done := make(chan error, 1)
	go func() {
		done <- cm.performDetailedHealthCheck()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(100 * time.Millisecond):
		// Avoid blocking the health check under lock contention
		return nil
	}
}

// performDetailedHealthCheck performs the actual health check with locks
func (cm *ComponentManager) performDetailedHealthCheck() error {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	for name, comp := range cm.components {
		if comp.Component == nil {
			return fmt.Errorf("component %s has nil implementation", name)
		}
		if comp.Context != nil && comp.Context.Err() != nil {
			return fmt.Errorf("component %s context cancelled: %w", name, comp.Context.Err())
		}
	}
	return nil
}

// RegisterComponentStartHook registers a callback for component start events
func (cm *ComponentManager) RegisterComponentStartHook(
	hook func(ctx context.Context, name string, comp component.Discoverable),
) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.onComponentStart = hook
}

// RegisterComponentStopHook registers a callback for component stop events
func (cm *ComponentManager) RegisterComponentStopHook(hook func(ctx context.Context, name string, reason string)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.onComponentStop = hook
}

// RegisterComponentErrorHook registers a callback for component error events
func (cm *ComponentManager) RegisterComponentErrorHook(hook func(ctx context.Context, name string, err error)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.onComponentError = hook
}

// buildComponentDependencies creates Dependencies from ComponentManager's context
func (cm *ComponentManager) buildComponentDependencies() component.Dependencies {
	return component.Dependencies{
		NATSClient:      cm.natsClient,
		MetricsRegistry: cm.BaseService.metricsRegistry,
		Logger:          cm.BaseService.logger,
		Platform: component.PlatformMeta{
			Org:      cm.platform.Org,
			Platform: cm.platform.Platform,
		},
	}
}

// GetComponentHealth returns current health status for all managed components
func (cm *ComponentManager) GetComponentHealth() map[string]component.HealthStatus {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	result := make(map[string]component.HealthStatus)
	for name, mc := range cm.components {
		if mc.Component != nil {
			result[name] = mc.Component.Health()
		}
	}
	return result
}

// GetHealthyComponents returns names of components that report healthy status
func (cm *ComponentManager) GetHealthyComponents() []string {
	health := cm.GetComponentHealth()
	var healthy []string
	for name, h := range health {
		if h.Healthy {
			healthy = append(healthy, name)
		}
	}
	return healthy
}

// GetUnhealthyComponents returns names of components that report unhealthy status
func (cm *ComponentManager) GetUnhealthyComponents() []string {
	health := cm.GetComponentHealth()
	var unhealthy []string
	for name, h := range health {
		if !h.Healthy {
			unhealthy = append(unhealthy, name)
		}
	}
	return unhealthy
}

// GetComponentStatus returns combined lifecycle state and health status for all components
func (cm *ComponentManager) GetComponentStatus() map[string]ComponentStatus {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	result := make(map[string]ComponentStatus)
	for name, mc := range cm.components {
		status := ComponentStatus{
			Name:      name,
			State:     mc.State,
			LastError: mc.LastError,
		}
		if mc.Component != nil {
			status.Health = mc.Component.Health()
			status.DataFlow = mc.Component.DataFlow()
		}
		result[name] = status
	}
	return result
}

// ComponentStatus combines lifecycle state with health and flow metrics
type ComponentStatus struct {
	Name      string                 `json:"name"`
	State     component.State        `json:"state"`
	Health    component.HealthStatus `json:"health"`
	DataFlow  component.FlowMetrics  `json:"data_flow"`
	LastError error                  `json:"last_error,omitempty"`
}
