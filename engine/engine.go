package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/eventscape/component"
	"github.com/c360/eventscape/errors"
	"github.com/c360/eventscape/eventstore"
	"github.com/c360/eventscape/flowgraph"
	"github.com/c360/eventscape/layout"
	"github.com/c360/eventscape/metric"
	"github.com/c360/eventscape/natsclient"
	"github.com/c360/eventscape/style"
	"golang.org/x/time/rate"
)

// Defaults for the tick loop.
const (
	DefaultTickInterval = 250 * time.Millisecond
	DefaultDrainBatch   = 10

	// Rate samples are taken once a second regardless of tick rate.
	statsSampleInterval = time.Second
)

// EventSource is the engine side of the ingest queue. Drain must never
// block; it returns at most max decoded events.
type EventSource interface {
	Drain(max int) []eventstore.Event
}

// engineConfigSchema is generated from Config struct tags using reflection
var engineConfigSchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// Config holds configuration for the simulation engine
type Config struct {
	// TickInterval is the simulation cadence.
	TickInterval string `json:"tick_interval,omitempty" schema:"type:string,description:Simulation tick interval,default:250ms,category:basic"`

	// DrainBatch caps how many queued events one tick absorbs.
	DrainBatch int `json:"drain_batch,omitempty" schema:"type:int,description:Max events drained per tick,default:10,min:1,category:basic"`

	// MaxEvents and Retention bound the event window.
	MaxEvents int    `json:"max_events,omitempty" schema:"type:int,description:Event window capacity,default:100,min:1,category:basic"`
	Retention string `json:"retention,omitempty" schema:"type:string,description:Event retention age,default:300s,category:basic"`

	// FrameSubject overrides the {org}.{platform}.eventscape.frame.v1
	// publish subject.
	FrameSubject string `json:"frame_subject,omitempty" schema:"type:string,description:Frame publish subject override,category:advanced"`

	// Layout overrides the force simulation parameters.
	Layout *layout.Config `json:"layout,omitempty" schema:"type:object,description:Force layout parameters,category:advanced"`

	// Styles holds per-domain display overrides.
	Styles map[string]style.Style `json:"styles,omitempty" schema:"type:object,description:Per-domain style overrides,category:advanced"`
}

// Validate implements component.Validatable
func (c *Config) Validate() error {
	if c.TickInterval != "" {
		d, err := time.ParseDuration(c.TickInterval)
		if err != nil {
			return errors.WrapInvalid(err, "Config", "Validate", "tick_interval parsing")
		}
		if d <= 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "tick_interval must be positive")
		}
	}
	if c.Retention != "" {
		if _, err := time.ParseDuration(c.Retention); err != nil {
			return errors.WrapInvalid(err, "Config", "Validate", "retention parsing")
		}
	}
	if c.DrainBatch < 0 || c.MaxEvents < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "counts must be positive")
	}
	if c.Layout != nil {
		if err := c.Layout.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DefaultConfig returns the standard engine configuration
func DefaultConfig() Config {
	return Config{
		TickInterval: DefaultTickInterval.String(),
		DrainBatch:   DefaultDrainBatch,
		MaxEvents:    eventstore.DefaultMaxEvents,
		Retention:    eventstore.DefaultRetention.String(),
	}
}

// Deps holds runtime dependencies for the engine
type Deps struct {
	Name            string
	Config          Config
	NATSClient      *natsclient.Client
	MetricsRegistry *metric.MetricsRegistry
	Logger          *slog.Logger
	Platform        component.PlatformMeta
}

// Engine owns the event window, the flow graph and the layout, and
// mutates them from a single tick goroutine.
type Engine struct {
	name         string
	tickInterval time.Duration
	drainBatch   int
	frameSubject string

	natsClient *natsclient.Client
	logger     *slog.Logger
	warnLimit  *rate.Limiter
	metrics    *engineMetrics

	storeCfg  eventstore.Config
	layoutCfg layout.Config
	styles    *style.Table

	// Simulation state. The tick loop is the only writer; snapshot
	// surfaces take simMu for a consistent read.
	simMu           sync.Mutex
	store           *eventstore.Store
	graph           *flowgraph.Graph
	lay             *layout.Engine
	stats           *eventstore.Stats
	lastStatsSample time.Time

	source EventSource

	// Latest frame and listeners, guarded separately so readers never
	// contend with the simulation.
	frameMu   sync.RWMutex
	latest    Frame
	listeners []func(Frame)

	paused    atomic.Bool
	tick      atomic.Uint64
	running   atomic.Bool
	startTime time.Time
	shutdown  chan struct{}
	done      chan struct{}
	mu        sync.Mutex

	framesOut    atomic.Int64
	eventsIn     atomic.Int64
	errorCount   atomic.Int64
	lastActivity atomic.Value // stores time.Time
}

// Ensure Engine implements all required interfaces
var _ component.Discoverable = (*Engine)(nil)
var _ component.LifecycleComponent = (*Engine)(nil)

// NewEngine creates the simulation engine component.
func NewEngine(deps Deps) (*Engine, error) {
	cfg := deps.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tickInterval := DefaultTickInterval
	if cfg.TickInterval != "" {
		tickInterval, _ = time.ParseDuration(cfg.TickInterval)
	}
	drainBatch := cfg.DrainBatch
	if drainBatch == 0 {
		drainBatch = DefaultDrainBatch
	}

	storeCfg := eventstore.DefaultConfig()
	if cfg.MaxEvents != 0 {
		storeCfg.MaxEvents = cfg.MaxEvents
	}
	if cfg.Retention != "" {
		storeCfg.Retention, _ = time.ParseDuration(cfg.Retention)
	}

	layoutCfg := layout.DefaultConfig()
	if cfg.Layout != nil {
		layoutCfg = *cfg.Layout
	}

	frameSubject := cfg.FrameSubject
	if frameSubject == "" {
		org, platform := deps.Platform.Org, deps.Platform.Platform
		if org == "" {
			org = "local"
		}
		if platform == "" {
			platform = "dev"
		}
		frameSubject = fmt.Sprintf("%s.%s.eventscape.frame.v1", org, platform)
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default().With("component", "engine")
	}

	e := &Engine{
		name:         deps.Name,
		tickInterval: tickInterval,
		drainBatch:   drainBatch,
		frameSubject: frameSubject,
		natsClient:   deps.NATSClient,
		logger:       logger,
		warnLimit:    rate.NewLimiter(rate.Every(5*time.Second), 1),
		metrics:      newEngineMetrics(deps.MetricsRegistry),
		storeCfg:     storeCfg,
		layoutCfg:    layoutCfg,
		styles:       style.NewTable(cfg.Styles),
		startTime:    time.Now(),
	}
	e.lastActivity.Store(time.Time{})
	return e, nil
}

// AttachSource wires the ingest queue into the engine. It must be
// called before Start.
func (e *Engine) AttachSource(source EventSource) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running.Load() {
		return errors.WrapInvalid(errors.ErrAlreadyStarted,
			"engine", "AttachSource", "attach after start")
	}
	e.source = source
	return nil
}

// Meta returns the component metadata
func (e *Engine) Meta() component.Metadata {
	name := e.name
	if name == "" {
		name = "engine"
	}
	return component.Metadata{
		Name:        name,
		Type:        "processor",
		Description: fmt.Sprintf("Event-flow simulation publishing frames to %s", e.frameSubject),
		Version:     "1.0.0",
	}
}

// InputPorts returns the input ports for this component. The ingest
// queue is in-process, so there is no bus-facing input.
func (e *Engine) InputPorts() []component.Port {
	return nil
}

// OutputPorts returns the output ports for this component
func (e *Engine) OutputPorts() []component.Port {
	return []component.Port{
		{
			Name:        "frames",
			Direction:   component.DirectionOutput,
			Required:    false,
			Description: "Per-tick layout frames",
			Config: component.NATSPort{
				Subject: e.frameSubject,
			},
		},
	}
}

// ConfigSchema returns the configuration schema for this component
func (e *Engine) ConfigSchema() component.ConfigSchema {
	return engineConfigSchema
}

// Health returns the current health status
func (e *Engine) Health() component.HealthStatus {
	return component.HealthStatus{
		Healthy:    e.running.Load(),
		LastCheck:  time.Now(),
		ErrorCount: int(e.errorCount.Load()),
		Uptime:     time.Since(e.startTime),
	}
}

// DataFlow returns the current data flow metrics
func (e *Engine) DataFlow() component.FlowMetrics {
	events := e.eventsIn.Load()
	errorCount := e.errorCount.Load()
	lastActivity, _ := e.lastActivity.Load().(time.Time)

	var eventsPerSecond, errorRate float64
	if uptime := time.Since(e.startTime).Seconds(); uptime > 0 {
		eventsPerSecond = float64(events) / uptime
	}
	if events > 0 {
		errorRate = float64(errorCount) / float64(events)
	}

	return component.FlowMetrics{
		MessagesPerSecond: eventsPerSecond,
		ErrorRate:         errorRate,
		LastActivity:      lastActivity,
	}
}

// Initialize builds the simulation state
func (e *Engine) Initialize() error {
	store, err := eventstore.New(e.storeCfg)
	if err != nil {
		return err
	}
	e.simMu.Lock()
	e.store = store
	e.graph = flowgraph.New()
	e.lay = layout.New(e.layoutCfg)
	e.stats = eventstore.NewStats()
	e.simMu.Unlock()
	return nil
}

// Start launches the tick loop
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running.Load() {
		return nil // Already running, idempotent
	}
	if err := ctx.Err(); err != nil {
		return errors.WrapInvalid(err, "engine", "Start", "context validation")
	}
	if e.source == nil {
		return errors.WrapInvalid(errors.ErrMissingConfig,
			"engine", "Start", "event source attachment")
	}
	if e.store == nil {
		return errors.WrapInvalid(errors.ErrNotStarted,
			"engine", "Start", "initialization check")
	}

	e.shutdown = make(chan struct{})
	e.done = make(chan struct{})
	e.running.Store(true)
	e.startTime = time.Now()

	go e.run(ctx)

	e.logger.Info("Engine started",
		"tick_interval", e.tickInterval,
		"drain_batch", e.drainBatch,
		"max_events", e.storeCfg.MaxEvents,
		"retention", e.storeCfg.Retention,
		"frame_subject", e.frameSubject)
	return nil
}

// Stop halts the tick loop
func (e *Engine) Stop(timeout time.Duration) error {
	if !e.running.Load() {
		return nil
	}
	e.running.Store(false)

	e.mu.Lock()
	if e.shutdown != nil {
		select {
		case <-e.shutdown:
		default:
			close(e.shutdown)
		}
	}
	done := e.done
	e.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.WrapTransient(fmt.Errorf("stop timeout after %v", timeout),
			"engine", "Stop", "tick loop shutdown")
	}
}

// Pause stops draining and eviction. Frames keep flowing so consumers
// see a live but frozen window.
func (e *Engine) Pause() { e.paused.Store(true) }

// Resume reverses Pause.
func (e *Engine) Resume() { e.paused.Store(false) }

// Paused reports whether the window is frozen.
func (e *Engine) Paused() bool { return e.paused.Load() }

// AddFrameListener registers an in-process frame consumer. Listeners
// run on the tick goroutine and must be fast.
func (e *Engine) AddFrameListener(fn func(Frame)) {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// Snapshot returns the most recently published frame.
func (e *Engine) Snapshot() Frame {
	e.frameMu.RLock()
	defer e.frameMu.RUnlock()
	return e.latest
}

// SnapshotFiltered builds a frame containing only the events matching
// the filter. Edges survive when both endpoints do.
func (e *Engine) SnapshotFiltered(f eventstore.Filter) Frame {
	now := time.Now()

	e.simMu.Lock()
	defer e.simMu.Unlock()
	if e.store == nil {
		return Frame{}
	}

	events := e.store.SnapshotFiltered(f, now)
	kept := make(map[string]struct{}, len(events))
	for _, ev := range events {
		kept[ev.EventID] = struct{}{}
	}

	var edges []flowgraph.Edge
	for _, edge := range e.graph.Edges() {
		if _, ok := kept[edge.From]; !ok {
			continue
		}
		if _, ok := kept[edge.To]; !ok {
			continue
		}
		edges = append(edges, edge)
	}

	return e.frameFromEvents(e.tick.Load(), events, edges, e.lay.Positions(), now)
}

// AltLayout projects the current window through a one-shot layout
// algorithm. The running simulation is untouched.
func (e *Engine) AltLayout(algo layout.Algorithm) (Frame, error) {
	now := time.Now()

	e.simMu.Lock()
	defer e.simMu.Unlock()
	if e.store == nil {
		return Frame{}, errors.WrapInvalid(errors.ErrNotStarted,
			"engine", "AltLayout", "initialization check")
	}

	events := e.store.Snapshot()
	ids := make([]string, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.EventID)
	}
	edges := e.graph.Edges()

	positions, err := layout.Arrange(algo, ids, edges, e.layoutCfg)
	if err != nil {
		return Frame{}, err
	}
	return e.frameFromEvents(e.tick.Load(), events, edges, positions, now), nil
}

// Stats returns a copy of the running ingest statistics.
func (e *Engine) Stats() eventstore.Snapshot {
	e.simMu.Lock()
	defer e.simMu.Unlock()
	if e.stats == nil {
		return eventstore.Snapshot{}
	}
	return e.stats.Snapshot()
}

// run is the tick loop.
func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.shutdown:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			e.step(ctx, now, dt)
		}
	}
}

// step runs one full tick: drain, cascade evictions, simulate, frame.
func (e *Engine) step(ctx context.Context, now time.Time, dt float64) {
	started := time.Now()

	e.simMu.Lock()
	if !e.paused.Load() {
		for _, ev := range e.source.Drain(e.drainBatch) {
			e.ingest(ev)
		}
		for _, id := range e.store.EvictExpired(now) {
			e.remove(id, "retention")
		}
	}

	e.lay.Step(dt, e.graph.Edges())

	if now.Sub(e.lastStatsSample) >= statsSampleInterval {
		e.stats.Sample(now)
		e.lastStatsSample = now
	}

	frame := e.frameFromEvents(e.tick.Add(1), e.store.Snapshot(), e.graph.Edges(), e.lay.Positions(), now)
	if e.metrics != nil {
		e.metrics.storeSize.Set(float64(e.store.Len()))
		e.metrics.graphNodes.Set(float64(e.graph.NodeCount()))
		e.metrics.graphEdges.Set(float64(e.graph.EdgeCount()))
	}
	e.simMu.Unlock()

	e.frameMu.Lock()
	e.latest = frame
	listeners := append(([]func(Frame))(nil), e.listeners...)
	e.frameMu.Unlock()

	e.publish(ctx, frame)
	for _, fn := range listeners {
		fn(frame)
	}

	if e.metrics != nil {
		e.metrics.tickDuration.Observe(time.Since(started).Seconds())
	}
}

// ingest absorbs one drained event into store, graph and layout,
// cascading any capacity eviction first. Callers hold simMu.
func (e *Engine) ingest(ev eventstore.Event) {
	evicted, err := e.store.Ingest(ev)
	if err != nil {
		e.errorCount.Add(1)
		if e.metrics != nil {
			e.metrics.eventsDuplicate.Inc()
		}
		return
	}
	for _, id := range evicted {
		e.remove(id, "capacity")
	}

	e.stats.Record(&ev)
	e.eventsIn.Add(1)
	e.lastActivity.Store(time.Now())
	if e.metrics != nil {
		e.metrics.eventsIngested.Inc()
	}

	var correlates []string
	if ev.CorrelationID != "" {
		for _, other := range e.store.ByCorrelation(ev.CorrelationID) {
			if other.EventID != ev.EventID {
				correlates = append(correlates, other.EventID)
			}
		}
	}

	e.lay.Place(ev.EventID, ev.CausationID)
	e.graph.OnInsert(ev.EventID, ev.CausationID, correlates)
}

// remove cascades one eviction through graph and layout. The store
// entry is already gone. Callers hold simMu.
func (e *Engine) remove(id, reason string) {
	e.graph.OnRemove(id)
	e.lay.Forget(id)
	if e.metrics != nil {
		e.metrics.eventsEvicted.WithLabelValues(reason).Inc()
	}
}

// frameFromEvents assembles a frame for the given events using the
// given position set. Events without a position are skipped. The tick
// counter only advances in step; read paths reuse the current value.
func (e *Engine) frameFromEvents(
	tick uint64, events []eventstore.Event, edges []flowgraph.Edge,
	positions map[string]layout.Vec3, now time.Time,
) Frame {
	nodes := make([]Node, 0, len(events))
	for _, ev := range events {
		pos, ok := positions[ev.EventID]
		if !ok {
			continue
		}
		st := e.styles.For(ev.Domain)
		nodes = append(nodes, Node{
			ID:          ev.EventID,
			Domain:      ev.Domain,
			EventType:   ev.EventType,
			AggregateID: ev.AggregateID,
			Position:    [3]float64{pos.X, pos.Y, pos.Z},
			Color:       [3]float64{st.Color[0], st.Color[1], st.Color[2]},
			Scale:       st.Scale,
			AgeSeconds:  ev.Age(now).Seconds(),
		})
	}
	return Frame{
		Tick:      tick,
		Time:      now.UTC(),
		NodeCount: len(nodes),
		EdgeCount: len(edges),
		Nodes:     nodes,
		Edges:     edges,
	}
}

// publish sends the frame to the bus. Without a NATS client frames
// only reach in-process listeners.
func (e *Engine) publish(ctx context.Context, frame Frame) {
	if e.natsClient == nil {
		return
	}
	data, err := json.Marshal(frame)
	if err != nil {
		e.errorCount.Add(1)
		return
	}
	if err := e.natsClient.Publish(ctx, e.frameSubject, data); err != nil {
		e.errorCount.Add(1)
		if e.warnLimit.Allow() {
			e.logger.Warn("Frame publish failed", "subject", e.frameSubject, "error", err)
		}
		return
	}
	e.framesOut.Add(1)
	if e.metrics != nil {
		e.metrics.framesPublished.Inc()
	}
}

// CreateProcessor is the component factory. The service manager
// attaches the event source after every component exists.
func CreateProcessor(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	cfg := DefaultConfig()
	if len(rawConfig) > 0 {
		if err := component.SafeUnmarshal(rawConfig, &cfg); err != nil {
			return nil, errors.WrapInvalid(err, "engine-factory", "create", "parse config")
		}
	}

	eng, err := NewEngine(Deps{
		Name:            "engine",
		Config:          cfg,
		NATSClient:      deps.NATSClient,
		MetricsRegistry: deps.MetricsRegistry,
		Logger:          deps.GetLoggerWithComponent("engine"),
		Platform:        deps.Platform,
	})
	if err != nil {
		return nil, err
	}
	return eng, nil
}

// Register registers the engine with the component registry
func Register(registry *component.Registry) error {
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "engine",
		Factory:     CreateProcessor,
		Schema:      engineConfigSchema,
		Type:        "processor",
		Protocol:    "internal",
		Domain:      "simulation",
		Description: "Event-flow simulation engine producing per-tick layout frames",
		Version:     "1.0.0",
	})
}
