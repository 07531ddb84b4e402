package domainevent

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
	"github.com/c360/eventscape/metric"
	"github.com/c360/eventscape/natsclient"
	"github.com/c360/eventscape/pkg/buffer"
	"github.com/c360/eventscape/pkg/cache"
	"github.com/c360/eventscape/pkg/worker"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// Defaults for the ingest pipeline.
const (
	DefaultSubjectPattern = "*.*.event.v1"
	DefaultQueueCapacity  = 1000
	DefaultDecodeWorkers  = 4
	DefaultDedupeTTL      = 60 * time.Second

	dedupeCleanupInterval = 30 * time.Second
	decodeQueueSize       = 256
)

// Metrics holds Prometheus metrics for the event input component
type Metrics struct {
	envelopesReceived  prometheus.Counter
	envelopesMalformed prometheus.Counter
	eventsDeduped      prometheus.Counter
	eventsDropped      prometheus.Counter
	decodeRejected     prometheus.Counter
	queueDepth         prometheus.Gauge
}

// newMetrics creates and registers ingest metrics
func newMetrics(registry *metric.MetricsRegistry) *Metrics {
	// Return nil if no registry provided (nil input = nil feature pattern)
	if registry == nil {
		return nil
	}

	metrics := &Metrics{
		envelopesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventscape",
			Subsystem: "ingest",
			Name:      "envelopes_received_total",
			Help:      "Total envelopes received from the bus",
		}),
		envelopesMalformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventscape",
			Subsystem: "ingest",
			Name:      "envelopes_malformed_total",
			Help:      "Envelopes dropped because they could not be decoded",
		}),
		eventsDeduped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventscape",
			Subsystem: "ingest",
			Name:      "events_deduped_total",
			Help:      "Events dropped as bus redeliveries of a recent event ID",
		}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventscape",
			Subsystem: "ingest",
			Name:      "events_dropped_total",
			Help:      "Events discarded by the full queue (drop-oldest)",
		}),
		decodeRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventscape",
			Subsystem: "ingest",
			Name:      "decode_rejected_total",
			Help:      "Envelopes rejected before decode because the decode pool was full or unavailable",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eventscape",
			Subsystem: "ingest",
			Name:      "queue_depth",
			Help:      "Events waiting in the ingest queue",
		}),
	}

	registry.RegisterCounter("domainevent", "envelopes_received", metrics.envelopesReceived)
	registry.RegisterCounter("domainevent", "envelopes_malformed", metrics.envelopesMalformed)
	registry.RegisterCounter("domainevent", "events_deduped", metrics.eventsDeduped)
	registry.RegisterCounter("domainevent", "events_dropped", metrics.eventsDropped)
	registry.RegisterCounter("domainevent", "decode_rejected", metrics.decodeRejected)
	registry.RegisterGauge("domainevent", "queue_depth", metrics.queueDepth)

	return metrics
}

// rawMessage is a bus message waiting for decode.
type rawMessage struct {
	subject string
	data    []byte
}

// eventSchema is generated from InputConfig struct tags using reflection
var eventSchema = component.GenerateConfigSchema(reflect.TypeOf(InputConfig{}))

// InputConfig holds configuration for the event input component
type InputConfig struct {
	// Port configuration. The input port's subject is the subscribe
	// pattern; a jetstream input port with a stream name switches the
	// component into replay mode.
	Ports *component.PortConfig `json:"ports" schema:"type:ports,description:Port configuration,category:basic"`

	// QueueCapacity bounds the queue between the bus and the engine.
	QueueCapacity int `json:"queue_capacity,omitempty" schema:"type:int,description:Ingest queue capacity,default:1000,min:1,category:basic"`

	// DecodeWorkers sets envelope decode parallelism.
	DecodeWorkers int `json:"decode_workers,omitempty" schema:"type:int,description:Envelope decode workers,default:4,min:1,category:advanced"`

	// DedupeTTL is how long an event ID stays in the dedupe cache.
	DedupeTTL string `json:"dedupe_ttl,omitempty" schema:"type:string,description:Dedupe cache TTL,default:60s,category:advanced"`

	// MaxPayloadBytes caps the raw envelope size.
	MaxPayloadBytes int `json:"max_payload_bytes,omitempty" schema:"type:int,description:Envelope size cap in bytes,default:65536,min:1,category:advanced"`
}

// Validate implements component.Validatable
func (c *InputConfig) Validate() error {
	if c.QueueCapacity < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"InputConfig", "Validate", "queue_capacity must be positive")
	}
	if c.DecodeWorkers < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"InputConfig", "Validate", "decode_workers must be positive")
	}
	if c.DedupeTTL != "" {
		if _, err := time.ParseDuration(c.DedupeTTL); err != nil {
			return errors.WrapInvalid(err, "InputConfig", "Validate", "dedupe_ttl parsing")
		}
	}
	if c.Ports != nil {
		for _, input := range c.Ports.Inputs {
			if input.Type == "jetstream" && input.StreamName == "" {
				return errors.WrapInvalid(errors.ErrInvalidConfig,
					"InputConfig", "Validate", "jetstream input requires stream_name")
			}
		}
	}
	return nil
}

// DefaultConfig returns sensible defaults for the event input
func DefaultConfig() InputConfig {
	return InputConfig{
		Ports: &component.PortConfig{
			Inputs: []component.PortDefinition{
				{
					Name:        "events",
					Type:        "nats",
					Subject:     DefaultSubjectPattern,
					Required:    true,
					Description: "Domain event envelopes (domain.aggregate.event.version)",
				},
			},
		},
		QueueCapacity:   DefaultQueueCapacity,
		DecodeWorkers:   DefaultDecodeWorkers,
		DedupeTTL:       DefaultDedupeTTL.String(),
		MaxPayloadBytes: DefaultMaxPayloadBytes,
	}
}

// getConfiguredSource extracts the subscribe pattern and optional
// stream name from the port config.
func (c *InputConfig) getConfiguredSource() (subject, stream string) {
	if c.Ports != nil {
		for _, input := range c.Ports.Inputs {
			if input.Subject == "" {
				continue
			}
			subject = input.Subject
			if input.Type == "jetstream" {
				stream = input.StreamName
			}
			break
		}
	}
	if subject == "" {
		subject = DefaultSubjectPattern
	}
	return subject, stream
}

// InputDeps holds runtime dependencies for the event input component
type InputDeps struct {
	Name            string
	Config          InputConfig
	NATSClient      *natsclient.Client
	MetricsRegistry *metric.MetricsRegistry
	Logger          *slog.Logger
}

// Input subscribes to domain event envelopes and queues decoded events
// for the engine.
type Input struct {
	name            string
	subject         string
	stream          string
	dedupeTTL       time.Duration
	decodeWorkers   int
	maxPayloadBytes int

	natsClient *natsclient.Client
	logger     *slog.Logger
	warnLimit  *rate.Limiter

	queue  buffer.Buffer[eventstore.Event]
	dedupe cache.Cache[struct{}]
	pool   *worker.Pool[rawMessage]

	// Lifecycle management
	shutdown  chan struct{}
	running   atomic.Bool
	natsDown  atomic.Bool
	startTime time.Time
	mu        sync.RWMutex

	// Flow counters
	messagesReceived atomic.Int64
	bytesReceived    atomic.Int64
	errorCount       atomic.Int64
	lastActivity     atomic.Value // stores time.Time

	metrics *Metrics
}

// Ensure Input implements all required interfaces
var _ component.Discoverable = (*Input)(nil)
var _ component.LifecycleComponent = (*Input)(nil)

// NewInput creates the event input component.
func NewInput(deps InputDeps) (*Input, error) {
	cfg := deps.Config
	subject, stream := cfg.getConfiguredSource()

	capacity := cfg.QueueCapacity
	if capacity == 0 {
		capacity = DefaultQueueCapacity
	}
	workers := cfg.DecodeWorkers
	if workers == 0 {
		workers = DefaultDecodeWorkers
	}
	maxPayload := cfg.MaxPayloadBytes
	if maxPayload == 0 {
		maxPayload = DefaultMaxPayloadBytes
	}
	dedupeTTL := DefaultDedupeTTL
	if cfg.DedupeTTL != "" {
		parsed, err := time.ParseDuration(cfg.DedupeTTL)
		if err != nil {
			return nil, errors.WrapInvalid(err, "domainevent", "NewInput", "dedupe_ttl parsing")
		}
		dedupeTTL = parsed
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default().With("component", "domainevent")
	}

	metrics := newMetrics(deps.MetricsRegistry)

	in := &Input{
		name:            deps.Name,
		subject:         subject,
		stream:          stream,
		dedupeTTL:       dedupeTTL,
		decodeWorkers:   workers,
		maxPayloadBytes: maxPayload,
		natsClient:      deps.NATSClient,
		logger:          logger,
		warnLimit:       rate.NewLimiter(rate.Every(time.Second), 1),
		startTime:       time.Now(),
		metrics:         metrics,
	}
	in.lastActivity.Store(time.Time{})

	queueOpts := []buffer.Option[eventstore.Event]{
		buffer.WithOverflowPolicy[eventstore.Event](buffer.DropOldest),
		buffer.WithDropCallback[eventstore.Event](func(eventstore.Event) {
			if in.metrics != nil {
				in.metrics.eventsDropped.Inc()
			}
		}),
	}
	if deps.MetricsRegistry != nil {
		queueOpts = append(queueOpts, buffer.WithMetrics[eventstore.Event](deps.MetricsRegistry, "domainevent_queue"))
	}
	queue, err := buffer.NewCircularBuffer(capacity, queueOpts...)
	if err != nil {
		return nil, errors.WrapInvalid(err, "domainevent", "NewInput", "queue creation")
	}
	in.queue = queue

	var poolOpts []worker.Option[rawMessage]
	if deps.MetricsRegistry != nil {
		poolOpts = append(poolOpts, worker.WithMetricsRegistry[rawMessage](deps.MetricsRegistry, "domainevent_decode"))
	}
	in.pool = worker.NewPool(workers, decodeQueueSize, in.decode, poolOpts...)

	return in, nil
}

// Meta returns the component metadata
func (in *Input) Meta() component.Metadata {
	name := in.name
	if name == "" {
		name = "domainevent-input"
	}
	return component.Metadata{
		Name:        name,
		Type:        "input",
		Description: fmt.Sprintf("Domain event ingest from %s", in.subject),
		Version:     "1.0.0",
	}
}

// InputPorts returns the input ports for this component
func (in *Input) InputPorts() []component.Port {
	port := component.Port{
		Name:        "events",
		Direction:   component.DirectionInput,
		Required:    true,
		Description: "Domain event envelopes from the bus",
		Config: component.NATSPort{
			Subject: in.subject,
		},
	}
	if in.stream != "" {
		port.Config = component.JetStreamPort{
			StreamName:    in.stream,
			Subjects:      []string{in.subject},
			DeliverPolicy: "all",
		}
	}
	return []component.Port{port}
}

// OutputPorts returns the output ports for this component. The queue
// is drained in-process by the engine, so there is no bus-facing
// output.
func (in *Input) OutputPorts() []component.Port {
	return nil
}

// ConfigSchema returns the configuration schema for this component
func (in *Input) ConfigSchema() component.ConfigSchema {
	return eventSchema
}

// Health returns the current health status. A lost bus connection is
// terminal for the service, so it reports unhealthy here and the
// manager takes it from there.
func (in *Input) Health() component.HealthStatus {
	running := in.running.Load()
	natsDown := in.natsDown.Load()

	var lastError string
	if natsDown {
		lastError = errors.WrapFatal(errors.ErrConnectionLost,
			"domainevent", "Health", "bus connection").Error()
	}

	return component.HealthStatus{
		Healthy:    running && !natsDown,
		LastCheck:  time.Now(),
		ErrorCount: int(in.errorCount.Load()),
		LastError:  lastError,
		Uptime:     time.Since(in.startTime),
	}
}

// DataFlow returns the current data flow metrics
func (in *Input) DataFlow() component.FlowMetrics {
	messages := in.messagesReceived.Load()
	bytes := in.bytesReceived.Load()
	errorCount := in.errorCount.Load()
	lastActivity, _ := in.lastActivity.Load().(time.Time)

	var messagesPerSecond, bytesPerSecond, errorRate float64
	if uptime := time.Since(in.startTime).Seconds(); uptime > 0 {
		messagesPerSecond = float64(messages) / uptime
		bytesPerSecond = float64(bytes) / uptime
	}
	if messages > 0 {
		errorRate = float64(errorCount) / float64(messages)
	}

	return component.FlowMetrics{
		MessagesPerSecond: messagesPerSecond,
		BytesPerSecond:    bytesPerSecond,
		ErrorRate:         errorRate,
		LastActivity:      lastActivity,
	}
}

// Initialize validates wiring before Start
func (in *Input) Initialize() error {
	if in.natsClient == nil {
		return errors.WrapInvalid(errors.ErrMissingConfig,
			"domainevent", "Initialize", "NATS client validation")
	}
	if in.subject == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig,
			"domainevent", "Initialize", "subject validation")
	}
	return nil
}

// Start subscribes to the bus and begins decoding envelopes
func (in *Input) Start(ctx context.Context) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.running.Load() {
		return nil // Already running, idempotent
	}
	if err := ctx.Err(); err != nil {
		return errors.WrapInvalid(err, "domainevent", "Start", "context validation")
	}

	in.shutdown = make(chan struct{})

	dedupe, err := cache.NewTTL[struct{}](ctx, in.dedupeTTL, dedupeCleanupInterval)
	if err != nil {
		return errors.WrapInvalid(err, "domainevent", "Start", "dedupe cache creation")
	}
	in.dedupe = dedupe

	if err := in.pool.Start(ctx); err != nil {
		_ = dedupe.Close()
		return errors.WrapTransient(err, "domainevent", "Start", "decode pool startup")
	}

	in.natsClient.OnHealthChange(func(healthy bool) {
		in.natsDown.Store(!healthy)
		if !healthy {
			in.errorCount.Add(1)
			in.logger.Error("Bus connection lost", "subject", in.subject)
		}
	})

	if in.stream != "" {
		err = in.natsClient.ConsumeStreamWithSubject(ctx, in.stream, in.subject, func(subject string, data []byte) {
			in.receive(subject, data)
		})
	} else {
		err = in.natsClient.SubscribeWithSubject(ctx, in.subject, func(_ context.Context, subject string, data []byte) {
			in.receive(subject, data)
		})
	}
	if err != nil {
		_ = in.pool.Stop(time.Second)
		_ = dedupe.Close()
		return errors.WrapTransient(err, "domainevent", "Start", "bus subscription")
	}

	in.running.Store(true)
	in.startTime = time.Now()
	in.logger.Info("Event ingest started",
		"subject", in.subject,
		"stream", in.stream,
		"queue_capacity", in.queue.Capacity(),
		"decode_workers", in.decodeWorkers)
	return nil
}

// Stop drains the decode pool. The event queue stays open so already
// decoded events remain drainable and a later Start can reuse it.
func (in *Input) Stop(timeout time.Duration) error {
	if !in.running.Load() {
		return nil
	}
	in.running.Store(false)

	in.mu.Lock()
	if in.shutdown != nil {
		select {
		case <-in.shutdown:
		default:
			close(in.shutdown)
		}
	}
	in.mu.Unlock()

	var stopErr error
	if err := in.pool.Stop(timeout); err != nil {
		stopErr = errors.WrapTransient(err, "domainevent", "Stop", "decode pool shutdown")
	}
	if in.dedupe != nil {
		_ = in.dedupe.Close()
	}
	return stopErr
}

// Drain pops up to max decoded events from the queue. It never blocks;
// an empty queue returns an empty slice.
func (in *Input) Drain(max int) []eventstore.Event {
	events := in.queue.ReadBatch(max)
	if in.metrics != nil {
		in.metrics.queueDepth.Set(float64(in.queue.Size()))
	}
	return events
}

// QueueDepth reports the number of events waiting for the engine.
func (in *Input) QueueDepth() int {
	return in.queue.Size()
}

// receive is the bus callback. It only counts and hands off; all real
// work happens on the decode pool.
func (in *Input) receive(subject string, data []byte) {
	if !in.running.Load() {
		return
	}

	in.messagesReceived.Add(1)
	in.bytesReceived.Add(int64(len(data)))
	in.lastActivity.Store(time.Now())
	if in.metrics != nil {
		in.metrics.envelopesReceived.Inc()
	}

	// The pool queue owns the bytes after Submit; NATS reuses its
	// buffer.
	owned := make([]byte, len(data))
	copy(owned, data)

	if err := in.pool.Submit(rawMessage{subject: subject, data: owned}); err != nil {
		in.errorCount.Add(1)
		if in.metrics != nil {
			in.metrics.decodeRejected.Inc()
		}
	}
}

// decode runs on the worker pool: envelope decode, dedupe, enqueue.
func (in *Input) decode(_ context.Context, msg rawMessage) error {
	event, err := decodeEnvelope(msg.subject, msg.data, in.maxPayloadBytes, time.Now())
	if err != nil {
		in.errorCount.Add(1)
		if in.metrics != nil {
			in.metrics.envelopesMalformed.Inc()
		}
		if in.warnLimit.Allow() {
			in.logger.Warn("Dropping malformed envelope",
				"subject", msg.subject,
				"bytes", len(msg.data),
				"error", err)
		}
		// Malformed envelopes are dropped, never retried.
		return nil
	}

	if fresh, _ := in.dedupe.Set(event.EventID, struct{}{}); !fresh {
		if in.metrics != nil {
			in.metrics.eventsDeduped.Inc()
		}
		return nil
	}

	if err := in.queue.Write(event); err != nil {
		in.errorCount.Add(1)
		return nil
	}
	if in.metrics != nil {
		in.metrics.queueDepth.Set(float64(in.queue.Size()))
	}
	return nil
}

// CreateInput is the component factory
func CreateInput(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	cfg := DefaultConfig()
	if len(rawConfig) > 0 {
		if err := component.SafeUnmarshal(rawConfig, &cfg); err != nil {
			return nil, errors.WrapInvalid(err, "domainevent-factory", "create", "parse config")
		}
	}

	in, err := NewInput(InputDeps{
		Name:            "domainevent",
		Config:          cfg,
		NATSClient:      deps.NATSClient,
		MetricsRegistry: deps.MetricsRegistry,
		Logger:          deps.GetLoggerWithComponent("domainevent"),
	})
	if err != nil {
		return nil, err
	}
	return in, nil
}

// Register registers the event input with the component registry
func Register(registry *component.Registry) error {
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "domainevent",
		Factory:     CreateInput,
		Schema:      eventSchema,
		Type:        "input",
		Protocol:    "nats",
		Domain:      "events",
		Description: "Domain event envelope ingest feeding the simulation queue",
		Version:     "1.0.0",
	})
}
