package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/eventscape/component"
	"github.com/c360/eventscape/errors"
	"github.com/c360/eventscape/metric"
	"github.com/c360/eventscape/natsclient"
	"github.com/c360/eventscape/pkg/buffer"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// Defaults for the broadcast server.
const (
	DefaultPort    = 8081
	DefaultPath    = "/ws"
	DefaultSubject = "*.*.eventscape.frame.v1"

	pingInterval    = 30 * time.Second
	readDeadline    = 60 * time.Second
	writeTimeout    = 10 * time.Second
	pendingCapacity = 100
)

// websocketSchema is generated from Config struct tags using reflection
var websocketSchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// Config holds configuration for the WebSocket output component
type Config struct {
	// Ports: the input port subject is the NATS frame subscription,
	// the output port subject carries the listen URL
	// (http://host:port/path).
	Ports *component.PortConfig `json:"ports" schema:"type:ports,description:Port configuration,category:basic"`
}

// Validate implements component.Validatable
func (c *Config) Validate() error {
	port, _, _, _ := c.configuredValues()
	if port != 0 {
		if err := component.ValidateNetworkConfig(port, ""); err != nil {
			return errors.WrapInvalid(err, "Config", "Validate", "listen port validation")
		}
	}
	return nil
}

// DefaultConfig returns sensible defaults for the WebSocket output
func DefaultConfig() Config {
	return Config{
		Ports: &component.PortConfig{
			Inputs: []component.PortDefinition{
				{
					Name:        "frames",
					Type:        "nats",
					Subject:     DefaultSubject,
					Required:    true,
					Description: "Layout frames from the engine",
				},
			},
			Outputs: []component.PortDefinition{
				{
					Name:        "ws_server",
					Type:        "network",
					Subject:     fmt.Sprintf("http://0.0.0.0:%d%s", DefaultPort, DefaultPath),
					Required:    true,
					Description: "WebSocket endpoint serving frame broadcasts",
				},
			},
		},
	}
}

// configuredValues extracts listen port/path and subscribe subject
// from the port config, applying defaults for anything unset.
func (c *Config) configuredValues() (port int, path, subject string, ok bool) {
	if c.Ports != nil {
		for _, output := range c.Ports.Outputs {
			if output.Subject == "" {
				continue
			}
			var parsedPort int
			var parsedPath string
			if _, err := fmt.Sscanf(output.Subject, "http://0.0.0.0:%d%s", &parsedPort, &parsedPath); err == nil {
				port = parsedPort
				path = parsedPath
				ok = true
			}
			break
		}
		for _, input := range c.Ports.Inputs {
			if input.Subject != "" {
				subject = input.Subject
				break
			}
		}
	}
	if port == 0 {
		port = DefaultPort
	}
	if path == "" {
		path = DefaultPath
	}
	if subject == "" {
		subject = DefaultSubject
	}
	return port, path, subject, ok
}

// Metrics holds Prometheus metrics for the WebSocket output component
type Metrics struct {
	clientsConnected prometheus.Gauge
	connectionsTotal prometheus.Counter
	framesBroadcast  prometheus.Counter
	broadcastLatency prometheus.Histogram
	errorsTotal      *prometheus.CounterVec
}

// newMetrics creates and registers WebSocket output metrics
func newMetrics(registry *metric.MetricsRegistry) *Metrics {
	// Return nil if no registry provided (nil input = nil feature pattern)
	if registry == nil {
		return nil
	}

	m := &Metrics{
		clientsConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eventscape",
			Subsystem: "websocket",
			Name:      "clients_connected",
			Help:      "Currently connected WebSocket clients",
		}),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventscape",
			Subsystem: "websocket",
			Name:      "connections_total",
			Help:      "Total WebSocket connections accepted",
		}),
		framesBroadcast: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventscape",
			Subsystem: "websocket",
			Name:      "frames_broadcast_total",
			Help:      "Frames fanned out to client buffers",
		}),
		broadcastLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "eventscape",
			Subsystem: "websocket",
			Name:      "broadcast_duration_seconds",
			Help:      "Time to fan a frame out to all client buffers",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventscape",
			Subsystem: "websocket",
			Name:      "errors_total",
			Help:      "Errors by stage",
		}, []string{"stage"}), // stage: upgrade, write, server
	}

	registry.RegisterGauge("websocket", "clients_connected", m.clientsConnected)
	registry.RegisterCounter("websocket", "connections_total", m.connectionsTotal)
	registry.RegisterCounter("websocket", "frames_broadcast", m.framesBroadcast)
	registry.RegisterHistogram("websocket", "broadcast_latency", m.broadcastLatency)
	registry.RegisterCounterVec("websocket", "errors_total", m.errorsTotal)

	return m
}

// clientInfo holds the state for one connected WebSocket client
type clientInfo struct {
	conn        *websocket.Conn
	connectedAt time.Time
	lastPong    atomic.Value // stores time.Time
	closed      atomic.Bool
	closeOnce   sync.Once
	writeMu     sync.Mutex // Protects concurrent writes to the same connection

	// pending decouples the broadcast path from the client's socket;
	// the writer goroutine drains it on notify.
	pending buffer.Buffer[[]byte]
	notify  chan struct{}
}

// OutputDeps holds runtime dependencies for the WebSocket output component
type OutputDeps struct {
	Name            string
	Config          Config
	NATSClient      *natsclient.Client
	MetricsRegistry *metric.MetricsRegistry
	Logger          *slog.Logger
}

// Output implements a WebSocket server that broadcasts frames from the
// bus to connected clients.
type Output struct {
	name    string
	port    int
	path    string
	subject string

	natsClient *natsclient.Client
	logger     *slog.Logger

	server    *http.Server
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]*clientInfo
	clientsMu sync.RWMutex

	// latest is the most recent frame, replayed to new clients.
	latest   []byte
	latestMu sync.RWMutex

	// Lifecycle management
	shutdown    chan struct{}
	done        chan struct{}
	running     atomic.Bool
	startTime   time.Time
	lifecycleMu sync.Mutex
	wg          sync.WaitGroup

	// Flow counters
	framesSent   atomic.Int64
	bytesSent    atomic.Int64
	errorCount   atomic.Int64
	lastActivity atomic.Value // stores time.Time

	metrics *Metrics
}

// Ensure Output implements all required interfaces
var _ component.Discoverable = (*Output)(nil)
var _ component.LifecycleComponent = (*Output)(nil)

// NewOutput creates the WebSocket output component.
func NewOutput(deps OutputDeps) *Output {
	port, path, subject, _ := deps.Config.configuredValues()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default().With("component", "websocket-output", "port", port)
	}

	w := &Output{
		name:       deps.Name,
		port:       port,
		path:       path,
		subject:    subject,
		natsClient: deps.NATSClient,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Frames are public broadcast data; origin checks are left
			// to a fronting proxy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients:   make(map[*websocket.Conn]*clientInfo),
		startTime: time.Now(),
		metrics:   newMetrics(deps.MetricsRegistry),
	}
	w.lastActivity.Store(time.Time{})
	return w
}

// Meta returns the component metadata
func (w *Output) Meta() component.Metadata {
	name := w.name
	if name == "" {
		name = fmt.Sprintf("websocket-output-%d", w.port)
	}
	return component.Metadata{
		Name:        name,
		Type:        "output",
		Description: fmt.Sprintf("WebSocket frame broadcast on :%d%s from %s", w.port, w.path, w.subject),
		Version:     "1.0.0",
	}
}

// InputPorts returns the input ports for this component
func (w *Output) InputPorts() []component.Port {
	return []component.Port{
		{
			Name:        "frames",
			Direction:   component.DirectionInput,
			Required:    true,
			Description: "Layout frames from the engine",
			Config: component.NATSPort{
				Subject: w.subject,
			},
		},
	}
}

// OutputPorts returns the output ports for this component
func (w *Output) OutputPorts() []component.Port {
	return []component.Port{
		{
			Name:        "ws_server",
			Direction:   component.DirectionOutput,
			Required:    true,
			Description: "WebSocket endpoint serving frame broadcasts",
			Config: component.NetworkPort{
				Protocol: "tcp",
				Host:     "0.0.0.0",
				Port:     w.port,
			},
		},
	}
}

// ConfigSchema returns the configuration schema for this component
func (w *Output) ConfigSchema() component.ConfigSchema {
	return websocketSchema
}

// Health returns the current health status
func (w *Output) Health() component.HealthStatus {
	return component.HealthStatus{
		Healthy:    w.running.Load(),
		LastCheck:  time.Now(),
		ErrorCount: int(w.errorCount.Load()),
		Uptime:     time.Since(w.startTime),
	}
}

// DataFlow returns the current data flow metrics
func (w *Output) DataFlow() component.FlowMetrics {
	frames := w.framesSent.Load()
	bytes := w.bytesSent.Load()
	errorCount := w.errorCount.Load()
	lastActivity, _ := w.lastActivity.Load().(time.Time)

	var framesPerSecond, bytesPerSecond, errorRate float64
	if uptime := time.Since(w.startTime).Seconds(); uptime > 0 {
		framesPerSecond = float64(frames) / uptime
		bytesPerSecond = float64(bytes) / uptime
	}
	if frames > 0 {
		errorRate = float64(errorCount) / float64(frames)
	}

	return component.FlowMetrics{
		MessagesPerSecond: framesPerSecond,
		BytesPerSecond:    bytesPerSecond,
		ErrorRate:         errorRate,
		LastActivity:      lastActivity,
	}
}

// Initialize validates wiring before Start. A nil NATS client is
// allowed: the server then only replays frames pushed via Broadcast.
func (w *Output) Initialize() error {
	if err := component.ValidateNetworkConfig(w.port, ""); err != nil {
		return errors.WrapInvalid(err, "websocket-output", "Initialize", "port validation")
	}
	if !strings.HasPrefix(w.path, "/") {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"websocket-output", "Initialize", "path validation")
	}
	return nil
}

// Start subscribes to the frame subject and launches the server
func (w *Output) Start(ctx context.Context) error {
	w.lifecycleMu.Lock()
	defer w.lifecycleMu.Unlock()

	if w.running.Load() {
		return nil // Already running, idempotent
	}
	if err := ctx.Err(); err != nil {
		return errors.WrapInvalid(err, "websocket-output", "Start", "context validation")
	}

	w.shutdown = make(chan struct{})

	if w.natsClient != nil {
		err := w.natsClient.Subscribe(ctx, w.subject, func(_ context.Context, data []byte) {
			w.broadcast(data)
		})
		if err != nil {
			return errors.WrapTransient(err, "websocket-output", "Start", "frame subscription")
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc(w.path, w.handleWebSocket)
	w.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", w.port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	w.running.Store(true)
	w.startTime = time.Now()

	w.done = make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)
	g.Go(w.runServer)
	g.Go(func() error { return w.maintainClients(gctx) })
	go func() {
		defer close(w.done)
		if err := g.Wait(); err != nil {
			w.logger.Error("WebSocket background loop failed", "error", err)
		}
	}()

	w.logger.Info("WebSocket broadcast started",
		"port", w.port,
		"path", w.path,
		"subject", w.subject)
	return nil
}

// Stop closes every client and shuts the server down
func (w *Output) Stop(timeout time.Duration) error {
	w.lifecycleMu.Lock()
	defer w.lifecycleMu.Unlock()

	if !w.running.Load() {
		return nil
	}
	w.running.Store(false)

	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	var stopErr error
	if w.server != nil {
		if err := w.server.Shutdown(ctx); err != nil {
			stopErr = errors.WrapTransient(err, "websocket-output", "Stop", "server shutdown")
		}
	}

	w.closeAllClients()

	finished := make(chan struct{})
	go func() {
		if w.done != nil {
			<-w.done
		}
		w.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-ctx.Done():
		stopErr = errors.WrapTransient(fmt.Errorf("stop timeout after %v", timeout),
			"websocket-output", "Stop", "goroutine shutdown")
	}
	return stopErr
}

// ClientCount returns the number of connected clients.
func (w *Output) ClientCount() int {
	w.clientsMu.RLock()
	defer w.clientsMu.RUnlock()
	return len(w.clients)
}

// broadcast fans one frame out to every client's pending buffer and
// records it as the latest frame for new connections.
func (w *Output) broadcast(data []byte) {
	if !w.running.Load() {
		return
	}
	started := time.Now()

	owned := make([]byte, len(data))
	copy(owned, data)

	w.latestMu.Lock()
	w.latest = owned
	w.latestMu.Unlock()

	w.clientsMu.RLock()
	infos := make([]*clientInfo, 0, len(w.clients))
	for _, info := range w.clients {
		if !info.closed.Load() {
			infos = append(infos, info)
		}
	}
	w.clientsMu.RUnlock()

	for _, info := range infos {
		info.enqueue(owned)
	}

	w.framesSent.Add(1)
	w.lastActivity.Store(time.Now())
	if w.metrics != nil {
		w.metrics.framesBroadcast.Inc()
		w.metrics.broadcastLatency.Observe(time.Since(started).Seconds())
	}
}

// enqueue adds a frame to the client's pending buffer and nudges its
// writer. The buffer drops the oldest frame when full; for a renderer,
// newest wins.
func (c *clientInfo) enqueue(data []byte) {
	if err := c.pending.Write(data); err != nil {
		return
	}
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// runServer serves WebSocket upgrades until shutdown
func (w *Output) runServer() error {
	if err := w.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		w.errorCount.Add(1)
		if w.metrics != nil {
			w.metrics.errorsTotal.WithLabelValues("server").Inc()
		}
		return errors.WrapTransient(err, "websocket-output", "runServer", "serve")
	}
	return nil
}

// handleWebSocket upgrades a connection and registers the client
func (w *Output) handleWebSocket(wr http.ResponseWriter, r *http.Request) {
	conn, err := w.upgrader.Upgrade(wr, r, nil)
	if err != nil {
		w.errorCount.Add(1)
		if w.metrics != nil {
			w.metrics.errorsTotal.WithLabelValues("upgrade").Inc()
		}
		return
	}

	pending, err := buffer.NewCircularBuffer[[]byte](pendingCapacity,
		buffer.WithOverflowPolicy[[]byte](buffer.DropOldest),
	)
	if err != nil {
		_ = conn.Close()
		w.errorCount.Add(1)
		return
	}

	info := &clientInfo{
		conn:        conn,
		connectedAt: time.Now(),
		pending:     pending,
		notify:      make(chan struct{}, 1),
	}
	info.lastPong.Store(time.Now())

	w.clientsMu.Lock()
	w.clients[conn] = info
	clientCount := len(w.clients)
	w.clientsMu.Unlock()

	if w.metrics != nil {
		w.metrics.connectionsTotal.Inc()
		w.metrics.clientsConnected.Set(float64(clientCount))
	}
	w.logger.Debug("Client connected", "remote", r.RemoteAddr, "clients", clientCount)

	// A new client starts from the current state of the world.
	w.latestMu.RLock()
	latest := w.latest
	w.latestMu.RUnlock()
	if latest != nil {
		info.enqueue(latest)
	}

	w.wg.Add(2)
	go w.clientWriter(info)
	go w.clientReader(info)
}

// clientWriter drains the client's pending buffer onto the socket.
func (w *Output) clientWriter(info *clientInfo) {
	defer w.wg.Done()

	for {
		select {
		case <-w.shutdown:
			return
		case <-info.notify:
		}

		for {
			data, ok := info.pending.Read()
			if !ok {
				break
			}
			if err := w.writeFrame(info, data); err != nil {
				w.removeClient(info)
				return
			}
		}
	}
}

// clientReader discards inbound messages and tracks pongs so dead
// connections get reaped by the read deadline.
func (w *Output) clientReader(info *clientInfo) {
	defer w.wg.Done()
	defer w.removeClient(info)

	info.conn.SetPongHandler(func(string) error {
		info.lastPong.Store(time.Now())
		_ = info.conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	for {
		select {
		case <-w.shutdown:
			return
		default:
		}

		_ = info.conn.SetReadDeadline(time.Now().Add(readDeadline))
		if _, _, err := info.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeFrame sends one frame as a text message under the write mutex.
func (w *Output) writeFrame(info *clientInfo, data []byte) error {
	info.writeMu.Lock()
	defer info.writeMu.Unlock()

	_ = info.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := info.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		w.errorCount.Add(1)
		if w.metrics != nil {
			w.metrics.errorsTotal.WithLabelValues("write").Inc()
		}
		return err
	}
	w.bytesSent.Add(int64(len(data)))
	return nil
}

// removeClient closes a connection and forgets it, exactly once.
func (w *Output) removeClient(info *clientInfo) {
	info.closeOnce.Do(func() {
		info.closed.Store(true)
		_ = info.conn.Close()
		_ = info.pending.Close()

		w.clientsMu.Lock()
		delete(w.clients, info.conn)
		clientCount := len(w.clients)
		w.clientsMu.Unlock()

		if w.metrics != nil {
			w.metrics.clientsConnected.Set(float64(clientCount))
		}
		w.logger.Debug("Client disconnected", "clients", clientCount)
	})
}

// closeAllClients disconnects every client during shutdown
func (w *Output) closeAllClients() {
	w.clientsMu.RLock()
	infos := make([]*clientInfo, 0, len(w.clients))
	for _, info := range w.clients {
		infos = append(infos, info)
	}
	w.clientsMu.RUnlock()

	for _, info := range infos {
		w.removeClient(info)
	}
}

// maintainClients pings clients on an interval; unanswered pings hit
// the read deadline and the reader reaps the connection.
func (w *Output) maintainClients(ctx context.Context) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.shutdown:
			return nil
		case <-ticker.C:
			w.pingClients()
		}
	}
}

// pingClients sends ping messages to all connected clients
func (w *Output) pingClients() {
	w.clientsMu.RLock()
	infos := make([]*clientInfo, 0, len(w.clients))
	for _, info := range w.clients {
		if !info.closed.Load() {
			infos = append(infos, info)
		}
	}
	w.clientsMu.RUnlock()

	for _, info := range infos {
		info.writeMu.Lock()
		_ = info.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		err := info.conn.WriteMessage(websocket.PingMessage, nil)
		info.writeMu.Unlock()
		if err != nil {
			w.removeClient(info)
		}
	}
}

// CreateOutput is the component factory
func CreateOutput(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	cfg := DefaultConfig()
	if len(rawConfig) > 0 {
		if err := component.SafeUnmarshal(rawConfig, &cfg); err != nil {
			return nil, errors.WrapInvalid(err, "websocket-output-factory", "create", "parse config")
		}
	}

	return NewOutput(OutputDeps{
		Name:            "websocket",
		Config:          cfg,
		NATSClient:      deps.NATSClient,
		MetricsRegistry: deps.MetricsRegistry,
		Logger:          deps.GetLoggerWithComponent("websocket-output"),
	}), nil
}

// Register registers the WebSocket output with the component registry
func Register(registry *component.Registry) error {
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "websocket",
		Factory:     CreateOutput,
		Schema:      websocketSchema,
		Type:        "output",
		Protocol:    "websocket",
		Domain:      "delivery",
		Description: "WebSocket broadcast of per-tick layout frames",
		Version:     "1.0.0",
	})
}
