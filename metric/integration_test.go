package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockComponent simulates a component that registers its own metrics
type mockComponent struct {
	name    string
	metrics struct {
		eventsIngested prometheus.Counter
		queueDepth     prometheus.Gauge
	}
}

func newMockComponent(name string) *mockComponent {
	return &mockComponent{name: name}
}

// RegisterMetrics registers component-specific metrics
func (m *mockComponent) RegisterMetrics(registrar MetricsRegistrar) error {
	m.metrics.eventsIngested = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "eventscape",
		Subsystem: "mock_component",
		Name:      "events_ingested_total",
		Help:      "Total number of events ingested",
	})

	err := registrar.RegisterCounter(m.name, "events_ingested_total", m.metrics.eventsIngested)
	if err != nil {
		return err
	}

	m.metrics.queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "eventscape",
		Subsystem: "mock_component",
		Name:      "queue_depth",
		Help:      "Current depth of the ingest queue",
	})

	return registrar.RegisterGauge(m.name, "queue_depth", m.metrics.queueDepth)
}

// Ingest simulates event processing and updates metrics
func (m *mockComponent) Ingest(events int, queueDepth int) {
	m.metrics.eventsIngested.Add(float64(events))
	m.metrics.queueDepth.Set(float64(queueDepth))
}

func TestMetricsIntegration_ComponentRegistration(t *testing.T) {
	registry := NewMetricsRegistry()

	mock := newMockComponent("test-component")

	err := mock.RegisterMetrics(registry)
	require.NoError(t, err)

	mock.Ingest(10, 5)

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	foundMetrics := make(map[string]bool)
	for _, mf := range metricFamilies {
		foundMetrics[mf.GetName()] = true
	}

	assert.True(t, foundMetrics["eventscape_mock_component_events_ingested_total"],
		"Custom events_ingested metric should be registered")
	assert.True(t, foundMetrics["eventscape_mock_component_queue_depth"],
		"Custom queue_depth metric should be registered")
}

func TestMetricsIntegration_NoDuplicateRegistration(t *testing.T) {
	registry := NewMetricsRegistry()

	component1 := newMockComponent("duplicate-component")
	component2 := newMockComponent("duplicate-component")

	err := component1.RegisterMetrics(registry)
	require.NoError(t, err)

	err = component2.RegisterMetrics(registry)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestMetricsIntegration_CoreAndComponentMetricsSeparate(t *testing.T) {
	registry := NewMetricsRegistry()
	coreMetrics := registry.CoreMetrics()

	mock := newMockComponent("separation-test")
	err := mock.RegisterMetrics(registry)
	require.NoError(t, err)

	coreMetrics.RecordServiceStatus("separation-test", 2)
	coreMetrics.RecordEventReceived("separation-test", "orders")

	mock.Ingest(5, 3)

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	foundMetrics := make(map[string]bool)
	for _, mf := range metricFamilies {
		foundMetrics[mf.GetName()] = true
	}

	assert.True(t, foundMetrics["eventscape_service_status"],
		"core service status metric should be present")
	assert.True(t, foundMetrics["eventscape_events_received_total"],
		"core events received metric should be present")

	assert.True(t, foundMetrics["eventscape_mock_component_events_ingested_total"],
		"Component-specific ingested metric should be present")
	assert.True(t, foundMetrics["eventscape_mock_component_queue_depth"],
		"Component-specific queue depth metric should be present")
}

func TestMetricsIntegration_MetricsUnregistration(t *testing.T) {
	registry := NewMetricsRegistry()

	mock := newMockComponent("unregister-test")

	err := mock.RegisterMetrics(registry)
	require.NoError(t, err)

	mock.Ingest(1, 1)

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	foundBefore := make(map[string]bool)
	for _, mf := range metricFamilies {
		foundBefore[mf.GetName()] = true
	}

	assert.True(t, foundBefore["eventscape_mock_component_events_ingested_total"],
		"Metric should be present before unregistration")

	success := registry.Unregister("unregister-test", "events_ingested_total")
	assert.True(t, success, "Unregistration should succeed")

	metricFamilies, err = registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	foundAfter := make(map[string]bool)
	for _, mf := range metricFamilies {
		foundAfter[mf.GetName()] = true
	}

	assert.False(t, foundAfter["eventscape_mock_component_events_ingested_total"],
		"Metric should be absent after unregistration")
	assert.True(t, foundAfter["eventscape_mock_component_queue_depth"],
		"Other component metrics should remain")
}

func TestMetricsIntegration_MultipleComponentsWithSameMetricNames(t *testing.T) {
	registry := NewMetricsRegistry()

	component1 := newMockComponent("engine")
	component2 := newMockComponent("stats")

	err := component1.RegisterMetrics(registry)
	require.NoError(t, err)

	// The second component fails because it registers the same Prometheus
	// metric names, which the registry correctly rejects.
	err = component2.RegisterMetrics(registry)
	assert.Error(t, err, "Second component should fail due to Prometheus metric name conflict")
	assert.Contains(t, err.Error(), "prometheus conflict")
}
