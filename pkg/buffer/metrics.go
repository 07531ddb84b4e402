package buffer

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/eventscape/metric"
)

// bufferMetrics holds Prometheus metrics for buffer operations.
type bufferMetrics struct {
	writes    prometheus.Counter
	reads     prometheus.Counter
	peeks     prometheus.Counter
	overflows prometheus.Counter
	drops     prometheus.Counter

	size        prometheus.Gauge
	utilization prometheus.Gauge
}

// newBufferMetrics creates and registers buffer metrics with the provided registry.
// The prefix is used as the component label so several buffers can share a registry.
func newBufferMetrics(registry *metric.MetricsRegistry, prefix string) (*bufferMetrics, error) {
	labels := prometheus.Labels{"component": prefix}

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "eventscape",
			Subsystem:   "buffer",
			Name:        name,
			ConstLabels: labels,
			Help:        help,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "eventscape",
			Subsystem:   "buffer",
			Name:        name,
			ConstLabels: labels,
			Help:        help,
		})
	}

	m := &bufferMetrics{
		writes:      counter("writes_total", "Total number of buffer write operations"),
		reads:       counter("reads_total", "Total number of buffer read operations"),
		peeks:       counter("peeks_total", "Total number of buffer peek operations"),
		overflows:   counter("overflows_total", "Total number of buffer overflow events"),
		drops:       counter("drops_total", "Total number of items dropped due to overflow"),
		size:        gauge("size", "Current number of items in buffer"),
		utilization: gauge("utilization", "Buffer utilization as a percentage (0.0 to 1.0)"),
	}

	registrations := []struct {
		name      string
		collector prometheus.Collector
		isGauge   bool
	}{
		{"buffer_writes", m.writes, false},
		{"buffer_reads", m.reads, false},
		{"buffer_peeks", m.peeks, false},
		{"buffer_overflows", m.overflows, false},
		{"buffer_drops", m.drops, false},
		{"buffer_size", m.size, true},
		{"buffer_utilization", m.utilization, true},
	}

	for _, reg := range registrations {
		var err error
		if reg.isGauge {
			err = registry.RegisterGauge(prefix, reg.name, reg.collector.(prometheus.Gauge))
		} else {
			err = registry.RegisterCounter(prefix, reg.name, reg.collector.(prometheus.Counter))
		}
		if err != nil {
			return nil, err
		}
	}

	return m, nil
}

// recordWrite increments the write counter and updates size/utilization.
func (m *bufferMetrics) recordWrite(size, capacity int) {
	m.writes.Inc()
	m.updateSize(size, capacity)
}

// recordRead increments the read counter and updates size/utilization.
func (m *bufferMetrics) recordRead(size, capacity int) {
	m.reads.Inc()
	m.updateSize(size, capacity)
}

// recordPeek increments the peek counter.
func (m *bufferMetrics) recordPeek() {
	m.peeks.Inc()
}

// recordOverflow increments the overflow counter.
func (m *bufferMetrics) recordOverflow() {
	m.overflows.Inc()
}

// recordDrop increments the drop counter.
func (m *bufferMetrics) recordDrop() {
	m.drops.Inc()
}

// updateSize sets the current buffer size and utilization.
func (m *bufferMetrics) updateSize(size, capacity int) {
	m.size.Set(float64(size))
	m.utilization.Set(float64(size) / float64(capacity))
}
