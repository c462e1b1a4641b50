package qtensor

import (
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

/*
Metrics counts the operations a backend performed and keeps a ring of their
most recent latencies. Percentiles are computed from the ring when they are
read, so recording stays constant time.
*/
type Metrics struct {
	mu sync.RWMutex

	Operations     map[string]int64
	TotalTime      time.Duration
	OperationCount int64
	ShotsSampled   int64
	Collapses      int64

	latencies []time.Duration
	next      int
}

const latencyWindow = 1000

var (
	operationsDesc = prometheus.NewDesc("qtensor_operations_total", "Engine operations performed, by name.", []string{"operation"}, nil)
	shotsDesc      = prometheus.NewDesc("qtensor_shots_sampled_total", "Shots drawn from probability distributions.", nil, nil)
	collapsesDesc  = prometheus.NewDesc("qtensor_collapses_total", "Measurements that collapsed a state.", nil, nil)
	latencyDesc    = prometheus.NewDesc("qtensor_operation_latency_seconds", "Operation latency over the recent window.", []string{"stat"}, nil)
)

func NewMetrics() *Metrics {
	return &Metrics{
		Operations: make(map[string]int64),
		latencies:  make([]time.Duration, 0, latencyWindow),
	}
}

func (m *Metrics) recordOperation(op string, startTime time.Time) {
	m.recordDuration(op, time.Since(startTime))
}

func (m *Metrics) recordDuration(op string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Operations[op]++
	m.TotalTime += duration
	m.OperationCount++

	if len(m.latencies) < latencyWindow {
		m.latencies = append(m.latencies, duration)
		return
	}
	m.latencies[m.next] = duration
	m.next = (m.next + 1) % latencyWindow
}

func (m *Metrics) recordShots(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ShotsSampled += int64(n)
}

func (m *Metrics) recordCollapse() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Collapses++
}

/*
Latency returns the mean latency over every recorded operation and the 95th
and 99th percentiles over the most recent window.
*/
func (m *Metrics) Latency() (avg, p95, p99 time.Duration) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latency()
}

func (m *Metrics) latency() (avg, p95, p99 time.Duration) {
	if m.OperationCount == 0 {
		return 0, 0, 0
	}
	avg = m.TotalTime / time.Duration(m.OperationCount)

	sorted := slices.Clone(m.latencies)
	slices.Sort(sorted)

	last := len(sorted) - 1
	p95 = sorted[min(int(float64(len(sorted))*0.95), last)]
	p99 = sorted[min(int(float64(len(sorted))*0.99), last)]
	return avg, p95, p99
}

// Count returns how many times op has been recorded.
func (m *Metrics) Count(op string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Operations[op]
}

func (m *Metrics) ExportMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ops := make(map[string]int64, len(m.Operations))
	for k, v := range m.Operations {
		ops[k] = v
	}
	avg, p95, p99 := m.latency()

	return map[string]interface{}{
		"operations":    ops,
		"op_count":      m.OperationCount,
		"shots_sampled": m.ShotsSampled,
		"collapses":     m.Collapses,
		"avg_latency":   avg.Microseconds(),
		"p95_latency":   p95.Microseconds(),
		"p99_latency":   p99.Microseconds(),
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- operationsDesc
	ch <- shotsDesc
	ch <- collapsesDesc
	ch <- latencyDesc
}

/*
Collect implements prometheus.Collector, so a backend's metrics can be
registered with any registry:

	registry.MustRegister(backend.Metrics())
*/
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for op, count := range m.Operations {
		ch <- prometheus.MustNewConstMetric(operationsDesc, prometheus.CounterValue, float64(count), op)
	}
	ch <- prometheus.MustNewConstMetric(shotsDesc, prometheus.CounterValue, float64(m.ShotsSampled))
	ch <- prometheus.MustNewConstMetric(collapsesDesc, prometheus.CounterValue, float64(m.Collapses))

	avg, p95, p99 := m.latency()
	ch <- prometheus.MustNewConstMetric(latencyDesc, prometheus.GaugeValue, avg.Seconds(), "avg")
	ch <- prometheus.MustNewConstMetric(latencyDesc, prometheus.GaugeValue, p95.Seconds(), "p95")
	ch <- prometheus.MustNewConstMetric(latencyDesc, prometheus.GaugeValue, p99.Seconds(), "p99")
}
