package sublinear

import (
	"runtime"
	"sync"
	"time"
)

// Metrics collects operational counters for the GraphQL endpoint.
type Metrics struct {
	mu             sync.Mutex
	Operations     map[string]int64
	Errors         map[ErrorKind]int64
	AuthRejections int64
	latency        map[string]time.Duration
	StartedAt      time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		Operations: make(map[string]int64),
		Errors:     make(map[ErrorKind]int64),
		latency:    make(map[string]time.Duration),
		StartedAt:  time.Now(),
	}
}

// RecordOperation counts one execution of a root field.
func (m *Metrics) RecordOperation(name string, d time.Duration) {
	m.mu.Lock()
	m.Operations[name]++
	m.latency[name] += d
	m.mu.Unlock()
}

// RecordError counts one failed root field by error kind.
func (m *Metrics) RecordError(kind ErrorKind) {
	m.mu.Lock()
	m.Errors[kind]++
	m.mu.Unlock()
}

func (m *Metrics) RecordAuthRejection() {
	m.mu.Lock()
	m.AuthRejections++
	m.mu.Unlock()
}

// MetricsSnapshot is a point-in-time metrics report.
type MetricsSnapshot struct {
	Operations     map[string]int64   `json:"operations"`
	Errors         map[string]int64   `json:"errors"`
	AvgLatencyMs   map[string]float64 `json:"avg_latency_ms"`
	AuthRejections int64              `json:"auth_rejections"`
	UptimeSeconds  int                `json:"uptime_seconds"`
	Goroutines     int                `json:"goroutines"`
	HeapAllocMB    float64            `json:"heap_alloc_mb"`
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	ops := make(map[string]int64, len(m.Operations))
	avg := make(map[string]float64, len(m.Operations))
	for name, n := range m.Operations {
		ops[name] = n
		if n > 0 {
			avg[name] = float64(m.latency[name].Microseconds()) / 1000 / float64(n)
		}
	}
	errs := make(map[string]int64, len(m.Errors))
	for kind, n := range m.Errors {
		errs[string(kind)] = n
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return MetricsSnapshot{
		Operations:     ops,
		Errors:         errs,
		AvgLatencyMs:   avg,
		AuthRejections: m.AuthRejections,
		UptimeSeconds:  int(time.Since(m.StartedAt).Seconds()),
		Goroutines:     runtime.NumGoroutine(),
		HeapAllocMB:    float64(memStats.HeapAlloc) / (1024 * 1024),
	}
}
