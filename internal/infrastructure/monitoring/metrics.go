package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Attach outcomes recorded by RecordAttach.
const (
	AttachSuccess     = "success"
	AttachConfigError = "config_error"
	AttachParseError  = "parse_error"
	AttachError       = "error"
)

// Descriptor load outcomes recorded by RecordDescriptorLoad.
const (
	LoadOK      = "ok"
	LoadMissing = "missing"
	LoadInvalid = "invalid"
)

// Metrics holds all Prometheus metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Kernel metrics
	KernelsAttached     prometheus.Gauge
	AttachTotal         *prometheus.CounterVec
	AttachDuration      prometheus.Histogram
	LifecycleRejections *prometheus.CounterVec

	// Connection descriptor metrics
	DescriptorLoads *prometheus.CounterVec
	DescriptorDrift prometheus.Counter

	startTime time.Time

	// Snapshot for the health endpoint
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current values for JSON responses.
type Snapshot struct {
	TotalRequests       int64   `json:"total_requests"`
	TotalErrors         int64   `json:"total_errors"`
	KernelsAttached     int64   `json:"kernels_attached"`
	LifecycleRejections int64   `json:"lifecycle_rejections"`
	UptimeSeconds       float64 `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector with its own registry, so several
// collectors can live in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jupyter_attach_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jupyter_attach_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		KernelsAttached: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "jupyter_attach_kernels_attached",
				Help: "Number of kernel handles attached to the external kernel",
			},
		),
		AttachTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jupyter_attach_attach_total",
				Help: "Kernel attach attempts by result",
			},
			[]string{"result"},
		),
		AttachDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "jupyter_attach_attach_duration_seconds",
				Help:    "Time to create and rebind a kernel handle",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
			},
		),
		LifecycleRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jupyter_attach_lifecycle_rejections_total",
				Help: "Restart and shutdown requests refused for externally owned kernels",
			},
			[]string{"operation"},
		),

		DescriptorLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jupyter_attach_descriptor_loads_total",
				Help: "Connection descriptor reads by result",
			},
			[]string{"result"},
		),
		DescriptorDrift: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "jupyter_attach_descriptor_drift_total",
				Help: "Times the connection file changed after startup",
			},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "jupyter_attach_uptime_seconds",
			Help: "Server uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the metrics in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordAttach records one StartKernel outcome.
func (m *Metrics) RecordAttach(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.AttachTotal.WithLabelValues(result).Inc()
	m.AttachDuration.Observe(duration.Seconds())
}

// RecordLifecycleRejection counts a refused restart or shutdown.
func (m *Metrics) RecordLifecycleRejection(operation string) {
	if m == nil {
		return
	}
	m.LifecycleRejections.WithLabelValues(operation).Inc()
	m.mu.Lock()
	m.snapshot.LifecycleRejections++
	m.mu.Unlock()
}

// RecordDescriptorLoad counts a descriptor read.
func (m *Metrics) RecordDescriptorLoad(result string) {
	if m == nil {
		return
	}
	m.DescriptorLoads.WithLabelValues(result).Inc()
}

// IncDescriptorDrift counts a connection file rewrite.
func (m *Metrics) IncDescriptorDrift() {
	if m == nil {
		return
	}
	m.DescriptorDrift.Inc()
}

// SetKernelsAttached sets the number of ready kernel handles.
func (m *Metrics) SetKernelsAttached(count int) {
	if m == nil {
		return
	}
	m.KernelsAttached.Set(float64(count))
	m.mu.Lock()
	m.snapshot.KernelsAttached = int64(count)
	m.mu.Unlock()
}

// Snapshot returns the current values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.RLock()
	s := m.snapshot
	m.mu.RUnlock()
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
