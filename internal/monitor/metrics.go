package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vk/plugflow/internal/evalerr"
	"github.com/vk/plugflow/internal/process"
)

// Metrics exports engine activity as Prometheus metrics.
type Metrics struct {
	reg      prometheus.Registerer
	total    *prometheus.CounterVec
	errors   *prometheus.CounterVec
	hits     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		total: f.NewCounterVec(prometheus.CounterOpts{
			Name: "plugflow_process_total",
			Help: "Hash and compute processes run, excluding cache hits.",
		}, []string{"kind"}),
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "plugflow_process_errors_total",
			Help: "Failed processes by outcome.",
		}, []string{"kind", "outcome"}),
		hits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "plugflow_cache_hits_total",
			Help: "Requests served from a cache.",
		}, []string{"kind"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "plugflow_process_duration_seconds",
			Help:    "Process duration.",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1, 10},
		}, []string{"kind"}),
	}
}

// Observe implements process.Monitor.
func (m *Metrics) Observe(e process.Event) {
	kind := e.Kind.String()
	if e.Err != nil {
		outcome := "error"
		if evalerr.IsCancelled(e.Err) {
			outcome = "cancelled"
		}
		m.errors.WithLabelValues(kind, outcome).Inc()
	}
	if e.CacheHit {
		m.hits.WithLabelValues(kind).Inc()
		return
	}
	m.total.WithLabelValues(kind).Inc()
	m.duration.WithLabelValues(kind).Observe(e.Duration.Seconds())
}

// RegisterCacheGauges exports the value cache's usage, limit and size.
func (m *Metrics) RegisterCacheGauges(vc *process.ValueCache) {
	f := promauto.With(m.reg)
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "plugflow_value_cache_bytes",
		Help: "Estimated memory held by the value cache.",
	}, func() float64 { return float64(vc.MemoryUsage()) })
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "plugflow_value_cache_limit_bytes",
		Help: "Memory limit of the value cache.",
	}, func() float64 { return float64(vc.MemoryLimit()) })
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "plugflow_value_cache_entries",
		Help: "Number of values in the value cache.",
	}, func() float64 { return float64(vc.Len()) })
}
