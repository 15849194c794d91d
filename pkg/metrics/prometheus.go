package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	chartsDelivered *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New creates a recorder and registers its collectors on reg.
// A nil reg means prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		chartsDelivered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astrochart_charts_delivered_total",
				Help: "Charts handed to a storage backend",
			},
			[]string{"backend", "house_system"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astrochart_errors_total",
				Help: "Errors by kind",
			},
			[]string{"type"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astrochart_cache_lookups_total",
				Help: "Chart cache lookups by result",
			},
			[]string{"result"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "astrochart_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"operation"},
		),
	}
	reg.MustRegister(r.chartsDelivered, r.errorsTotal, r.cacheLookups, r.latency)
	return r
}

// RecordChartDelivered counts a chart stored or published by backend.
func (r *Recorder) RecordChartDelivered(backend, houseSystem string) {
	r.chartsDelivered.WithLabelValues(backend, houseSystem).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordCacheResult(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}
