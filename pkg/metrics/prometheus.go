package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	resolutions  *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	updatesTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	lastPrice    *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		resolutions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricegate_resolutions_total",
				Help: "Price resolutions by answering source",
			},
			[]string{"source", "asset"},
		),
		fallbacks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricegate_fallback_total",
				Help: "Fallback dispatches by reason",
			},
			[]string{"reason"},
		),
		updatesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricegate_updates_total",
				Help: "Accepted feed updates",
			},
			[]string{"feed"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricegate_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pricegate_last_feed_price",
				Help: "Last accepted raw price for a feed",
			},
			[]string{"feed"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pricegate_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordResolution records which source answered a price request.
func (r *Recorder) RecordResolution(source, asset string) {
	r.resolutions.WithLabelValues(source, asset).Inc()
}

// RecordFallback records a fallback dispatch with its reason.
func (r *Recorder) RecordFallback(reason string) {
	r.fallbacks.WithLabelValues(reason).Inc()
}

// RecordUpdate records an accepted feed update.
func (r *Recorder) RecordUpdate(feed string) {
	r.updatesTotal.WithLabelValues(feed).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last accepted raw price for a feed.
func (r *Recorder) RecordLastPrice(feed string, price float64) {
	r.lastPrice.WithLabelValues(feed).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
