// Package metrics exposes Prometheus metrics for ranking passes, quota,
// sinks and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/vibeoracle/internal/score/slot"
)

const namespace = "vibeoracle"

// Registry holds all metrics on a private Prometheus registry so several
// instances can coexist in one process.
type Registry struct {
	reg *prometheus.Registry

	PassDuration      *prometheus.HistogramVec
	Passes            *prometheus.CounterVec
	AlgorithmFailures *prometheus.CounterVec
	Multiplier        prometheus.Histogram

	RerollsConsumed prometheus.Counter
	QuotaExhausted  prometheus.Counter

	SinkDuration *prometheus.HistogramVec
	SinkFailures *prometheus.CounterVec
	BreakerState *prometheus.GaugeVec

	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	ActiveSessions prometheus.Gauge
}

// NewRegistry creates and registers every metric.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		PassDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pass_duration_seconds",
				Help:      "Duration of a ranking pass in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
			[]string{"mode"},
		),
		Passes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "passes_total",
				Help:      "Total ranking passes by mode",
			},
			[]string{"mode"},
		),
		AlgorithmFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "algorithm_failures_total",
				Help:      "Sub-score algorithm failures replaced by the neutral score",
			},
			[]string{"algorithm"},
		),
		Multiplier: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resonance_multiplier",
				Help:      "Resonance multiplier applied per candidate",
				Buckets:   prometheus.LinearBuckets(0.8, 0.05, 9),
			},
		),
		RerollsConsumed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rerolls_consumed_total",
				Help:      "Reroll quota units consumed",
			},
		),
		QuotaExhausted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quota_exhausted_total",
				Help:      "Reroll requests rejected for exhausted quota",
			},
		),
		SinkDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sink_duration_seconds",
				Help:      "Time spent recording a pass to a sink",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"sink", "result"},
		),
		SinkFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sink_failures_total",
				Help:      "Failed pass deliveries by sink",
			},
			[]string{"sink"},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sink_breaker_state",
				Help:      "Circuit breaker state per sink (0=closed, 1=half-open, 2=open)",
			},
			[]string{"sink"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sessions",
				Help:      "Sessions currently held by the server",
			},
		),
	}

	r.reg.MustRegister(
		r.PassDuration,
		r.Passes,
		r.AlgorithmFailures,
		r.Multiplier,
		r.RerollsConsumed,
		r.QuotaExhausted,
		r.SinkDuration,
		r.SinkFailures,
		r.BreakerState,
		r.HTTPRequests,
		r.HTTPDuration,
		r.ActiveSessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func mode(reroll bool) string {
	if reroll {
		return "reroll"
	}
	return "standard"
}

// ObservePass records a completed ranking pass.
func (r *Registry) ObservePass(reroll bool, d time.Duration) {
	r.PassDuration.WithLabelValues(mode(reroll)).Observe(d.Seconds())
	r.Passes.WithLabelValues(mode(reroll)).Inc()
}

// AlgorithmFailed counts one fallback substitution.
func (r *Registry) AlgorithmFailed(s slot.Slot) {
	r.AlgorithmFailures.WithLabelValues(s.Name()).Inc()
}

// ObserveMultiplier records one candidate's resonance multiplier.
func (r *Registry) ObserveMultiplier(m float64) {
	r.Multiplier.Observe(m)
}

func (r *Registry) RecordReroll() {
	r.RerollsConsumed.Inc()
}

func (r *Registry) RecordQuotaExhausted() {
	r.QuotaExhausted.Inc()
}

// RecordSinkFailure counts a failed delivery.
func (r *Registry) RecordSinkFailure(sink string) {
	r.SinkFailures.WithLabelValues(sink).Inc()
}

// SetBreakerState publishes a breaker state code for sink.
func (r *Registry) SetBreakerState(sink string, state int) {
	r.BreakerState.WithLabelValues(sink).Set(float64(state))
}

// ObserveHTTP records one served request.
func (r *Registry) ObserveHTTP(route, method string, status int, d time.Duration) {
	r.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (r *Registry) SetActiveSessions(n int) {
	r.ActiveSessions.Set(float64(n))
}

// SinkTimer tracks one delivery to a sink.
type SinkTimer struct {
	metrics *Registry
	sink    string
	start   time.Time
}

// StartSinkTimer begins timing a delivery.
func (r *Registry) StartSinkTimer(sink string) *SinkTimer {
	return &SinkTimer{metrics: r, sink: sink, start: time.Now()}
}

// Stop records the delivery outcome.
func (t *SinkTimer) Stop(result string) {
	duration := time.Since(t.start)
	t.metrics.SinkDuration.WithLabelValues(t.sink, result).Observe(duration.Seconds())

	log.Debug().
		Str("sink", t.sink).
		Str("result", result).
		Dur("duration", duration).
		Msg("Sink delivery completed")
}
