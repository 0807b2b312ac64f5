// Package metrics exposes coordinator activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gcpvm"

// Result labels for OperationsTotal.
const (
	ResultSuccess   = "success"
	ResultFailure   = "failure"
	ResultCancelled = "cancelled"
)

// Recorder holds the metric collectors. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry *prometheus.Registry

	operations      *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	inFlight        prometheus.Gauge
	busyRejections  prometheus.Counter
	autoPollSkipped prometheus.Counter
	lastStatus      *prometheus.GaugeVec
}

// New creates a Recorder backed by its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Lifecycle operations by kind and result.",
		}, []string{"kind", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Time from acceptance to completion of a lifecycle operation.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"kind"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "operation_in_flight",
			Help:      "1 while an operation is in flight.",
		}),
		busyRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "busy_rejections_total",
			Help:      "Requests rejected because another operation was in flight.",
		}),
		autoPollSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "autopoll_skipped_total",
			Help:      "Auto-poll ticks skipped because the coordinator was busy.",
		}),
		lastStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "instance_status",
			Help:      "1 for the last reported instance status, 0 otherwise.",
		}, []string{"status"}),
	}
	r.registry.MustRegister(
		r.operations,
		r.duration,
		r.inFlight,
		r.busyRejections,
		r.autoPollSkipped,
		r.lastStatus,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry returns the registry the collectors are registered with.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Started records that an operation was accepted.
func (r *Recorder) Started() {
	if r == nil {
		return
	}
	r.inFlight.Set(1)
}

// Finished records the outcome of an operation accepted elapsed ago.
func (r *Recorder) Finished(kind, result string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.inFlight.Set(0)
	r.operations.WithLabelValues(kind, result).Inc()
	r.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// Busy records a request rejected while another was in flight.
func (r *Recorder) Busy() {
	if r == nil {
		return
	}
	r.busyRejections.Inc()
}

// AutoPollSkipped records an auto-poll tick that found the coordinator busy.
func (r *Recorder) AutoPollSkipped() {
	if r == nil {
		return
	}
	r.autoPollSkipped.Inc()
}

// ObserveStatus marks status as the current instance status.
func (r *Recorder) ObserveStatus(status string, all []string) {
	if r == nil {
		return
	}
	for _, s := range all {
		v := 0.0
		if s == status {
			v = 1
		}
		r.lastStatus.WithLabelValues(s).Set(v)
	}
}
