package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements the domain Metrics interface using Prometheus.
type Recorder struct {
	ticksTotal   *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	signalsTotal *prometheus.CounterVec
	conviction   *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
}

// New creates a Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		ticksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tapelens_ticks_total",
				Help: "Total number of processed ticks",
			},
			[]string{"instrument"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tapelens_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tapelens_signal_transitions_total",
				Help: "Primary signal transitions per instrument",
			},
			[]string{"instrument", "signal"},
		),
		conviction: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tapelens_conviction_score",
				Help: "Latest dampened conviction score per instrument",
			},
			[]string{"instrument"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tapelens_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordTick(instrument string) {
	r.ticksTotal.WithLabelValues(instrument).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordSignal(instrument, signal string) {
	r.signalsTotal.WithLabelValues(instrument, signal).Inc()
}

func (r *Recorder) RecordConviction(instrument string, score float64) {
	r.conviction.WithLabelValues(instrument).Set(score)
}

func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop is a metrics recorder that discards everything; used in tests.
type Nop struct{}

func (Nop) RecordTick(string)                {}
func (Nop) RecordError(string)               {}
func (Nop) RecordSignal(string, string)      {}
func (Nop) RecordConviction(string, float64) {}
func (Nop) RecordLatency(string, float64)    {}
