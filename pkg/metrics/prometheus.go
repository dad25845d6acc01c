package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	barsTotal     *prometheus.CounterVec
	signalsTotal  *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
	verifications *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		barsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trendpulse_bars_total",
				Help: "Total number of closed bars processed",
			},
			[]string{"symbol", "timeframe"},
		),
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trendpulse_signals_total",
				Help: "Total number of emitted trading signals",
			},
			[]string{"symbol", "grade", "direction"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trendpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "trendpulse_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trendpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		verifications: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trendpulse_verifications_total",
				Help: "Resolved prediction checks by horizon and outcome",
			},
			[]string{"horizon_minutes", "outcome"},
		),
	}
}

// RecordBar records one processed closed bar.
func (r *Recorder) RecordBar(symbol, timeframe string) {
	r.barsTotal.WithLabelValues(symbol, timeframe).Inc()
}

// RecordSignal records one emitted signal.
func (r *Recorder) RecordSignal(symbol, grade, direction string) {
	r.signalsTotal.WithLabelValues(symbol, grade, direction).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordVerification records one resolved or expired prediction check.
func (r *Recorder) RecordVerification(horizonMinutes int, outcome string) {
	r.verifications.WithLabelValues(strconv.Itoa(horizonMinutes), outcome).Inc()
}
