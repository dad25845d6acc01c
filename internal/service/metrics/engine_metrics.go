package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EngineLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trendpulse",
			Subsystem: "engine",
			Name:      "latency_seconds",
			Help:      "Latency of engine evaluation stages",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	EngineErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trendpulse",
			Subsystem: "engine",
			Name:      "errors_total",
			Help:      "Errors by engine stage",
		},
		[]string{"stage"},
	)

	CandidatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trendpulse",
			Subsystem: "engine",
			Name:      "candidates_total",
			Help:      "Evaluated candidates by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	PendingPredictions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "trendpulse",
			Subsystem: "engine",
			Name:      "pending_predictions",
			Help:      "Prediction records awaiting verification",
		},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(EngineLatency, EngineErrors, CandidatesTotal, PendingPredictions)
	})
}
