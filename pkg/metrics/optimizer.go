package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	CyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "optimizer_cycles_total",
		Help: "Total number of optimizer decision cycles run",
	})

	CycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "optimizer_cycle_duration_seconds",
		Help:    "Duration of one optimizer decision cycle",
		Buckets: prometheus.DefBuckets,
	})

	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optimizer_decisions_total",
			Help: "Decisions taken per endpoint, by action and confidence basis",
		},
		[]string{"endpoint", "action", "basis"},
	)

	CurrentMargin = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "optimizer_current_margin",
			Help: "Current margin percentage per endpoint",
		},
		[]string{"endpoint"},
	)
)

func Init() {
	prometheus.MustRegister(CyclesTotal, CycleDuration, DecisionsTotal, CurrentMargin)
}
