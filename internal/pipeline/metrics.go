package pipeline

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsOnce sync.Once

	processDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	branchTimeouts  *prometheus.CounterVec
	branchPanics    *prometheus.CounterVec
)

func initMetrics() {
	metricsOnce.Do(func() {
		processDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "insightd",
			Subsystem: "pipeline",
			Name:      "process_duration_seconds",
			Help:      "End-to-end analysis latency, by result origin.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"origin"})

		requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insightd",
			Subsystem: "pipeline",
			Name:      "requests_total",
			Help:      "Analysis requests, by result origin.",
		}, []string{"origin"})

		branchTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insightd",
			Subsystem: "pipeline",
			Name:      "branch_timeouts_total",
			Help:      "Pipeline branches that exceeded their deadline.",
		}, []string{"branch"})

		branchPanics = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insightd",
			Subsystem: "pipeline",
			Name:      "branch_panics_total",
			Help:      "Pipeline branches recovered from a panic.",
		}, []string{"branch"})
	})
}
