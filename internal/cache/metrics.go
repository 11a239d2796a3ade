package cache

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsOnce sync.Once

	hitsTotal       *prometheus.CounterVec
	missesTotal     prometheus.Counter
	evictionsTotal  *prometheus.CounterVec
	negativeWrites  prometheus.Counter
	promotionsTotal prometheus.Counter
	tierEntries     *prometheus.GaugeVec
)

// initMetrics registers the cache metrics exactly once for the process.
func initMetrics() {
	metricsOnce.Do(func() {
		hitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insightd",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache hits by serving tier.",
		}, []string{"tier"})

		missesTotal = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "insightd",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Lookups that missed every tier.",
		})

		evictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insightd",
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Entries evicted, by reason (expired, negative, capacity, invalidated).",
		}, []string{"reason"})

		negativeWrites = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "insightd",
			Subsystem: "cache",
			Name:      "negative_writes_total",
			Help:      "Empty-result bundles written with the short negative TTL.",
		})

		promotionsTotal = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "insightd",
			Subsystem: "cache",
			Name:      "promotions_total",
			Help:      "Slow-tier hits copied into faster tiers.",
		})

		tierEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "insightd",
			Subsystem: "cache",
			Name:      "tier_entries",
			Help:      "Current entry count per tier, where the tier can report it.",
		}, []string{"tier"})
	})
}
