package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// StatsCacheTotal counts statistics cache lookups by result (hit/miss).
	StatsCacheTotal *prometheus.CounterVec
	// ReceiptsCheckedOutTotal counts successfully checked out receipts.
	ReceiptsCheckedOutTotal prometheus.Counter
	// LinesPricedTotal counts receipt lines priced by the pricing engine.
	LinesPricedTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		StatsCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stats_cache_total",
			Help:      "Count of statistics cache lookups by result.",
		}, []string{"result"})
		ReceiptsCheckedOutTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipts_checked_out_total",
			Help:      "Number of receipts checked out.",
		})
		LinesPricedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipt_lines_priced_total",
			Help:      "Number of receipt lines priced at first add.",
		})

		registerCollector(reg, StatsCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				StatsCacheTotal = v
			}
		})
		registerCollector(reg, ReceiptsCheckedOutTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				ReceiptsCheckedOutTotal = v
			}
		})
		registerCollector(reg, LinesPricedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				LinesPricedTotal = v
			}
		})
	})
}

// IncStatsCache bumps the statistics cache counter. Safe to call when domain
// metrics were never registered, as in unit tests.
func IncStatsCache(result string) {
	if StatsCacheTotal != nil {
		StatsCacheTotal.WithLabelValues(result).Inc()
	}
}

// IncReceiptsCheckedOut bumps the checkout counter if metrics are registered.
func IncReceiptsCheckedOut() {
	if ReceiptsCheckedOutTotal != nil {
		ReceiptsCheckedOutTotal.Inc()
	}
}

// IncLinesPriced bumps the priced-lines counter if metrics are registered.
func IncLinesPriced() {
	if LinesPricedTotal != nil {
		LinesPricedTotal.Inc()
	}
}
