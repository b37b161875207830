// Package metrics provides Prometheus metrics for the crawl pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline metric collectors.
type Metrics struct {
	// PagesFetched counts successfully fetched listing pages per feed.
	PagesFetched *prometheus.CounterVec
	// PageErrors counts page fetches that failed per feed.
	PageErrors *prometheus.CounterVec
	// ProductsReconciled counts reconciliation outcomes by action.
	ProductsReconciled *prometheus.CounterVec
	// NotificationsSent counts notifications delivered to the sink.
	NotificationsSent prometheus.Counter
	// NotificationErrors counts failed sink deliveries.
	NotificationErrors prometheus.Counter
	// ProductsPruned counts records removed by staleness pruning.
	ProductsPruned prometheus.Counter
	// CycleDuration observes full crawl cycle durations.
	CycleDuration prometheus.Histogram
}

// New creates pipeline metrics registered on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PagesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salewatch_pages_fetched_total",
			Help: "Listing pages fetched successfully.",
		}, []string{"feed"}),
		PageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salewatch_page_errors_total",
			Help: "Listing page fetches that failed.",
		}, []string{"feed"}),
		ProductsReconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salewatch_products_reconciled_total",
			Help: "Reconciliation outcomes by action.",
		}, []string{"action"}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "salewatch_notifications_sent_total",
			Help: "Notifications delivered to the sink.",
		}),
		NotificationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "salewatch_notification_errors_total",
			Help: "Sink deliveries that failed.",
		}),
		ProductsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "salewatch_products_pruned_total",
			Help: "Records removed by staleness pruning.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "salewatch_cycle_duration_seconds",
			Help:    "Full crawl cycle duration.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}

	reg.MustRegister(
		m.PagesFetched,
		m.PageErrors,
		m.ProductsReconciled,
		m.NotificationsSent,
		m.NotificationErrors,
		m.ProductsPruned,
		m.CycleDuration,
	)

	return m
}

// Handler exposes the gatherer's metrics in the Prometheus text format.
// Long-running commands serve this so a scraper can read the pipeline
// counters.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
