// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActiveSites = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "namedeal_active_sites",
			Help: "Number of site views currently held in the resolver cache.",
		})

	SiteLoadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "namedeal_site_load_total",
			Help: "Cumulative number of site views loaded from the catalog.",
		})

	SiteDefaultTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "namedeal_site_default_total",
			Help: "Cumulative number of lookups served the default site view.",
		})

	SiteEvictTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "namedeal_site_evict_total",
			Help: "Cumulative number of site views evicted from the cache.",
		})

	VisitsTracked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "namedeal_visits_tracked_total",
			Help: "Visit-log rows written.",
		})

	VisitsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "namedeal_visits_skipped_total",
			Help: "Page views filtered before insert, by reason.",
		},
		[]string{"reason"},
	)

	EmailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "namedeal_emails_sent_total",
			Help: "Outbound emails delivered, by transport path.",
		},
		[]string{"path"},
	)

	EmailsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "namedeal_emails_failed_total",
			Help: "Outbound emails that failed on every transport path.",
		})
)

func init() {
	prometheus.MustRegister(
		ActiveSites,
		SiteLoadTotal,
		SiteDefaultTotal,
		SiteEvictTotal,
		VisitsTracked,
		VisitsSkipped,
		EmailsSent,
		EmailsFailed,
	)
}
