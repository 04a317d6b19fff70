// Package observability holds the Prometheus collectors shared by the service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	dayCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "garmin_zones",
		Subsystem: "day_cache",
		Name:      "lookups_total",
		Help:      "Day cache lookups by result (hit, miss).",
	}, []string{"result"})
	dayCacheEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "garmin_zones",
		Subsystem: "day_cache",
		Name:      "entries",
		Help:      "Number of stable days held in the day cache.",
	})
	providerRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "garmin_zones",
		Subsystem: "provider",
		Name:      "requests_total",
		Help:      "Requests sent to Garmin Connect by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})
	responseRefreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "garmin_zones",
		Subsystem: "response_cache",
		Name:      "refreshes_total",
		Help:      "Background response refreshes by outcome (ok, error, dropped).",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(dayCacheLookups, dayCacheEntries, providerRequests, responseRefreshes)
}

// RecordDayCacheLookup counts a day cache hit or miss.
func RecordDayCacheLookup(hit bool) {
	if hit {
		dayCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	dayCacheLookups.WithLabelValues("miss").Inc()
}

// SetDayCacheEntries records the current day cache size.
func SetDayCacheEntries(n int) {
	dayCacheEntries.Set(float64(n))
}

// RecordProviderRequest counts a provider request.
func RecordProviderRequest(endpoint, outcome string) {
	providerRequests.WithLabelValues(endpoint, outcome).Inc()
}

// RecordResponseRefresh counts a background refresh of a cached response.
func RecordResponseRefresh(outcome string) {
	responseRefreshes.WithLabelValues(outcome).Inc()
}
