// Package metrics exposes the Prometheus collectors for the platform.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "trading_platform",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trading_platform",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trading_platform",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "trading_platform",
			Subsystem: "realtime",
			Name:      "connections",
			Help:      "Current number of live websocket connections.",
		},
	)

	wsRooms = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "trading_platform",
			Subsystem: "realtime",
			Name:      "rooms",
			Help:      "Current number of rooms with at least one subscriber.",
		},
	)

	wsBroadcasts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trading_platform",
			Subsystem: "realtime",
			Name:      "broadcasts_total",
			Help:      "Total number of broadcast events by type.",
		},
		[]string{"event"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trading_platform",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by outcome (hit or miss).",
		},
		[]string{"outcome"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		wsConnections,
		wsRooms,
		wsBroadcasts,
		cacheLookups,
	)
}

// Handler serves the /metrics endpoint for the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// IncrementInFlight bumps the in-flight HTTP request gauge.
func IncrementInFlight() { httpInFlight.Inc() }

// DecrementInFlight drops the in-flight HTTP request gauge.
func DecrementInFlight() { httpInFlight.Dec() }

// RecordHTTPRequest records one handled HTTP request.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SetConnections sets the live websocket connection gauge.
func SetConnections(n int) { wsConnections.Set(float64(n)) }

// SetRooms sets the populated-room gauge.
func SetRooms(n int) { wsRooms.Set(float64(n)) }

// RecordBroadcast counts one broadcast by event name.
func RecordBroadcast(event string) { wsBroadcasts.WithLabelValues(event).Inc() }

// RecordCacheLookup counts a cache hit or miss.
func RecordCacheLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	cacheLookups.WithLabelValues(outcome).Inc()
}
