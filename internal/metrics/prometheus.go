// Package metrics provides Prometheus metrics for the Ratatosk feed.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the feed server.
type Metrics struct {
	// ManifestRequests counts manifest fetches, i.e. agent update checks.
	ManifestRequests prometheus.Counter

	// ArtifactDownloads counts artifact downloads per artifact name.
	ArtifactDownloads *prometheus.CounterVec

	// ArtifactBytes counts bytes served per artifact name.
	ArtifactBytes *prometheus.CounterVec

	// RequestDuration tracks handler latency per route.
	RequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.ManifestRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ratatosk_feed_manifest_requests_total",
			Help: "Total number of manifest requests",
		},
	)

	m.ArtifactDownloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratatosk_feed_artifact_downloads_total",
			Help: "Total number of artifact downloads",
		},
		[]string{"artifact"},
	)

	m.ArtifactBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratatosk_feed_artifact_bytes_total",
			Help: "Total bytes of artifact data served",
		},
		[]string{"artifact"},
	)

	m.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ratatosk_feed_request_duration_seconds",
			Help:    "Duration of feed requests",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"route"},
	)

	m.registry.MustRegister(
		m.ManifestRequests,
		m.ArtifactDownloads,
		m.ArtifactBytes,
		m.RequestDuration,
	)

	return m
}

// Handler returns an http.Handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
