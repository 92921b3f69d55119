// Package metrics defines the Prometheus instrumentation for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metransfer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "metransfer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "metransfer_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	HTTPResponseBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metransfer_http_response_bytes_total",
			Help: "Total response bytes written",
		},
		[]string{"method", "path"},
	)
)

// Gallery metrics
var (
	UploadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "metransfer_uploads_total",
			Help: "Total number of original files stored",
		},
	)

	GalleriesDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "metransfer_galleries_deleted_total",
			Help: "Total number of galleries deleted",
		},
	)

	ThumbnailsGeneratedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "metransfer_thumbnails_generated_total",
			Help: "Total number of thumbnails generated (cache misses)",
		},
	)

	PreviewsGeneratedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "metransfer_previews_generated_total",
			Help: "Total number of social previews generated (cache misses)",
		},
	)

	ArchivesStreamedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metransfer_archives_streamed_total",
			Help: "Total number of ZIP downloads by outcome",
		},
		[]string{"outcome"}, // "complete", "aborted"
	)

	ReconcileRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "metransfer_reconcile_runs_total",
			Help: "Total number of reconciliation passes",
		},
	)
)
