package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "henna_gallery_http_requests_total",
			Help: "Number of HTTP requests by method, path and status.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "henna_gallery_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by method and path.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "henna_gallery_image_uploads_total",
			Help: "Image upload attempts by outcome.",
		},
		[]string{"outcome"},
	)

	OrphanedObjects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "henna_gallery_orphaned_objects_total",
			Help: "Objects uploaded to storage whose metadata insert failed.",
		},
	)
)
