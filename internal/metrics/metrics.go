// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ComplaintsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hostel_complaints_submitted_total",
		Help: "Complaints accepted from residents.",
	})

	// MediaFiles counts attachments by kind (image, video) and result
	// (stored, rejected).
	MediaFiles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hostel_media_files_total",
		Help: "Uploaded attachments by kind and result.",
	}, []string{"kind", "result"})

	StatusUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hostel_status_updates_total",
		Help: "Admin status changes by new status.",
	}, []string{"status"})

	ComplaintsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hostel_complaints_deleted_total",
		Help: "Complaints deleted by the admin.",
	})

	AdminLogins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hostel_admin_logins_total",
		Help: "Admin login attempts by result.",
	}, []string{"result"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hostel_http_request_duration_seconds",
		Help:    "HTTP request latency by route template.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "code"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
