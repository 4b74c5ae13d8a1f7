package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RegistrationsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobgenie_registrations_total",
			Help: "Total number of registered accounts.",
		},
		[]string{"role"},
	)
	ApprovalDecisionsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobgenie_approval_decisions_total",
			Help: "Total number of approval status transitions.",
		},
		[]string{"entity", "action"},
	)
	EmailsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobgenie_emails_total",
			Help: "Total number of transactional emails by template and result.",
		},
		[]string{"template", "result"},
	)
	ResumeExtractionsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobgenie_resume_extractions_total",
			Help: "Total number of AI resume extractions by result.",
		},
		[]string{"result"},
	)
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobgenie_errors_total",
			Help: "Total number of errors logged.",
		},
		[]string{"component"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobgenie_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		RegistrationsCounter,
		ApprovalDecisionsCounter,
		EmailsCounter,
		ResumeExtractionsCounter,
		ErrorsCounter,
		HTTPRequestDuration,
	}
}

// Register registers every collector with reg. Collectors already registered are skipped.
func Register(reg prometheus.Registerer) error {
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
