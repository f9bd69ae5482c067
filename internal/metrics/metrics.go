// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "policeform"

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Submissions by outcome (success or error kind).",
		},
		[]string{"outcome"},
	)

	SubmissionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_duration_seconds",
			Help:      "Wall time of a submission from validation to result.",
			Buckets:   []float64{1, 5, 10, 20, 30, 45, 60, 90, 120, 180},
		},
	)

	BrowserLaunchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "browser_launch_attempts_total",
			Help:      "Browser launch attempts by result.",
		},
		[]string{"result"},
	)

	BrowserReady = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "browser_ready",
			Help:      "1 when the last readiness probe launched a browser.",
		},
	)

	AttachmentFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attachment_fetches_total",
			Help:      "Remote attachment downloads by result.",
		},
		[]string{"result"},
	)
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordSubmission counts an outcome and observes its duration.
func RecordSubmission(outcome string, seconds float64) {
	SubmissionsTotal.WithLabelValues(outcome).Inc()
	SubmissionDuration.Observe(seconds)
}
