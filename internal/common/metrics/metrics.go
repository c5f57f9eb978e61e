package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "churn_submissions_total",
			Help: "Total number of form submissions by outcome",
		},
		[]string{"outcome"},
	)

	SubmissionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "churn_submission_failures_total",
			Help: "Total number of failed submissions by error code",
		},
		[]string{"error_code"},
	)

	PredictionsByRisk = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "churn_predictions_by_risk_total",
			Help: "Rendered predictions by risk level",
		},
		[]string{"risk_level"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "churn_api_request_duration_seconds",
			Help:    "Round-trip duration of prediction API calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "status"},
	)

	ServerProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "churn_api_reported_processing_seconds",
			Help:    "Processing time reported by the prediction API in X-Process-Time",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	APIHealthy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "churn_api_healthy",
			Help: "1 when the last health check succeeded, 0 otherwise",
		},
	)

	SubmissionsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "churn_submissions_in_flight",
			Help: "Number of submissions waiting on the prediction API",
		},
	)
)
