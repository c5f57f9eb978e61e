package client

import (
	"time"

	"churn-console/internal/churn/form"
)

// HealthStatus is the body of GET /health. Every field is optional; only the
// status code decides whether the service is online.
type HealthStatus struct {
	Status        string  `json:"status"`
	ModelLoaded   bool    `json:"model_loaded"`
	ModelAccuracy float64 `json:"model_accuracy"`
	Features      int     `json:"features"`
	Version       string  `json:"version"`
}

// Prediction is the body of POST /predict.
type Prediction struct {
	ChurnProbability float64 `json:"churn_probability"`
	ChurnPrediction  float64 `json:"churn_prediction"`
	RiskLevel        string  `json:"risk_level"`
	Confidence       float64 `json:"confidence"`

	// Latency is the server-reported processing time from X-Process-Time,
	// nil when the header is absent or unparsable.
	Latency *time.Duration `json:"-"`
}

type batchRequest struct {
	Customers []form.Input `json:"customers"`
}

// BatchPrediction is the body of POST /predict/batch.
type BatchPrediction struct {
	Predictions      []Prediction `json:"predictions"`
	TotalCustomers   int          `json:"total_customers"`
	HighRiskCount    int          `json:"high_risk_count"`
	ProcessingTimeMS float64      `json:"processing_time_ms"`
}

// ModelInfo is the body of GET /model/info.
type ModelInfo struct {
	ModelType      string       `json:"model_type"`
	Dataset        string       `json:"dataset"`
	FeatureCount   int          `json:"feature_count"`
	FeatureNames   []string     `json:"feature_names"`
	Metrics        ModelMetrics `json:"metrics"`
	PaperReference string       `json:"paper_reference"`
}

type ModelMetrics struct {
	CVAccuracy   *float64 `json:"cv_accuracy"`
	CVStd        *float64 `json:"cv_std"`
	TestAccuracy *float64 `json:"test_accuracy"`
}
