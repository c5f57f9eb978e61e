// Package client talks to the external churn-prediction API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"churn-console/internal/churn/form"
	commonerrors "churn-console/internal/common/errors"
	commonhttp "churn-console/internal/common/http"
	"churn-console/internal/common/logger"
	"churn-console/internal/common/metrics"
)

const (
	PathHealth       = "/health"
	PathPredict      = "/predict"
	PathPredictBatch = "/predict/batch"
	PathModelInfo    = "/model/info"

	// ProcessTimeHeader carries the server's processing time in seconds.
	ProcessTimeHeader = "X-Process-Time"

	MinBatchSize = 1
	MaxBatchSize = 100
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	http   *commonhttp.Client
	logger logger.Logger
}

func New(cfg Config, log logger.Logger) *Client {
	return &Client{
		http:   commonhttp.NewClient(cfg.BaseURL, cfg.Timeout),
		logger: log.With(map[string]interface{}{"component": "prediction-client", "baseUrl": cfg.BaseURL}),
	}
}

// Health reports whether the service answers /health with a 2xx. The body is
// decoded when possible but a malformed body does not make the service
// unhealthy.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	resp, err := c.call(ctx, http.MethodGet, PathHealth, nil)
	if err != nil {
		return nil, commonerrors.NewAPIUnavailableError(PathHealth, err)
	}
	if !resp.OK() {
		return nil, commonerrors.NewUnexpectedStatusError(commonerrors.ErrCodeAPIUnavailable, PathHealth, resp.StatusCode)
	}

	status := &HealthStatus{}
	if err := json.Unmarshal(resp.Body, status); err != nil {
		c.logger.Debug("health body not decodable", map[string]interface{}{"error": err.Error()})
		status = &HealthStatus{}
	}
	return status, nil
}

// Predict submits one customer and returns the validated prediction.
func (c *Client) Predict(ctx context.Context, input form.Input) (*Prediction, error) {
	resp, err := c.call(ctx, http.MethodPost, PathPredict, input)
	if err != nil {
		return nil, commonerrors.NewPredictionFailedError(err)
	}
	if !resp.OK() {
		return nil, commonerrors.NewUnexpectedStatusError(commonerrors.ErrCodePredictionFailed, PathPredict, resp.StatusCode).
			WithMetadata("body", truncate(string(resp.Body), 512))
	}

	if result := predictionContract.Validate(resp.Body); !result.Valid {
		return nil, commonerrors.NewInvalidResponseError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var prediction Prediction
	if err := json.Unmarshal(resp.Body, &prediction); err != nil {
		return nil, commonerrors.NewInvalidResponseError(err.Error())
	}

	prediction.Latency = parseProcessTime(resp.Header.Get(ProcessTimeHeader))
	if prediction.Latency != nil {
		metrics.ServerProcessingDuration.Observe(prediction.Latency.Seconds())
	}

	c.logger.Info("prediction received", map[string]interface{}{
		"riskLevel":   prediction.RiskLevel,
		"probability": prediction.ChurnProbability,
		"roundTrip":   resp.Duration.String(),
	})
	return &prediction, nil
}

// PredictBatch submits 1-100 customers in one request.
func (c *Client) PredictBatch(ctx context.Context, inputs []form.Input) (*BatchPrediction, error) {
	if len(inputs) < MinBatchSize || len(inputs) > MaxBatchSize {
		return nil, commonerrors.NewBatchSizeInvalidError(len(inputs), MinBatchSize, MaxBatchSize)
	}

	resp, err := c.call(ctx, http.MethodPost, PathPredictBatch, batchRequest{Customers: inputs})
	if err != nil {
		return nil, commonerrors.NewPredictionFailedError(err)
	}
	if !resp.OK() {
		return nil, commonerrors.NewUnexpectedStatusError(commonerrors.ErrCodePredictionFailed, PathPredictBatch, resp.StatusCode)
	}

	if result := batchContract.Validate(resp.Body); !result.Valid {
		return nil, commonerrors.NewInvalidResponseError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var batch BatchPrediction
	if err := json.Unmarshal(resp.Body, &batch); err != nil {
		return nil, commonerrors.NewInvalidResponseError(err.Error())
	}

	c.logger.Info("batch prediction received", map[string]interface{}{
		"customers": batch.TotalCustomers,
		"highRisk":  batch.HighRiskCount,
	})
	return &batch, nil
}

// ModelInfo fetches metadata about the deployed model.
func (c *Client) ModelInfo(ctx context.Context) (*ModelInfo, error) {
	resp, err := c.call(ctx, http.MethodGet, PathModelInfo, nil)
	if err != nil {
		return nil, commonerrors.NewAPIUnavailableError(PathModelInfo, err)
	}
	if !resp.OK() {
		return nil, commonerrors.NewUnexpectedStatusError(commonerrors.ErrCodeAPIUnavailable, PathModelInfo, resp.StatusCode)
	}

	var info ModelInfo
	if err := json.Unmarshal(resp.Body, &info); err != nil {
		return nil, commonerrors.NewInvalidResponseError(err.Error())
	}
	return &info, nil
}

func (c *Client) call(ctx context.Context, method, path string, body interface{}) (*commonhttp.Response, error) {
	req, err := c.http.NewJSONRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	metrics.APIRequestDuration.WithLabelValues(path, status).Observe(time.Since(start).Seconds())

	if err != nil {
		c.logger.Warn("prediction API call failed", map[string]interface{}{
			"method": method,
			"path":   path,
			"error":  err.Error(),
		})
		return nil, err
	}
	return resp, nil
}

// parseProcessTime reads a decimal seconds value such as "0.045".
func parseProcessTime(header string) *time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil
	}
	seconds, err := strconv.ParseFloat(header, 64)
	if err != nil {
		return nil
	}
	// float64(math.MaxInt64) is 2^63, so anything below it fits a Duration.
	// NaN fails both comparisons.
	ns := seconds * float64(time.Second)
	if !(ns >= 0 && ns < float64(math.MaxInt64)) {
		return nil
	}
	d := time.Duration(ns)
	return &d
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + fmt.Sprintf("...(%d bytes)", len(s))
}
