// internal/controller/controller.go
package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"churn-console/internal/churn/client"
	"churn-console/internal/churn/display"
	"churn-console/internal/churn/form"
	commonerrors "churn-console/internal/common/errors"
	"churn-console/internal/common/logger"
	"churn-console/internal/common/metrics"
	"churn-console/internal/common/observability"
	"churn-console/internal/common/session"

	"github.com/google/uuid"
)

// PredictionAPI is the part of the prediction client the controller uses.
type PredictionAPI interface {
	Health(ctx context.Context) (*client.HealthStatus, error)
	Predict(ctx context.Context, input form.Input) (*client.Prediction, error)
}

// Store holds page state between requests. Acquire serializes work on a page.
type Store interface {
	Get(ctx context.Context, id string, v interface{}) error
	Put(ctx context.Context, id string, v interface{}) error
	Delete(ctx context.Context, id string) error
	Acquire(ctx context.Context, id string) (session.Release, error)
}

type Config struct {
	HealthTimeout time.Duration
}

type Option func(*Controller)

func WithObservability(obs *observability.Observability) Option {
	return func(c *Controller) { c.obs = obs }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller drives the prediction form of every page.
type Controller struct {
	api        PredictionAPI
	store      Store
	config     *Config
	logger     logger.Logger
	errHandler *commonerrors.ErrorHandler
	obs        *observability.Observability
	now        func() time.Time
	checks     sync.WaitGroup
}

// healthRecord is the outcome of a page's health check. It is stored next to
// the page rather than in it so a submit saving the page cannot overwrite it.
type healthRecord struct {
	Online    bool      `json:"online"`
	CheckedAt time.Time `json:"checkedAt"`
}

func healthKey(id string) string { return id + ":health" }

func New(api PredictionAPI, store Store, config *Config, log logger.Logger, opts ...Option) *Controller {
	if config == nil {
		config = &Config{}
	}
	log = log.WithFields(map[string]interface{}{"component": "form-controller"})
	c := &Controller{
		api:        api,
		store:      store,
		config:     config,
		logger:     log,
		errHandler: commonerrors.NewErrorHandler(log),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load starts a new page in the checking state and fires its single health
// check in the background. A failed health check only marks the page offline.
func (c *Controller) Load(ctx context.Context) (*PageState, error) {
	state := newPageState(uuid.NewString(), c.now())
	if err := c.save(ctx, state); err != nil {
		return nil, err
	}
	c.logger.Info("page loaded", map[string]interface{}{
		"pageId": state.ID,
	})

	id := state.ID
	c.checks.Add(1)
	go func() {
		defer c.checks.Done()
		c.checkHealth(context.WithoutCancel(ctx), id)
	}()
	return state, nil
}

// Wait blocks until every health check started by Load has finished.
func (c *Controller) Wait() {
	c.checks.Wait()
}

func (c *Controller) checkHealth(ctx context.Context, id string) {
	if c.config.HealthTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.HealthTimeout)
		defer cancel()
	}

	_, err := c.api.Health(ctx)
	online := err == nil

	if online {
		metrics.APIHealthy.Set(1)
	} else {
		metrics.APIHealthy.Set(0)
		c.logger.Warn("prediction API offline", map[string]interface{}{
			"pageId": id,
			"error":  err.Error(),
		})
	}
	c.obs.RecordHealthCheck(ctx, online)

	record := healthRecord{Online: online, CheckedAt: c.now()}
	if err := c.store.Put(context.WithoutCancel(ctx), healthKey(id), record); err != nil {
		c.logger.Error("failed to store health check", map[string]interface{}{
			"pageId": id,
			"error":  err.Error(),
		})
	}
}

// Submit runs one submission for page id. Only store and concurrency problems
// are returned as errors; a failed prediction is reported on the page as an
// alert. Loading is cleared before Submit returns on every path.
func (c *Controller) Submit(ctx context.Context, id string, values map[string]string) (state *PageState, err error) {
	release, err := c.acquire(ctx, id, "submit")
	if err != nil {
		return nil, err
	}
	defer release()

	state, err = c.get(ctx, id)
	if err != nil {
		return nil, err
	}

	state.Values = cloneValues(values)
	state.Alert = ""
	state.ErrorCode = ""
	state.Scroll = ""
	state.setLoading(true)
	if err := c.save(ctx, state); err != nil {
		state.setLoading(false)
		return nil, err
	}

	metrics.SubmissionsInFlight.Inc()
	defer func() {
		metrics.SubmissionsInFlight.Dec()
		state.setLoading(false)
		if saveErr := c.save(context.WithoutCancel(ctx), state); saveErr != nil && err == nil {
			err = saveErr
		}
	}()

	start := c.now()
	prediction, predictErr := c.predict(ctx, values)
	elapsed := c.now().Sub(start)

	if predictErr != nil {
		stdErr := c.errHandler.Handle("submit", predictErr, map[string]interface{}{"pageId": id})
		state.Alert = AlertMessage
		state.ErrorCode = string(stdErr.Code)

		metrics.SubmissionsTotal.WithLabelValues("failed").Inc()
		metrics.SubmissionFailures.WithLabelValues(string(stdErr.Code)).Inc()
		c.obs.RecordPrediction(ctx, elapsed, "failed", "")
		return state, nil
	}

	c.showResult(state, prediction)

	metrics.SubmissionsTotal.WithLabelValues("success").Inc()
	metrics.PredictionsByRisk.WithLabelValues(state.Result.Profile.Level.String()).Inc()
	c.obs.RecordPrediction(ctx, elapsed, "success", state.Result.Profile.Level.String())
	return state, nil
}

func (c *Controller) predict(ctx context.Context, values map[string]string) (*client.Prediction, error) {
	input, err := form.Prepare(values)
	if err != nil {
		return nil, err
	}
	return c.api.Predict(ctx, input)
}

func (c *Controller) showResult(state *PageState, prediction *client.Prediction) {
	result := display.Render(*prediction, state.Latency)
	if result.UnknownRiskLevel {
		c.logger.Warn("unknown risk level, using default profile", map[string]interface{}{
			"pageId":    state.ID,
			"riskLevel": prediction.RiskLevel,
			"profile":   result.Profile.Level.String(),
		})
	}

	state.Result = &result
	state.ResultVisible = true
	state.Latency = result.LatencyText
	state.Scroll = ScrollResult

	c.logger.Info("prediction rendered", map[string]interface{}{
		"pageId":    state.ID,
		"riskScore": result.RiskScore,
		"riskLevel": prediction.RiskLevel,
	})
}

// Reset hides the result panel and clears the form.
func (c *Controller) Reset(ctx context.Context, id string) (*PageState, error) {
	release, err := c.acquire(ctx, id, "reset")
	if err != nil {
		return nil, err
	}
	defer release()

	state, err := c.get(ctx, id)
	if err != nil {
		return nil, err
	}

	state.Values = map[string]string{}
	state.Result = nil
	state.ResultVisible = false
	state.Alert = ""
	state.ErrorCode = ""
	state.Scroll = ScrollTop

	if err := c.save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// View returns the page for rendering. Alert and Scroll are returned once and
// then cleared.
func (c *Controller) View(ctx context.Context, id string) (*PageState, error) {
	state, err := c.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if state.Alert == "" && state.Scroll == "" {
		return state, nil
	}

	shown := *state
	state.Alert = ""
	state.Scroll = ""
	if err := c.save(ctx, state); err != nil {
		// The page still renders; the alert may show again.
		c.logger.Warn("failed to clear one-shot page fields", map[string]interface{}{
			"pageId": id,
			"error":  err.Error(),
		})
	}
	return &shown, nil
}

// Peek returns the stored page without touching it.
func (c *Controller) Peek(ctx context.Context, id string) (*PageState, error) {
	return c.get(ctx, id)
}

// Close discards a page.
func (c *Controller) Close(ctx context.Context, id string) error {
	for _, key := range []string{id, healthKey(id)} {
		if err := c.store.Delete(ctx, key); err != nil {
			return commonerrors.NewStoreFailedError("delete", err)
		}
	}
	return nil
}

func (c *Controller) acquire(ctx context.Context, id, operation string) (session.Release, error) {
	release, err := c.store.Acquire(ctx, id)
	if err == nil {
		return release, nil
	}
	if errors.Is(err, session.ErrLocked) {
		metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
		return nil, c.errHandler.Handle(operation, commonerrors.NewSubmissionInFlightError(id), nil)
	}
	return nil, c.errHandler.Handle(operation, commonerrors.NewStoreFailedError("acquire", err), map[string]interface{}{"pageId": id})
}

func (c *Controller) get(ctx context.Context, id string) (*PageState, error) {
	var state PageState
	if err := c.store.Get(ctx, id, &state); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, commonerrors.NewPageNotFoundError(id)
		}
		return nil, commonerrors.NewStoreFailedError("get", err)
	}
	if state.Values == nil {
		state.Values = map[string]string{}
	}
	if state.Checking {
		var health healthRecord
		if err := c.store.Get(ctx, healthKey(id), &health); err == nil {
			state.setOnline(health.Online)
		}
	}
	return &state, nil
}

func (c *Controller) save(ctx context.Context, state *PageState) error {
	state.UpdatedAt = c.now()
	if err := c.store.Put(ctx, state.ID, state); err != nil {
		return commonerrors.NewStoreFailedError("put", err)
	}
	return nil
}
