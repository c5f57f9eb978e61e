// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churn-console/internal/churn/client"
	"churn-console/internal/common/config"
	"churn-console/internal/common/database"
	"churn-console/internal/common/logger"
	"churn-console/internal/common/session"
	"churn-console/internal/controller"
	"churn-console/internal/web"
)

// ==========================
// 1. Fake prediction service
// ==========================

// fakePredictionAPI mimics the prediction service contract: /health,
// /predict with an X-Process-Time header, and 422 for out of range input.
type fakePredictionAPI struct {
	healthy     atomic.Bool
	predictions atomic.Int32
	gate        chan struct{}
}

func newFakePredictionAPI() *fakePredictionAPI {
	f := &fakePredictionAPI{}
	f.healthy.Store(true)
	return f
}

func (f *fakePredictionAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/health":
		if !f.healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "healthy", "model_loaded": true, "model_accuracy": 0.95, "features": 13, "version": "1.0.0",
		})

	case r.Method == http.MethodPost && r.URL.Path == "/predict":
		f.predictions.Add(1)
		if f.gate != nil {
			<-f.gate
		}

		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid json"})
			return
		}
		age, _ := body["Age"].(float64)
		if age > 120 {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "Age out of range"})
			return
		}

		// Complaints drive the fake model.
		probability, risk := 0.12, "Low"
		if complains, _ := body["Complains"].(float64); complains == 1 {
			probability, risk = 0.734, "High"
		}
		prediction := 0
		if probability >= 0.5 {
			prediction = 1
		}
		w.Header().Set("X-Process-Time", "0.045")
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"churn_probability": probability,
			"churn_prediction":  prediction,
			"risk_level":        risk,
			"confidence":        0.812,
		})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// ==========================
// 2. Console wiring
// ==========================

type console struct {
	api     *fakePredictionAPI
	server  *httptest.Server
	browser *http.Client
}

func startConsole(t *testing.T, api *fakePredictionAPI) *console {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewTestLogger(t)

	apiServer := httptest.NewServer(api)
	t.Cleanup(apiServer.Close)

	mr := miniredis.RunT(t)
	redisClient := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, redisClient.Ping(context.Background()))
	t.Cleanup(func() { _ = redisClient.Close() })

	store := session.NewRedisStore(redisClient.Client, "e2e:page:", time.Hour, time.Minute)
	predictionClient := client.New(client.Config{BaseURL: apiServer.URL, Timeout: 5 * time.Second}, log)
	ctrl := controller.New(predictionClient, store, &controller.Config{HealthTimeout: time.Second}, log)
	t.Cleanup(ctrl.Wait)

	srv, err := web.New(ctrl, web.Config{MetricsEnabled: true}, log)
	require.NoError(t, err)

	consoleServer := httptest.NewServer(srv.Handler())
	t.Cleanup(consoleServer.Close)

	return &console{
		api:    api,
		server: consoleServer,
		browser: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *console) get(t *testing.T, path string) (int, string, string) {
	t.Helper()
	resp, err := c.browser.Get(c.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, resp.Header.Get("Location"), string(body)
}

func (c *console) post(t *testing.T, path string, form url.Values) (int, string) {
	t.Helper()
	resp, err := c.browser.PostForm(c.server.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode, resp.Header.Get("Location")
}

func (c *console) openPage(t *testing.T) string {
	t.Helper()
	status, location, _ := c.get(t, "/")
	require.Equal(t, http.StatusSeeOther, status)

	// The health check runs in the background; the page polls its state.
	require.Eventually(t, func() bool {
		resp, err := c.browser.Get(c.server.URL + location + "/state")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		state, _ := io.ReadAll(resp.Body)
		return strings.Contains(string(state), `"checking":false`)
	}, 2*time.Second, 10*time.Millisecond)
	return location
}

func customerForm(complains string) url.Values {
	return url.Values{
		"Call_Failure":            {"8"},
		"Complains":               {complains},
		"Subscription_Length":     {"38"},
		"Charge_Amount":           {"0"},
		"Seconds_of_Use":          {"4370"},
		"Frequency_of_use":        {"71"},
		"Frequency_of_SMS":        {"5"},
		"Distinct_Called_Numbers": {"17"},
		"Age_Group":               {"3"},
		"Tariff_Plan":             {"1"},
		"Status":                  {"1"},
		"Age":                     {"30"},
		"Customer_Value":          {"197.64"},
		"notes":                   {"renewal call"},
	}
}

// ==========================
// 3. Journeys
// ==========================

func TestFullE2E(t *testing.T) {
	c := startConsole(t, newFakePredictionAPI())

	t.Log("🚀 Opening a page")
	page := c.openPage(t)
	status, _, body := c.get(t, page)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "System Online")

	t.Log("📨 Submitting a high risk customer")
	status, location := c.post(t, page+"/submit", customerForm("1"))
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, page+"#result", location)

	_, _, body = c.get(t, page)
	for _, want := range []string{"73%", "High Risk", "Churn Likely", "81.2%", "45ms", "Immediate intervention required!"} {
		assert.Contains(t, body, want)
	}

	t.Log("📨 Submitting a low risk customer")
	c.post(t, page+"/submit", customerForm("0"))
	_, _, body = c.get(t, page)
	assert.Contains(t, body, "12%")
	assert.Contains(t, body, "Retention Likely")
	assert.Contains(t, body, "Customer is satisfied. No immediate action required.")

	t.Log("🧹 Resetting the form")
	status, location = c.post(t, page+"/reset", url.Values{})
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, page+"#top", location)
	_, _, body = c.get(t, page)
	assert.Contains(t, body, `id="result" class="hidden"`)

	assert.EqualValues(t, 2, c.api.predictions.Load())
	t.Log("✅ Full journey passed")
}

func TestE2E_OfflineAndRejectedInput(t *testing.T) {
	api := newFakePredictionAPI()
	api.healthy.Store(false)
	c := startConsole(t, api)

	page := c.openPage(t)
	_, _, body := c.get(t, page)
	assert.Contains(t, body, "System Offline")

	// Non-numeric input is rejected before the service is called.
	form := customerForm("0")
	form.Set("Age", "119")
	form.Set("Customer_Value", "abc")
	status, location := c.post(t, page+"/submit", form)
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, page, location)

	_, _, body = c.get(t, page)
	assert.Contains(t, body, controller.AlertMessage)
	assert.Zero(t, api.predictions.Load(), "invalid form never reaches the service")
}

func TestE2E_OneSubmissionInFlightPerPage(t *testing.T) {
	api := newFakePredictionAPI()
	api.gate = make(chan struct{})
	c := startConsole(t, api)
	page := c.openPage(t)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		resp, err := c.browser.PostForm(c.server.URL+page+"/submit", customerForm("1"))
		if err == nil {
			resp.Body.Close()
		}
	}()

	require.Eventually(t, func() bool { return api.predictions.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	_, _, state := c.get(t, page+"/state")
	assert.Contains(t, state, `"loading":true`)
	assert.Contains(t, state, `"label":"Analyzing..."`)

	status, location := c.post(t, page+"/submit", customerForm("1"))
	assert.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, page, location)

	close(api.gate)
	wg.Wait()

	assert.EqualValues(t, 1, api.predictions.Load())
	_, _, state = c.get(t, page+"/state")
	assert.Contains(t, state, `"loading":false`)
	assert.True(t, strings.Contains(state, `"riskLabel":"High Risk"`))
}
