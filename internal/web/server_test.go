package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"churn-console/internal/churn/client"
	"churn-console/internal/churn/form"
	"churn-console/internal/common/logger"
	"churn-console/internal/common/session"
	"churn-console/internal/controller"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ==========================
// Test Helper Functions
// ==========================

type stubAPI struct {
	healthErr  error
	prediction *client.Prediction
	predictErr error
}

func (s *stubAPI) Health(context.Context) (*client.HealthStatus, error) {
	return &client.HealthStatus{}, s.healthErr
}

func (s *stubAPI) Predict(context.Context, form.Input) (*client.Prediction, error) {
	return s.prediction, s.predictErr
}

func createTestServer(t *testing.T, api *stubAPI) *Server {
	t.Helper()
	ctrl := controller.New(api, session.NewMemoryStore(time.Hour), &controller.Config{}, logger.NewTestLogger(t))
	t.Cleanup(ctrl.Wait)
	srv, err := New(ctrl, Config{MetricsEnabled: true}, logger.NewTestLogger(t))
	require.NoError(t, err)
	return srv
}

func createTestForm() url.Values {
	return url.Values{
		"Call_Failure":            {"8"},
		"Complains":               {"0"},
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
	}
}

func do(t *testing.T, srv *Server, method, target string, body url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func newPage(t *testing.T, srv *Server) string {
	t.Helper()
	rec := do(t, srv, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	location := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "/p/"), location)

	require.Eventually(t, func() bool {
		rec := do(t, srv, http.MethodGet, location+"/state", nil)
		return rec.Code == http.StatusOK && strings.Contains(rec.Body.String(), `"checking":false`)
	}, 2*time.Second, 5*time.Millisecond, "health check settles")
	return location
}

// ==========================
// Page lifecycle
// ==========================

func TestServer_NewPageRendersForm(t *testing.T) {
	srv := createTestServer(t, &stubAPI{})
	page := newPage(t, srv)

	rec := do(t, srv, http.MethodGet, page, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "System Online")
	assert.Contains(t, body, "Analyze Risk")
	assert.Contains(t, body, `name="Customer_Value"`)
	assert.Contains(t, body, `id="result" class="hidden"`)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestServer_RendersBeforeHealthCheckSettles(t *testing.T) {
	gate := make(chan struct{})
	api := &gatedHealthAPI{stubAPI: &stubAPI{}, gate: gate}
	ctrl := controller.New(api, session.NewMemoryStore(time.Hour), &controller.Config{}, logger.NewTestLogger(t))
	t.Cleanup(ctrl.Wait)
	t.Cleanup(func() { close(gate) })
	srv, err := New(ctrl, Config{}, logger.NewTestLogger(t))
	require.NoError(t, err)

	rec := do(t, srv, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	page := rec.Header().Get("Location")

	rec = do(t, srv, http.MethodGet, page, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Checking...")
	assert.Contains(t, body, `class="status checking"`)
	assert.Contains(t, body, "/state", "page polls for the health result")

	rec = do(t, srv, http.MethodGet, page+"/state", nil)
	assert.Contains(t, rec.Body.String(), `"checking":true`)
}

// gatedHealthAPI holds Health until gate is closed.
type gatedHealthAPI struct {
	*stubAPI
	gate chan struct{}
}

func (g *gatedHealthAPI) Health(ctx context.Context) (*client.HealthStatus, error) {
	<-g.gate
	return g.stubAPI.Health(ctx)
}

func TestServer_OfflineStatus(t *testing.T) {
	srv := createTestServer(t, &stubAPI{healthErr: errors.New("connection refused")})
	page := newPage(t, srv)

	rec := do(t, srv, http.MethodGet, page, nil)
	assert.Contains(t, rec.Body.String(), "System Offline")
}

func TestServer_SubmitShowsResult(t *testing.T) {
	latency := 45 * time.Millisecond
	srv := createTestServer(t, &stubAPI{prediction: &client.Prediction{
		ChurnProbability: 0.734,
		ChurnPrediction:  1,
		RiskLevel:        "High",
		Confidence:       0.812,
		Latency:          &latency,
	}})
	page := newPage(t, srv)

	rec := do(t, srv, http.MethodPost, page+"/submit", createTestForm())
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, page+"#result", rec.Header().Get("Location"))

	rec = do(t, srv, http.MethodGet, page, nil)
	body := rec.Body.String()
	assert.Contains(t, body, "73%")
	assert.Contains(t, body, "High Risk")
	assert.Contains(t, body, "Churn Likely")
	assert.Contains(t, body, "81.2%")
	assert.Contains(t, body, "45ms")
	assert.Contains(t, body, "conic-gradient(#ef4444 73%, transparent 0%)")
	assert.Contains(t, body, "Immediate intervention required!")
	assert.NotContains(t, body, `id="result" class="hidden"`)
	assert.Contains(t, body, `value="30"`, "submitted values stay in the form")
}

func TestServer_SubmitFailureShowsAlertOnce(t *testing.T) {
	srv := createTestServer(t, &stubAPI{predictErr: errors.New("boom")})
	page := newPage(t, srv)

	rec := do(t, srv, http.MethodPost, page+"/submit", createTestForm())
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, page, rec.Header().Get("Location"))

	rec = do(t, srv, http.MethodGet, page, nil)
	assert.Contains(t, rec.Body.String(), "Please ensure the API is running.")
	assert.NotContains(t, rec.Body.String(), " disabled>", "submit control re-enabled")

	rec = do(t, srv, http.MethodGet, page, nil)
	assert.NotContains(t, rec.Body.String(), "Please ensure the API is running.")
}

func TestServer_Reset(t *testing.T) {
	srv := createTestServer(t, &stubAPI{prediction: &client.Prediction{RiskLevel: "Low", ChurnProbability: 0.1, Confidence: 0.9}})
	page := newPage(t, srv)

	do(t, srv, http.MethodPost, page+"/submit", createTestForm())

	rec := do(t, srv, http.MethodPost, page+"/reset", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, page+"#top", rec.Header().Get("Location"))

	rec = do(t, srv, http.MethodGet, page, nil)
	body := rec.Body.String()
	assert.Contains(t, body, `id="result" class="hidden"`)
	assert.NotContains(t, body, `value="30"`)
}

func TestServer_State(t *testing.T) {
	srv := createTestServer(t, &stubAPI{})
	page := newPage(t, srv)

	rec := do(t, srv, http.MethodGet, page+"/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"statusText":"System Online"`)
	assert.Contains(t, rec.Body.String(), `"label":"Analyze Risk"`)
}

func TestServer_UnknownPage(t *testing.T) {
	srv := createTestServer(t, &stubAPI{})

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/p/does-not-exist"},
		{http.MethodPost, "/p/does-not-exist/submit"},
		{http.MethodPost, "/p/does-not-exist/reset"},
	} {
		rec := do(t, srv, tc.method, tc.path, url.Values{})
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.path)
		assert.Contains(t, rec.Body.String(), "PAGE_NOT_FOUND")
	}
}

// ==========================
// Operational endpoints
// ==========================

func TestServer_Healthz(t *testing.T) {
	srv := createTestServer(t, &stubAPI{})
	rec := do(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	srv := createTestServer(t, &stubAPI{})
	newPage(t, srv)

	rec := do(t, srv, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "churn_api_healthy")
}
