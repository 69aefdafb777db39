package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/novacast/internal/aggregator"
	"github.com/vzahanych/novacast/internal/config"
	"github.com/vzahanych/novacast/internal/forecast"
	"github.com/vzahanych/novacast/internal/metrics"
	"github.com/vzahanych/novacast/internal/server/handlers"
	"github.com/vzahanych/novacast/pkg/telemetry"
	"go.uber.org/zap/zaptest"
)

type stubService struct {
	days int
	err  error
}

func (s *stubService) Name() string { return "stub" }

func (s *stubService) DailyForecast(_ context.Context, _, _ float64, start time.Time, days int) ([]forecast.DayForecast, error) {
	if s.err != nil {
		return nil, s.err
	}
	n := min(days, s.days)
	out := make([]forecast.DayForecast, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, forecast.DayForecast{
			Date:              start.AddDate(0, 0, i).Format(forecast.DateLayout),
			Tmax:              forecast.Celsius(21),
			PrecipProbability: 10,
			PrecipType:        forecast.PrecipTypeNone,
		})
	}
	return out, nil
}

func newTestServer(t *testing.T, svc *stubService) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	staticDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<h1>NovaCast</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "styles.css"), []byte("body{}"), 0o644))

	cfg := config.NewDefaultConfig()
	cfg.Server.StaticDir = staticDir
	cfg.Weather.Services = map[string]config.WeatherServiceConfig{}

	logger := zaptest.NewLogger(t)
	tele := &telemetry.Telemetry{}
	provider := metrics.New("test")

	agg := aggregator.NewAggregator(&cfg.Weather, logger, tele)
	agg.SetMetricsRecorder(provider)
	if svc != nil {
		agg.Register(svc.Name(), 0, svc)
	}

	return NewServer(cfg, agg, provider, logger, tele)
}

func daysFromToday(n int) string {
	return time.Now().AddDate(0, 0, n).Format(forecast.TargetDateLayout)
}

func postPredict(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handlers.ErrorResponse {
	t.Helper()
	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestPredict_Success(t *testing.T) {
	s := newTestServer(t, &stubService{days: 600})

	rec := postPredict(t, s, `{"lat":0,"lon":0,"target_date":"`+daysFromToday(3)+`","horizon_days":10}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp forecast.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Daily, 10)
	assert.Equal(t, time.Now().Format(forecast.DateLayout), resp.Daily[0].Date)
	assert.Equal(t, forecast.Celsius(21), resp.Daily[0].Tmax)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestPredict_DefaultAndClampedHorizon(t *testing.T) {
	s := newTestServer(t, &stubService{days: 600})

	rec := postPredict(t, s, `{"lat":48.85,"lon":2.35,"target_date":"`+daysFromToday(1)+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp forecast.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Daily, 360)

	rec = postPredict(t, s, `{"lat":48.85,"lon":2.35,"target_date":"`+daysFromToday(700)+`","horizon_days":150}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Daily, 540)
}

func TestPredict_Validation(t *testing.T) {
	s := newTestServer(t, &stubService{days: 30})

	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{"lat":`, "INVALID_BODY"},
		{"missing lat", `{"lon":2,"target_date":"` + daysFromToday(1) + `"}`, "INVALID_PARAMS"},
		{"latitude out of range", `{"lat":91,"lon":2,"target_date":"` + daysFromToday(1) + `"}`, "INVALID_PARAMS"},
		{"longitude out of range", `{"lat":1,"lon":-181,"target_date":"` + daysFromToday(1) + `"}`, "INVALID_PARAMS"},
		{"missing target date", `{"lat":1,"lon":2}`, "INVALID_PARAMS"},
		{"negative horizon", `{"lat":1,"lon":2,"target_date":"` + daysFromToday(1) + `","horizon_days":-5}`, "INVALID_PARAMS"},
		{"bad date format", `{"lat":1,"lon":2,"target_date":"2026-10-20"}`, "INVALID_TARGET_DATE"},
		{"date in the past", `{"lat":1,"lon":2,"target_date":"` + daysFromToday(-1) + `"}`, "PAST_TARGET_DATE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postPredict(t, s, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}

	rec := postPredict(t, s, `{"lat":1,"lon":2,"target_date":"20261340"}`)
	assert.Equal(t, "target_date format invalid, expected YYYYMMDD", decodeError(t, rec).Error)
}

func TestPredict_NoDays(t *testing.T) {
	s := newTestServer(t, &stubService{days: 0})

	rec := postPredict(t, s, `{"lat":1,"lon":2,"target_date":"`+daysFromToday(1)+`"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NO_FORECAST", decodeError(t, rec).Code)
}

func TestPredict_UpstreamFailure(t *testing.T) {
	s := newTestServer(t, &stubService{err: errors.New("upstream down")})

	rec := postPredict(t, s, `{"lat":1,"lon":2,"target_date":"`+daysFromToday(1)+`"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "PREDICTION_ERROR", decodeError(t, rec).Code)
}

func TestStaticFrontend(t *testing.T) {
	s := newTestServer(t, &stubService{days: 1})

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "NovaCast")

	rec = get("/styles.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body{}", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, get("/missing.js").Code)
	assert.Equal(t, http.StatusNotFound, get("/../../etc/passwd").Code)
	assert.Equal(t, http.StatusNotFound, get("/api/unknown").Code)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, &stubService{days: 1})

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	empty := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	empty.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var health handlers.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "unavailable", health.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, &stubService{days: 5})
	postPredict(t, s, `{"lat":1,"lon":2,"target_date":"`+daysFromToday(1)+`","horizon_days":5}`)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `http_requests_total{method="POST",route="/api/predict",status="200"} 1`)
	assert.Contains(t, body, `novacast_weather_service_calls_total{outcome="success",service="stub"} 1`)
	assert.Contains(t, body, `novacast_cache_misses_total{cache="daily_forecast"} 1`)
}

func TestRequestIDAndCORS(t *testing.T) {
	s := newTestServer(t, &stubService{days: 1})

	req := httptest.NewRequest(http.MethodOptions, "/api/predict", bytes.NewReader(nil))
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
