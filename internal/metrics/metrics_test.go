package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Counters(t *testing.T) {
	p := New("test")
	ctx := context.Background()

	p.RecordCacheHit(ctx, "forecast")
	p.RecordCacheHit(ctx, "forecast")
	p.RecordCacheMiss(ctx, "forecast")
	p.RecordDeduplicated(ctx)
	p.RecordSuperseded(ctx)
	p.RecordWeatherServiceCall(ctx, "open-meteo", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.cacheHits.WithLabelValues("forecast")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.cacheMisses.WithLabelValues("forecast")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.deduplicated))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.superseded))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.serviceCalls.WithLabelValues("open-meteo", "error")))
}

func TestProvider_Handler(t *testing.T) {
	p := New("")
	p.ObserveHTTPRequest(http.MethodPost, "/api/predict", http.StatusOK, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `novacast_build_info{version="dev"} 1`)
	assert.Contains(t, string(body), `http_requests_total{method="POST",route="/api/predict",status="200"} 1`)
}
