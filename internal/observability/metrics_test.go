package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/accounting/summary")
	req := httptest.NewRequest(http.MethodGet, "/accounting/summary", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, metrics)
	assert.Contains(t, body, `foodzone_http_requests_total{code="418",route="/accounting/summary"} 1`)
	assert.Contains(t, body, `foodzone_http_request_duration_seconds_bucket{route="/accounting/summary"`)
}

func TestObserveRecomputeAndCloseout(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveRecompute(3*time.Millisecond, 2)
	metrics.ObserveRecompute(time.Millisecond, 0)
	metrics.ObserveCloseout(-4.5, 0)

	body := scrape(t, metrics)
	assert.Contains(t, body, "foodzone_recompute_duration_seconds_count 2")
	assert.Contains(t, body, "foodzone_orders_skipped_total 2")
	assert.Contains(t, body, "foodzone_closeouts_total 1")
	assert.Contains(t, body, `foodzone_closeout_discrepancy_cedis{bucket="cash"} -4.5`)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveRecompute(time.Second, 1)
	metrics.ObserveCloseout(1, 1)

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
