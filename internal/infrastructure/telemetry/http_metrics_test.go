package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHTTPMetrics_ObserveRequest(t *testing.T) {
	m := NewHTTPMetrics()

	m.ObserveRequest(http.MethodPost, "/api/v1/invoices", http.StatusCreated, 20*time.Millisecond)
	m.ObserveRequest(http.MethodPost, "/api/v1/invoices", http.StatusCreated, 40*time.Millisecond)
	m.ObserveRequest(http.MethodPost, "/api/v1/invoices", http.StatusConflict, 5*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("POST", "/api/v1/invoices", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("POST", "/api/v1/invoices", "409")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.requestsTotal))
}

func TestHTTPMetrics_InFlight(t *testing.T) {
	m := NewHTTPMetrics()
	done := m.Started()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inFlight))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
}

func TestHTTPMetrics_Handler(t *testing.T) {
	m := NewHTTPMetrics()
	m.ObserveRequest(http.MethodGet, "/health", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `dinar_http_requests_total{code="200",method="GET",route="/health"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	var missing *HTTPMetrics
	rec = httptest.NewRecorder()
	missing.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotPanics(t, func() {
		missing.ObserveRequest(http.MethodGet, "/", http.StatusOK, 0)
		missing.Started()()
	})
}
