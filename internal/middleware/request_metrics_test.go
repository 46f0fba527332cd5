package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/empowerfit/backend/internal/middleware"
	"github.com/empowerfit/backend/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestMetrics(t *testing.T) {
	metricsManager, reg := metrics.NewTestManagerAndRegistry()

	r := mux.NewRouter()
	r.HandleFunc("/weight/entries/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Use(middleware.RequestMetrics(metricsManager))

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/weight/entries/12", nil))
		require.Equal(t, http.StatusNotFound, rr.Code)
	}

	assert.Equal(t, float64(3), testutil.ToFloat64(metricsManager.CounterRequests.WithLabelValues("DELETE", "404")))
	assert.Equal(t, float64(0), testutil.ToFloat64(metricsManager.GaugeRequests))

	count, err := testutil.GatherAndCount(reg, "backend_test_server_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
