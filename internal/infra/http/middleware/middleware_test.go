package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newRouter(logger *zap.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(RequestLogger(logger))
	r.Use(Metrics)
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	return r
}

func TestMetricsCountsByRoutePattern(t *testing.T) {
	r := newRouter(zap.NewNop())
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/ok", "200"))

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/ok", "200")))
}

func TestMetricsCapturesErrorStatus(t *testing.T) {
	r := newRouter(zap.NewNop())
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/boom", "500"))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/boom", "500")))
}

func TestRequestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := newRouter(zap.New(core))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "request", entries[0].Message)
		assert.Equal(t, int64(200), entries[0].ContextMap()["status"])
		assert.Equal(t, "request failed", entries[1].Message)
		assert.Equal(t, int64(500), entries[1].ContextMap()["status"])
	}
}
