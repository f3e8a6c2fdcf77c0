package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-engine/internal/logging"
)

func newRouter(t *testing.T, reg *prometheus.Registry, buf *bytes.Buffer) (*gin.Engine, *PrometheusMiddleware) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logging.NewLogger("api", logging.Options{Console: buf, ConsoleLevel: logging.INFO})
	require.NoError(t, err)

	r := gin.New()
	r.Use(NewRequestLogger(log).Handler())
	pm := NewPrometheusMiddleware("test", reg)
	r.Use(pm.Handler())
	pm.RegisterMetricsEndpoint(r, reg)

	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/bad", func(c *gin.Context) { c.String(http.StatusBadRequest, "bad") })
	return r, pm
}

func TestPrometheusMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	var buf bytes.Buffer
	r, pm := newRouter(t, reg, &buf)

	for _, path := range []string{"/ok", "/ok", "/bad", "/nowhere"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(pm.reqErrors.WithLabelValues("GET", "/bad", "400")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.reqErrors.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(pm.reqInflight))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), "test_http_request_duration_seconds")

	assert.Contains(t, buf.String(), "[INFO] [api] [HTTP] ◀ GET /ok 200")
}

func TestPrometheusMiddlewareReuse(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := NewPrometheusMiddleware("svc", reg)
	b := NewPrometheusMiddleware("svc", reg)
	assert.Same(t, a.reqDuration, b.reqDuration)
}

func TestRequestLoggerSetsTraceID(t *testing.T) {
	var buf bytes.Buffer
	r, _ := newRouter(t, prometheus.NewRegistry(), &buf)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.NotEmpty(t, w.Header().Get("X-Trace-Id"))
}
