package monitoring

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsIsolated(t *testing.T) {
	// Two collectors must not collide on registration.
	a := NewMetrics()
	b := NewMetrics()

	a.RecordLifecycleRejection("restart")
	assert.Equal(t, 1.0, testutil.ToFloat64(a.LifecycleRejections.WithLabelValues("restart")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.LifecycleRejections.WithLabelValues("restart")))
}

func TestRecordAttach(t *testing.T) {
	m := NewMetrics()
	timer := NewTimer(m)
	timer.Stop(AttachSuccess)
	m.RecordAttach(AttachParseError, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AttachTotal.WithLabelValues(AttachSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AttachTotal.WithLabelValues(AttachParseError)))
}

func TestSnapshot(t *testing.T) {
	m := NewMetrics()
	m.SetKernelsAttached(2)
	m.RecordHTTPRequest("GET", "/api/kernels", "200", time.Millisecond)
	m.RecordHTTPRequest("POST", "/api/kernels/:id/restart", "501", time.Millisecond)
	m.RecordLifecycleRejection("restart")

	s := m.Snapshot()
	assert.Equal(t, int64(2), s.KernelsAttached)
	assert.Equal(t, int64(2), s.TotalRequests)
	assert.Equal(t, int64(1), s.TotalErrors)
	assert.Equal(t, int64(1), s.LifecycleRejections)
	assert.GreaterOrEqual(t, s.UptimeSeconds, 0.0)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordHTTPRequest("GET", "/", "200", time.Millisecond)
		m.RecordAttach(AttachSuccess, time.Millisecond)
		m.RecordLifecycleRejection("shutdown")
		m.RecordDescriptorLoad(LoadOK)
		m.IncDescriptorDrift()
		m.SetKernelsAttached(1)
		NewTimer(m).Stop(AttachSuccess)
	})
	assert.Equal(t, Snapshot{}, m.Snapshot())
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()
	r := gin.New()
	r.Use(Middleware(m))
	r.GET("/api/kernels/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/kernels/abc", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/kernels/:id", "404")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "jupyter_attach_uptime_seconds"))
}
