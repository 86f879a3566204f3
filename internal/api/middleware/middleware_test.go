package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw)
	r.GET("/api/kernels", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func get(r http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/kernels", nil)
	req.RemoteAddr = remote
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitPerIP(t *testing.T) {
	r := newRouter(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 2}))

	assert.Equal(t, http.StatusOK, get(r, "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, get(r, "10.0.0.1:1000").Code)

	w := get(r, "10.0.0.1:1000")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"rate limit exceeded"}`, w.Body.String())

	// A different client has its own bucket
	assert.Equal(t, http.StatusOK, get(r, "10.0.0.2:1000").Code)
}

func TestRateLimitEvictsIdleClients(t *testing.T) {
	now := time.Unix(1700000000, 0)
	l := newIPLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, IdleTimeout: time.Minute},
		func() time.Time { return now })

	l.limiter("10.0.0.1")
	l.limiter("10.0.0.2")
	require.Equal(t, 2, l.size())

	now = now.Add(30 * time.Second)
	l.limiter("10.0.0.2")

	now = now.Add(45 * time.Second)
	l.limiter("10.0.0.3")
	assert.Equal(t, 2, l.size(), "only the idle client is dropped")
}

func TestGlobalRateLimit(t *testing.T) {
	r := newRouter(GlobalRateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 1}))

	assert.Equal(t, http.StatusOK, get(r, "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "10.0.0.2:1000").Code)
}

func TestCORSAllOrigins(t *testing.T) {
	cfg := DefaultCORSConfig()
	assert.False(t, cfg.AllowCredentials)

	r := newRouter(CORS(cfg))
	req := httptest.NewRequest(http.MethodGet, "/api/kernels", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSExplicitOrigins(t *testing.T) {
	cfg := DefaultCORSConfig("http://localhost:3000")
	assert.True(t, cfg.AllowCredentials)

	r := newRouter(CORS(cfg))

	req := httptest.NewRequest(http.MethodGet, "/api/kernels", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/kernels", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
