package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/report-engine/stats"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func do(r http.Handler, method, path, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if remote != "" {
		req.RemoteAddr = remote
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	r := gin.New()
	r.Use(rl.RateLimit())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, "GET", "/ping", "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusOK, do(r, "GET", "/ping", "10.0.0.1:1234").Code)

	w := do(r, "GET", "/ping", "10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	// other clients have their own bucket
	assert.Equal(t, http.StatusOK, do(r, "GET", "/ping", "10.0.0.2:1234").Code)

	clock = clock.Add(time.Second)
	assert.Equal(t, http.StatusOK, do(r, "GET", "/ping", "10.0.0.1:1234").Code)
}

func TestRateLimiterSweep(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	rl.limiter("a")
	clock = clock.Add(2 * time.Minute)
	rl.limiter("b")
	clock = clock.Add(2 * time.Minute)
	rl.Sweep()

	_, hasA := rl.visitors["a"]
	_, hasB := rl.visitors["b"]
	assert.False(t, hasA, "idle client should be swept")
	assert.True(t, hasB)
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := do(r, "GET", "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"An unexpected error occurred"}`, w.Body.String())
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.POST("/api/reports", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, http.MethodOptions, "/api/reports", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-User-ID")
}

func TestStats(t *testing.T) {
	traffic, err := stats.NewTraffic(t.TempDir())
	require.NoError(t, err)

	r := gin.New()
	r.Use(Stats(traffic))
	r.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/api/reports", func(c *gin.Context) {
		c.Set(ReportURLKey, "https://example.com/page")
		c.Status(http.StatusBadRequest)
	})

	do(r, "GET", "/api/health", "10.0.0.1:1")
	do(r, "POST", "/api/reports", "10.0.0.2:1")

	figures := traffic.Snapshot(true)
	assert.Equal(t, 2, figures["uniqueVisitors24h"])
	assert.Equal(t, 1, figures["totalRequests"])
	assert.Equal(t, 100.0, figures["errorRate"])
	assert.Equal(t, []stats.URLCount{{URL: "https://example.com/page", Count: 1}}, figures["popularUrls"])
}
