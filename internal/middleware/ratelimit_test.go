package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/symptom-checker-api/internal/domain"
)

func createLimitedRouter(cfg domain.RateLimitConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(NewRateLimiter(cfg).Handler())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return router
}

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	router := createLimitedRouter(domain.RateLimitConfig{RequestsPerSecond: 1, Burst: 3})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, "request %d within burst", i)
	}
}

func TestRateLimiter_RejectsBeyondBurst(t *testing.T) {
	router := createLimitedRouter(domain.RateLimitConfig{RequestsPerSecond: 1, Burst: 1})

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	router.ServeHTTP(first, req)

	// Act: immediate second request from the same client exceeds the bucket.
	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	router.ServeHTTP(second, req)

	// Assert
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRateLimiter_IsolatesClients(t *testing.T) {
	router := createLimitedRouter(domain.RateLimitConfig{RequestsPerSecond: 1, Burst: 1})

	exhaust := httptest.NewRequest(http.MethodGet, "/ping", nil)
	exhaust.RemoteAddr = "10.0.0.1:1234"
	router.ServeHTTP(httptest.NewRecorder(), exhaust)

	// Act: a different client has its own bucket.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
}
