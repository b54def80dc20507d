package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go-emptrack/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimitByIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/login", middleware.RateLimitByIP(0.001, 2), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	call := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:5000"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1:5001"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:5002"))

	// a different client has its own bucket
	assert.Equal(t, http.StatusOK, call("10.0.0.2:5000"))
}

func TestRateLimitByUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/employees",
		func(c *gin.Context) {
			if s := c.GetHeader("X-Test-Subject"); s != "" {
				c.Set(middleware.ContextSubjectID, s)
			}
			c.Next()
		},
		middleware.RateLimitByUser(0.001, 1),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	call := func(subject string) int {
		req := httptest.NewRequest(http.MethodGet, "/employees", nil)
		if subject != "" {
			req.Header.Set("X-Test-Subject", subject)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call("a1"))
	assert.Equal(t, http.StatusTooManyRequests, call("a1"))
	assert.Equal(t, http.StatusOK, call("a2"))
	assert.Equal(t, http.StatusOK, call(""))
	assert.Equal(t, http.StatusOK, call(""))
}

func TestKeyedRateLimiter_ReusesLimiterPerKey(t *testing.T) {
	l := middleware.NewKeyedRateLimiter(1, 1)
	assert.Same(t, l.GetLimiter("k"), l.GetLimiter("k"))
	assert.NotSame(t, l.GetLimiter("k"), l.GetLimiter("other"))
}
