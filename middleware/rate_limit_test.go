package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestLimiterSetBurstAndRefill(t *testing.T) {
	s := newLimiterSet(60) // one token per second, burst 30
	now := time.Now()
	for i := 0; i < 30; i++ {
		assert.True(t, s.allow("1.2.3.4", now), "request %d", i)
	}
	assert.False(t, s.allow("1.2.3.4", now))
	assert.True(t, s.allow("5.6.7.8", now), "other clients have their own bucket")
	assert.True(t, s.allow("1.2.3.4", now.Add(time.Second)))
}

func TestLimiterSetForgetsIdleClients(t *testing.T) {
	s := newLimiterSet(2)
	now := time.Now()
	s.allow("1.2.3.4", now)
	s.allow("9.9.9.9", now.Add(limiterIdleTTL+time.Second))
	assert.Len(t, s.clients, 1)
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/", RateLimit(2), func(ctx *gin.Context) { ctx.Status(http.StatusOK) })

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestLimiterSetSweepsAtMostOncePerGap(t *testing.T) {
	s := newLimiterSet(2)
	now := time.Now()
	s.allow("1.2.3.4", now)
	assert.Equal(t, now, s.lastSweep)

	// 1.2.3.4 has gone idle, but the previous sweep is too recent to rescan.
	s.clients["1.2.3.4"].expires = now.Add(-time.Second)
	s.allow("5.6.7.8", now.Add(limiterSweepGap/2))
	assert.Len(t, s.clients, 2)
	assert.Equal(t, now, s.lastSweep)

	later := now.Add(limiterSweepGap)
	s.allow("5.6.7.8", later)
	assert.Len(t, s.clients, 1)
	assert.Equal(t, later, s.lastSweep)
}
