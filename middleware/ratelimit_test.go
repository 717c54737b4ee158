package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		perMinute int
		requests  int
		allowed   int
	}{
		{"disabled", 0, 10, 10},
		{"burst of half the rate", 10, 8, 5},
		{"minimum burst of one", 1, 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/login", RateLimit(tt.perMinute), func(c *gin.Context) { c.Status(http.StatusOK) })

			ok := 0
			for i := 0; i < tt.requests; i++ {
				req := httptest.NewRequest(http.MethodPost, "/login", nil)
				req.RemoteAddr = "10.0.0.1:1234"
				w := httptest.NewRecorder()
				r.ServeHTTP(w, req)
				if w.Code == http.StatusOK {
					ok++
				} else {
					assert.Equal(t, http.StatusTooManyRequests, w.Code)
				}
			}
			assert.Equal(t, tt.allowed, ok)
		})
	}
}

func TestRateLimitPerClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", RateLimit(1), func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, addr)
	}
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Second), 1)
	assert.Equal(t, minIdle, rl.idle)

	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		assert.True(t, rl.limiter(ip).Allow(), ip)
	}
	assert.Equal(t, 3, rl.Len())

	now = now.Add(rl.idle / 2)
	assert.False(t, rl.limiter("10.0.0.1").Allow(), "an active client keeps its bucket")

	now = now.Add(rl.idle/2 + time.Second)
	rl.limiter("10.0.0.4")
	assert.Equal(t, 2, rl.Len(), "clients idle past the refill window are dropped")

	now = now.Add(2 * rl.idle)
	assert.True(t, rl.limiter("10.0.0.1").Allow())
	assert.Equal(t, 1, rl.Len())
}

func TestRateLimiterIdleCoversRefill(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Minute), 5)
	assert.Equal(t, 5*time.Minute, rl.idle)
}
