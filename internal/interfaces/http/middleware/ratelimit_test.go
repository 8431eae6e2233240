package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (m *manualClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *manualClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

func newClockedLimiter(limit int, window time.Duration) (*RateLimiter, *manualClock) {
	clock := &manualClock{now: time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limit, window)
	rl.now = clock.Now
	return rl, clock
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows a burst up to the limit", func(t *testing.T) {
		limiter, _ := newClockedLimiter(5, time.Minute)
		for i := 0; i < 5; i++ {
			assert.True(t, limiter.Allow("client1"), "request %d should be allowed", i+1)
		}
		assert.False(t, limiter.Allow("client1"))
	})

	t.Run("separate buckets per client", func(t *testing.T) {
		limiter, _ := newClockedLimiter(2, time.Minute)

		assert.True(t, limiter.Allow("clientA"))
		assert.True(t, limiter.Allow("clientA"))
		assert.False(t, limiter.Allow("clientA"))

		assert.True(t, limiter.Allow("clientB"))
	})

	t.Run("refills over the window", func(t *testing.T) {
		limiter, clock := newClockedLimiter(2, time.Minute)

		assert.True(t, limiter.Allow("client3"))
		assert.True(t, limiter.Allow("client3"))
		assert.False(t, limiter.Allow("client3"))

		clock.Advance(30 * time.Second)
		assert.True(t, limiter.Allow("client3"))
		assert.False(t, limiter.Allow("client3"))
	})

	t.Run("remaining counts whole tokens", func(t *testing.T) {
		limiter, _ := newClockedLimiter(5, time.Minute)

		assert.Equal(t, 5, limiter.Remaining("newclient"))
		limiter.Allow("newclient")
		limiter.Allow("newclient")
		assert.Equal(t, 3, limiter.Remaining("newclient"))
	})

	t.Run("sweep drops idle clients", func(t *testing.T) {
		limiter, clock := newClockedLimiter(1, time.Minute)
		limiter.Allow("old")
		clock.Advance(3 * time.Minute)
		limiter.Allow("fresh")

		assert.Equal(t, 1, limiter.Sweep())
		assert.Equal(t, 1, limiter.Remaining("old"))
	})

	t.Run("retry after rounds up to a whole second", func(t *testing.T) {
		limiter := NewRateLimiter(120, time.Minute)
		assert.Equal(t, 1, limiter.RetryAfter())

		limiter = NewRateLimiter(1, time.Minute)
		assert.Equal(t, 60, limiter.RetryAfter())
	})

	t.Run("concurrent access is safe", func(t *testing.T) {
		limiter, _ := newClockedLimiter(100, time.Minute)
		var wg sync.WaitGroup
		var mu sync.Mutex
		allowed := 0

		for i := 0; i < 150; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if limiter.Allow("concurrent-client") {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}

		wg.Wait()
		assert.Equal(t, 100, allowed)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	newRouter := func(limiter *RateLimiter) *gin.Engine {
		router := gin.New()
		router.Use(RateLimit(limiter))
		router.GET("/test", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})
		return router
	}

	t.Run("sets limit headers", func(t *testing.T) {
		limiter, _ := newClockedLimiter(5, time.Minute)
		router := newRouter(limiter)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("returns 429 envelope when limit exceeded", func(t *testing.T) {
		limiter, _ := newClockedLimiter(2, time.Minute)
		router := newRouter(limiter)

		for i := 0; i < 2; i++ {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_RATE_LIMITED")
		assert.Equal(t, "30", w.Header().Get("Retry-After"))
	})

	t.Run("separate limits per client IP", func(t *testing.T) {
		limiter, _ := newClockedLimiter(1, time.Minute)
		router := newRouter(limiter)

		send := func(addr string) int {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.RemoteAddr = addr
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			return w.Code
		}

		assert.Equal(t, http.StatusOK, send("10.0.0.1:1000"))
		assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:1001"))
		assert.Equal(t, http.StatusOK, send("10.0.0.2:1000"))
	})
}

func TestRateLimitByKey(t *testing.T) {
	limiter, _ := newClockedLimiter(1, time.Minute)
	router := gin.New()
	router.Use(RateLimitByKey(limiter, func(c *gin.Context) string {
		return c.GetHeader("Authorization")
	}))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	send := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("Bearer a"))
	assert.Equal(t, http.StatusTooManyRequests, send("Bearer a"))
	assert.Equal(t, http.StatusOK, send("Bearer b"))
}
