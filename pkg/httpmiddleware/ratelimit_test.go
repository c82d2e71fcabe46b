package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, method, addr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/orders", nil)
	req.RemoteAddr = addr
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimit_Budget(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 3, Window: time.Minute})(okHandler())

	for i := range 3 {
		w := hit(h, http.MethodGet, "10.0.0.1:1000")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(2-i), w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}

	w := hit(h, http.MethodGet, "10.0.0.1:1000")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, w.Body.String())

	assert.Equal(t, http.StatusOK, hit(h, http.MethodGet, "10.0.0.2:1000").Code, "other clients are unaffected")
}

func TestRateLimit_WritesHaveTheirOwnBudget(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 2, WriteMax: 1, Window: time.Minute})(okHandler())

	w := hit(h, http.MethodPost, "10.0.0.1:1000")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, http.StatusTooManyRequests, hit(h, http.MethodPut, "10.0.0.1:1000").Code)

	assert.Equal(t, http.StatusOK, hit(h, http.MethodGet, "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, hit(h, http.MethodGet, "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, http.MethodGet, "10.0.0.1:1000").Code)
}

func TestRateLimit_KeyFunc(t *testing.T) {
	h := RateLimit(RateLimitConfig{
		Max:     1,
		Window:  time.Minute,
		KeyFunc: func(*http.Request) string { return "everyone" },
	})(okHandler())

	assert.Equal(t, http.StatusOK, hit(h, http.MethodGet, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, http.MethodGet, "10.0.0.2:2").Code)
}

func TestWindow_Slides(t *testing.T) {
	var (
		c     window
		size  = time.Minute
		start = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	)

	for range 4 {
		_, _, ok := c.take(start, size, 4)
		require.True(t, ok)
	}
	_, reset, ok := c.take(start.Add(30*time.Second), size, 4)
	assert.False(t, ok)
	assert.Equal(t, start.Add(size), reset)

	// Halfway into the next window half of the previous count still weighs.
	left, _, ok := c.take(start.Add(90*time.Second), size, 4)
	require.True(t, ok)
	assert.Equal(t, 1, left)

	// Two full windows later the history is gone.
	left, _, ok = c.take(start.Add(3*size), size, 4)
	require.True(t, ok)
	assert.Equal(t, 3, left)
}

func TestRateLimiter_Evict(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 1, Window: time.Second})
	now := time.Now()
	rl.allow("a", false, now)
	rl.allow("b", true, now)
	require.Len(t, rl.windows, 2)

	rl.evict(now.Add(time.Second))
	assert.Len(t, rl.windows, 2)
	rl.evict(now.Add(3 * time.Second))
	assert.Empty(t, rl.windows)
}

func TestClientIP(t *testing.T) {
	for _, tc := range []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{name: "RemoteAddr", remote: "192.0.2.1:5555", want: "192.0.2.1"},
		{name: "NoPort", remote: "192.0.2.1", want: "192.0.2.1"},
		{name: "ForwardedFor", header: map[string]string{"X-Forwarded-For": " 203.0.113.7 , 10.0.0.1"}, remote: "10.0.0.1:1", want: "203.0.113.7"},
		{name: "RealIP", header: map[string]string{"X-Real-IP": "198.51.100.2"}, remote: "10.0.0.1:1", want: "198.51.100.2"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, clientIP(req))
		})
	}
}
