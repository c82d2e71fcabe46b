package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// RateLimitConfig configures the per-client sliding window limiter.
//
// Reads and writes are counted separately so that browsing the catalog
// cannot starve order placement and the other way round.
type RateLimitConfig struct {
	// Max is the number of read requests allowed per window.
	Max int
	// WriteMax is the number of POST, PUT, PATCH and DELETE requests allowed
	// per window. Zero means Max.
	WriteMax int
	// Window is the length of one window.
	Window time.Duration
	// KeyFunc identifies the client. Defaults to the client IP.
	KeyFunc func(*http.Request) string
}

// window is a sliding window counter approximated from two fixed windows.
type window struct {
	start time.Time
	curr  float64
	prev  float64
}

// take counts one request unless that would exceed limit, and returns the
// budget left and the end of the current fixed window.
func (c *window) take(now time.Time, size time.Duration, limit int) (left int, reset time.Time, ok bool) {
	if c.start.IsZero() {
		c.start = now.Truncate(size)
	}
	switch elapsed := now.Sub(c.start); {
	case elapsed >= 2*size:
		c.start, c.prev, c.curr = now.Truncate(size), 0, 0
	case elapsed >= size:
		c.start, c.prev, c.curr = c.start.Add(size), c.curr, 0
	}

	weight := 1 - float64(now.Sub(c.start))/float64(size)
	used := c.prev*math.Max(weight, 0) + c.curr
	reset = c.start.Add(size)
	if used+1 > float64(limit) {
		return 0, reset, false
	}
	c.curr++
	return int(float64(limit) - used - 1), reset, true
}

type rateLimiter struct {
	cfg RateLimitConfig

	mu      sync.Mutex
	windows map[string]*window
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientIP
	}
	if cfg.WriteMax <= 0 {
		cfg.WriteMax = cfg.Max
	}
	return &rateLimiter{cfg: cfg, windows: map[string]*window{}}
}

func (rl *rateLimiter) limit(write bool) int {
	if write {
		return rl.cfg.WriteMax
	}
	return rl.cfg.Max
}

func (rl *rateLimiter) allow(key string, write bool, now time.Time) (left int, reset time.Time, ok bool) {
	if write {
		key = "w:" + key
	} else {
		key = "r:" + key
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, found := rl.windows[key]
	if !found {
		c = &window{}
		rl.windows[key] = c
	}
	return c.take(now, rl.cfg.Window, rl.limit(write))
}

// evict drops clients idle for two windows.
func (rl *rateLimiter) evict(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, c := range rl.windows {
		if now.Sub(c.start) >= 2*rl.cfg.Window {
			delete(rl.windows, key)
		}
	}
}

func (rl *rateLimiter) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(2 * rl.cfg.Window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.evict(now)
		}
	}
}

// RateLimit limits requests per client and answers 429 once the budget is
// spent. Responses carry X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset.
func RateLimit(cfg RateLimitConfig) Middleware {
	return newRateLimiter(cfg).middleware
}

// RateLimitWithCleanup is RateLimit with idle clients evicted in the
// background until ctx is done.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	rl := newRateLimiter(cfg)
	go rl.evictLoop(ctx)
	return rl.middleware
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.cfg.KeyFunc(r)
		write := isWrite(r.Method)
		left, reset, ok := rl.allow(key, write, time.Now())

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(rl.limit(write)))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(left))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
		if ok {
			next.ServeHTTP(w, r)
			return
		}

		retry := math.Ceil(time.Until(reset).Seconds())
		h.Set("Retry-After", strconv.Itoa(int(math.Max(retry, 0))))
		zctx.From(r.Context()).Debug("Rate limited",
			zap.String("client", key),
			zap.Bool("write", write),
		)
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
	})
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// connection address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
