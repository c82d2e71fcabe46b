package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
)

func passing() CheckFunc {
	return func(context.Context) error { return nil }
}

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func serve(t *testing.T, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	return w
}

// trip drives c past its failure threshold.
func trip(c *check) {
	for range c.failureThreshold {
		c.run(context.Background())
	}
}

func TestLiveEndpoint(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, passing())
	h.AddLivenessCheck("gc", time.Second, failing("GC pause 2s exceeds threshold 1s"))

	w := serve(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	h.checks[1].run(context.Background())
	h.checks[1].run(context.Background())
	w = serve(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, w.Code, "below threshold")

	h.checks[1].run(context.Background())
	w = serve(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unhealthy","checks":{"gc":"GC pause 2s exceeds threshold 1s"}}`, w.Body.String())
}

func TestReadyEndpoint(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, passing())

	w := serve(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unhealthy","checks":{"_readiness":"service is not ready"}}`, w.Body.String())

	h.SetReady(true)
	w = serve(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	h.SetReady(false)
	w = serve(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestReadyEndpoint_FailingReadinessCheck(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, failing("connection refused"))
	h.AddLivenessCheck("goroutines", time.Second, failing("too many"))
	h.SetReady(true)
	trip(h.checks[0])
	trip(h.checks[1])

	w := serve(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unhealthy","checks":{"postgres":"connection refused"}}`, w.Body.String())
	assert.False(t, h.IsReady())
}

func TestReadyEndpoint_InfoCheckDoesNotGate(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, passing())
	h.AddInfoCheck("cache", time.Second, failing("dial tcp: connection refused"))
	h.SetReady(true)
	trip(h.checks[1])

	w := serve(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"degraded","info":{"cache":"dial tcp: connection refused"}}`, w.Body.String())
	assert.True(t, h.IsReady())

	w = serve(t, h.LiveEndpoint)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCheckRecovers(t *testing.T) {
	down := true
	h := New()
	h.AddReadinessCheck("redis", time.Second, func(context.Context) error {
		if down {
			return errors.New("down")
		}
		return nil
	})
	c := h.checks[0]

	assert.NoError(t, c.lastError())
	trip(c)
	assert.False(t, c.healthy.Load())
	assert.EqualError(t, c.lastError(), "down")

	down = false
	c.run(context.Background())
	assert.True(t, c.healthy.Load())
}

func TestCheckTimeout(t *testing.T) {
	h := New()
	h.AddReadinessCheck("slow", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	h.checks[0].run(context.Background())
	assert.ErrorIs(t, h.checks[0].lastError(), context.DeadlineExceeded)
}

func TestConcurrentAccess(t *testing.T) {
	h := New()
	h.AddLivenessCheck("live", time.Second, failing("err"))
	h.AddReadinessCheck("ready", time.Second, passing())
	h.AddInfoCheck("info", time.Second, failing("err"))
	h.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, 5*time.Millisecond)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				h.IsReady()
				h.LiveEndpoint(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/livez", nil))
				h.ReadyEndpoint(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", nil))
			}
		}()
	}
	wg.Wait()
	h.Stop()
	h.Stop()
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))

	err := GoroutineCountCheck(0)(context.Background())
	assert.ErrorContains(t, err, "threshold 0")
}

func TestGCMaxPauseCheck(t *testing.T) {
	assert.NoError(t, GCMaxPauseCheck(time.Hour)(context.Background()))
}

func TestMaxPause(t *testing.T) {
	assert.Zero(t, maxPause(nil))
	assert.Equal(t, 3*time.Millisecond, maxPause([]time.Duration{time.Millisecond, 3 * time.Millisecond, 2 * time.Millisecond}))
}

func TestLowWatermarkCheck(t *testing.T) {
	stock := 1
	check := LowWatermarkCheck("promo stock", 1, func(context.Context) (int, error) { return stock, nil })
	assert.NoError(t, check(context.Background()))

	stock = 0
	assert.EqualError(t, check(context.Background()), "promo stock is 0, below 1")

	broken := LowWatermarkCheck("promo stock", 1, func(context.Context) (int, error) { return 0, errors.New("gone") })
	assert.EqualError(t, broken(context.Background()), "read promo stock: gone")
}

func TestPingCheck(t *testing.T) {
	assert.NoError(t, PingCheck(func(context.Context) error { return nil })(context.Background()))

	err := PingCheck(func(context.Context) error { return errors.New("refused") })(context.Background())
	assert.EqualError(t, err, "ping: refused")
}
