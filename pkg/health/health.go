// Package health serves liveness and readiness probes.
//
// Every check runs on its own ticker. A check flips to unhealthy after
// failureThreshold consecutive failures and back after successThreshold
// consecutive successes. Informational checks are reported but never fail a
// probe: the API keeps serving from the database when the cache is down.
package health

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

// CheckFunc returns nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

type probe int

const (
	liveness probe = iota
	readiness
	info
)

type check struct {
	name             string
	probe            probe
	timeout          time.Duration
	fn               CheckFunc
	failureThreshold int
	successThreshold int

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	// Owned by the goroutine calling run.
	fails int
	oks   int
}

func (c *check) lastError() error {
	if p := c.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// run executes the check once. Must not be called concurrently.
func (c *check) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(ctx)
	c.lastErr.Store(&err)

	if err != nil {
		c.oks = 0
		c.fails++
		if c.fails >= c.failureThreshold {
			c.healthy.Store(false)
		}
		return
	}
	c.fails = 0
	c.oks++
	if c.oks >= c.successThreshold {
		c.healthy.Store(true)
	}
}

// Health holds the registered checks and the manual readiness flag.
type Health struct {
	ready atomic.Bool

	mu     sync.RWMutex
	checks []*check
	cancel context.CancelFunc
}

// New returns a Health that is not ready until SetReady(true).
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a check gating /livez.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.add(name, liveness, timeout, fn)
}

// AddReadinessCheck registers a check gating /readyz.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.add(name, readiness, timeout, fn)
}

// AddInfoCheck registers a check reported on /readyz that never fails it.
func (h *Health) AddInfoCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.add(name, info, timeout, fn)
}

func (h *Health) add(name string, p probe, timeout time.Duration, fn CheckFunc) {
	c := &check{
		name:             name,
		probe:            p,
		timeout:          timeout,
		fn:               fn,
		failureThreshold: 3,
		successThreshold: 1,
	}
	c.healthy.Store(true)

	h.mu.Lock()
	h.checks = append(h.checks, c)
	h.mu.Unlock()
}

// Start runs every registered check now and then at interval until Stop or
// ctx cancellation.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	checks := slices.Clone(h.checks)
	h.mu.Unlock()

	for _, c := range checks {
		go loop(ctx, c, interval)
	}
}

func loop(ctx context.Context, c *check, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.run(ctx)
		}
	}
}

// Stop cancels the check goroutines. It is idempotent.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady sets the manual readiness flag.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the flag is set and every readiness check passes.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	return len(h.failures(readiness)) == 0
}

func (h *Health) failures(p probe) map[string]string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := map[string]string{}
	for _, c := range h.checks {
		if c.probe != p || c.healthy.Load() {
			continue
		}
		if err := c.lastError(); err != nil {
			out[c.name] = err.Error()
		} else {
			out[c.name] = "check is unhealthy"
		}
	}
	return out
}

// LiveEndpoint serves /livez.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	write(w, report{Checks: h.failures(liveness)})
}

// ReadyEndpoint serves /readyz.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	r := report{Checks: h.failures(readiness), Info: h.failures(info)}
	if !h.ready.Load() {
		r.Checks["_readiness"] = "service is not ready"
	}
	write(w, r)
}

type report struct {
	Checks map[string]string
	Info   map[string]string
}

func (r report) status() (string, int) {
	switch {
	case len(r.Checks) > 0:
		return "unhealthy", http.StatusServiceUnavailable
	case len(r.Info) > 0:
		return "degraded", http.StatusOK
	default:
		return "ok", http.StatusOK
	}
}

func (r report) Encode(e *jx.Encoder) {
	status, _ := r.status()
	e.ObjStart()
	e.FieldStart("status")
	e.Str(status)
	encodeMap(e, "checks", r.Checks)
	encodeMap(e, "info", r.Info)
	e.ObjEnd()
}

func encodeMap(e *jx.Encoder, field string, m map[string]string) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	e.FieldStart(field)
	e.ObjStart()
	for _, k := range keys {
		e.FieldStart(k)
		e.Str(m[k])
	}
	e.ObjEnd()
}

func write(w http.ResponseWriter, r report) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	r.Encode(e)

	_, code := r.status()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}
