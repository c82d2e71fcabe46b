package cache

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultTimeout bounds every individual store call.
const DefaultTimeout = 250 * time.Millisecond

// Options configures a Layer.
type Options struct {
	// Timeout bounds each store call. Zero means DefaultTimeout.
	Timeout time.Duration
	// MeterProvider receives hit, miss and failure counters. Nil disables metrics.
	MeterProvider metric.MeterProvider
}

var _ Cache = (*Layer)(nil)

// Layer implements Cache on top of a Store with bounded, best-effort calls.
// Concurrent misses on the same key share one fill.
type Layer struct {
	store   Store
	timeout time.Duration
	group   singleflight.Group

	hits     metric.Int64Counter
	misses   metric.Int64Counter
	failures metric.Int64Counter
}

// NewLayer wraps store.
func NewLayer(store Store, opts Options) (*Layer, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	mp := opts.MeterProvider
	if mp == nil {
		mp = noop.NewMeterProvider()
	}
	meter := mp.Meter("ttn.cache")

	l := &Layer{store: store, timeout: opts.Timeout}
	var err error
	if l.hits, err = meter.Int64Counter("cache.hits"); err != nil {
		return nil, errors.Wrap(err, "hits counter")
	}
	if l.misses, err = meter.Int64Counter("cache.misses"); err != nil {
		return nil, errors.Wrap(err, "misses counter")
	}
	if l.failures, err = meter.Int64Counter("cache.failures"); err != nil {
		return nil, errors.Wrap(err, "failures counter")
	}
	return l, nil
}

// Load implements Cache. The shared fill is detached from the caller that
// started it, so each caller only waits as long as its own ctx allows.
func (l *Layer) Load(ctx context.Context, key string, fill FillFunc) ([]byte, error) {
	if b, ok := l.get(ctx, key); ok {
		l.hits.Add(ctx, 1)
		return b, nil
	}
	l.misses.Add(ctx, 1)

	fillCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan(key, func() (any, error) {
		b, err := fill(fillCtx)
		if err != nil {
			return nil, err
		}
		l.set(fillCtx, key, b)
		return b, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Invalidate implements Cache. The delete is detached from ctx cancellation
// so a client hanging up after a committed write still evicts stale entries.
func (l *Layer) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
	defer cancel()

	if err := l.store.Delete(opCtx, keys...); err != nil {
		l.fail(ctx, "delete", err, zap.Strings("keys", keys))
	}
}

func (l *Layer) get(ctx context.Context, key string) ([]byte, bool) {
	opCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	b, err := l.store.Get(opCtx, key)
	switch {
	case err == nil:
		return b, true
	case errors.Is(err, ErrMiss):
		return nil, false
	default:
		l.fail(ctx, "get", err, zap.String("key", key))
		return nil, false
	}
}

func (l *Layer) set(ctx context.Context, key string, b []byte) {
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
	defer cancel()

	if err := l.store.Set(opCtx, key, b); err != nil {
		l.fail(ctx, "set", err, zap.String("key", key))
	}
}

func (l *Layer) fail(ctx context.Context, op string, err error, fields ...zap.Field) {
	l.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
	zctx.From(ctx).Warn("Cache operation failed",
		append(fields, zap.String("op", op), zap.Error(err))...,
	)
}
