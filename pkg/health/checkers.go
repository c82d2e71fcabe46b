package health

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/go-faster/errors"
)

// PingCheck adapts a Ping method, as exposed by pgxpool.Pool or a cache store.
func PingCheck(ping func(ctx context.Context) error) CheckFunc {
	return func(ctx context.Context) error {
		return errors.Wrap(ping(ctx), "ping")
	}
}

// LowWatermarkCheck fails when the value reported by read drops below min.
// Used for stock levels that silently disable features when exhausted.
func LowWatermarkCheck(what string, min int, read func(ctx context.Context) (int, error)) CheckFunc {
	return func(ctx context.Context) error {
		v, err := read(ctx)
		if err != nil {
			return errors.Wrapf(err, "read %s", what)
		}
		if v < min {
			return errors.Errorf("%s is %d, below %d", what, v, min)
		}
		return nil
	}
}

// GoroutineCountCheck fails when more than threshold goroutines are running.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("%d goroutines, threshold %d", n, threshold)
		}
		return nil
	}
}

// GCMaxPauseCheck fails when any recent stop-the-world pause exceeds threshold.
func GCMaxPauseCheck(threshold time.Duration) CheckFunc {
	return func(context.Context) error {
		var stats debug.GCStats
		debug.ReadGCStats(&stats)
		if longest := maxPause(stats.Pause); longest > threshold {
			return errors.Errorf("GC pause %s, threshold %s", longest, threshold)
		}
		return nil
	}
}

func maxPause(pauses []time.Duration) time.Duration {
	var longest time.Duration
	for _, p := range pauses {
		longest = max(longest, p)
	}
	return longest
}
