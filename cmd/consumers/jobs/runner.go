package jobs

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"homerent/internal/metrics"
)

// sweepFunc forces stale entities into a terminal status and reports how many changed
type sweepFunc func(ctx context.Context) (int, error)

// runner executes one sweep at a time; a tick arriving mid-run is dropped
type runner struct {
	name    string
	sweep   sweepFunc
	running atomic.Bool
	wg      sync.WaitGroup // schedule loop + in-flight sweeps
}

// spawn runs a sweep in its own goroutine; wait sees it
func (r *runner) spawn(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(ctx)
	}()
}

func (r *runner) wait() {
	r.wg.Wait()
}

// run never propagates errors, a failed run is retried on the next tick
func (r *runner) run(ctx context.Context) bool {
	if !r.running.CompareAndSwap(false, true) {
		slog.Warn("Previous sweep still running, skipping tick", "job", r.name)
		metrics.ObserveSweepSkipped(r.name)
		return false
	}
	defer r.running.Store(false)

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Sweep panicked", "job", r.name, "panic", rec)
		}
	}()

	start := time.Now()
	expired, err := r.sweep(ctx)
	metrics.ObserveSweep(r.name, start, expired, err)

	if err != nil {
		slog.Error("Sweep failed", "job", r.name, "error", err, "duration_ms", time.Since(start).Milliseconds())
		return true
	}

	if expired == 0 {
		slog.Debug("Sweep found nothing to expire", "job", r.name)
	} else {
		slog.Info("Sweep completed", "job", r.name, "expired", expired, "duration_ms", time.Since(start).Milliseconds())
	}
	return true
}
