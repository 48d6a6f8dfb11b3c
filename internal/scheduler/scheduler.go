package scheduler

import (
	"context"
	"log/slog"
	"time"
)

type Task func(ctx context.Context) error

// Every runs task immediately and then on every tick of interval until ctx
// is done. Runs never overlap; ticks that fire during a run are dropped.
// Errors are logged and do not stop the loop.
func Every(ctx context.Context, interval time.Duration, name string, task Task) {
	run := func() {
		start := time.Now()
		if err := task(ctx); err != nil {
			slog.Error("scheduled task failed", "task", name, "err", err, "took", time.Since(start))
			return
		}
		slog.Info("scheduled task done", "task", name, "took", time.Since(start))
	}

	run()

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if ctx.Err() != nil {
				return
			}
			run()
		}
	}
}
