package optimizer

import (
	"context"
	"time"

	"adMarginLab/pkg/logger"
)

// Runner drives the service on a fixed cadence. Cycles never overlap: a
// tick that arrives while a cycle is still running is simply the next
// iteration of the loop, and a failed cycle is skipped rather than retried
// since the next tick evaluates cumulative state anyway.
type Runner struct {
	svc      *Service
	interval time.Duration
}

func NewRunner(svc *Service, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Runner{svc: svc, interval: interval}
}

// Start runs one cycle immediately, then one per interval until the context
// is cancelled.
func (r *Runner) Start(ctx context.Context) {
	logger.Info("optimizer runner started", "interval", r.interval.String())

	r.runOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("optimizer runner stopped")
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Runner) runOnce(ctx context.Context) {
	if _, err := r.svc.RunCycle(ctx); err != nil {
		logger.Error("optimizer cycle failed", "error", err)
	}
}
