package sync

import (
	"context"
	"log/slog"
	"time"
)

// Runner drives a policy on a fixed interval until its context is canceled.
// A failed cycle is logged and the ticker keeps going; one bad pull must not
// stop future reconciliation.
type Runner struct {
	Policy     Policy
	Interval   time.Duration
	RunOnStart bool
}

// Start blocks until ctx is done. Callers run it in a goroutine.
func (r *Runner) Start(ctx context.Context) {
	slog.Info("sync runner started",
		"policy", r.Policy.Name(),
		"interval", r.Interval,
		"run_on_start", r.RunOnStart)

	if r.RunOnStart {
		r.runOnce(ctx)
	}

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("sync runner stopped")
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Runner) runOnce(ctx context.Context) {
	report, err := r.Policy.Run(ctx)
	if err != nil {
		slog.Error("sync cycle failed", "policy", r.Policy.Name(), "error", err)
		return
	}
	slog.Info("sync cycle complete",
		"run_id", report.RunID,
		"policy", report.Policy,
		"pulled", report.Pulled,
		"synced", report.Synced,
		"skipped", len(report.Skipped),
		"duration", report.Duration)
	for _, s := range report.Skipped {
		slog.Warn("sync row skipped", "run_id", report.RunID, "row", s.Row, "reason", s.Reason)
	}
}
