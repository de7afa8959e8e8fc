package service

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// ── Scheduler (cron) ───────────────────────────────────────

// Scheduler runs cache maintenance on a cron schedule.
type Scheduler struct {
	cron *cron.Cron
}

// StartPruneSchedule runs prune on the given standard cron expression
// (five fields or a descriptor such as "@every 1m").
func StartPruneSchedule(spec string, prune func() int) (*Scheduler, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if n := prune(); n > 0 {
			slog.Info("fixture cron: pruned expired entries", "entries", n)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("prune schedule %q: %w", spec, err)
	}
	c.Start()
	slog.Info("fixture cron: prune scheduled", "schedule", spec)
	return &Scheduler{cron: c}, nil
}

// Stop halts the schedule and waits for a running prune to finish.
func (s *Scheduler) Stop() {
	if s == nil || s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}
