package room

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper deletes idle rooms on a fixed interval. The interval doubles
// as the idle threshold, so an empty room survives at least one full
// tick and is gone by the second.
type Sweeper struct {
	reg      *Registry
	interval time.Duration
	log      *slog.Logger
}

func NewSweeper(reg *Registry, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{reg: reg, interval: interval, log: logger}
}

// Run ticks until ctx is cancelled. Only ever touches the registry
// through SweepIdle.
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.reg.SweepIdle(now, s.interval); n > 0 {
				s.log.Info("sweep.done", "deleted", n)
			}
		}
	}
}
