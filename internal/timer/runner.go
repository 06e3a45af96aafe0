package timer

import (
	"context"
	"time"
)

// Runner drives a Machine from a wall-clock ticker for headless use.
type Runner struct {
	Machine  *Machine
	Interval time.Duration
	// OnTick, if set, receives every tick's event.
	OnTick func(Event)
}

// Run ticks until ctx is done or the machine stops on its own, which
// happens after every completion. A paused machine returns immediately.
func (r *Runner) Run(ctx context.Context) error {
	interval := r.Interval
	if interval <= 0 {
		interval = time.Second
	}
	if !r.Machine.Running() {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Machine.Pause()
			return ctx.Err()
		case <-ticker.C:
			ev := r.Machine.Tick()
			if r.OnTick != nil {
				r.OnTick(ev)
			}
			if !r.Machine.Running() {
				return nil
			}
		}
	}
}
