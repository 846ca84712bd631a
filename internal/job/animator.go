package job

import (
	"context"
	"time"
)

// animate advances the locally-owned progress estimate on a fixed cadence.
// The service reports no fractional progress, so the estimate is a
// monotonic illusion: bounded random increments, clamped at the ceiling to
// leave visible headroom for the explicit completion step. The estimate
// freezes once the poller observes a terminal status.
func (c *Controller) animate(ctx context.Context, gen int) {
	t := time.NewTicker(c.tickEvery)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		c.mu.Lock()
		if gen != c.gen || c.state != StateProcessing || c.completed {
			c.mu.Unlock()
			return
		}
		if c.progress < animatorCeiling {
			c.progress += c.rng.Float64() * c.maxStep
			if c.progress > animatorCeiling {
				c.progress = animatorCeiling
			}
		}
		p := c.progress
		c.mu.Unlock()

		c.send(Event{Kind: EventProgress, Progress: p})
	}
}
