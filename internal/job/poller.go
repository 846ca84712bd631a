package job

import (
	"context"
	"time"

	"cloudclass/internal/api"
)

// poll queries the job status on a fixed interval until a terminal status is
// observed or the timer scope is cancelled. A single failed check is logged
// and ignored; the next tick retries by construction. Only an explicit
// "error" status counts as failure.
func (c *Controller) poll(ctx context.Context, gen int, fileID string) {
	t := time.NewTicker(c.pollEvery)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		st, err := c.svc.Status(ctx, fileID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Debug().Err(err).Str("file_id", fileID).Msg("status check failed, will retry")
			continue
		}

		if !st.Terminal() {
			// "running", the backend's "processing", or anything else:
			// keep polling.
			continue
		}
		if st.Status == api.StatusCompleted {
			c.markCompleted(gen)
			return
		}
		msg := st.Error
		if msg == "" {
			msg = "Classification failed"
		}
		c.failJob(gen, msg)
		return
	}
}
