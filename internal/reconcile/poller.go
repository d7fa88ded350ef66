package reconcile

import (
	"context"
	"time"
)

// startPoller launches the poll loop once, on the first successful connect.
// Subsequent reconnects find it already running; only Shutdown stops it.
func (c *Coordinator) startPoller(ctx context.Context) {
	c.mu.Lock()
	if c.pollerRunning {
		c.mu.Unlock()
		return
	}
	c.pollerRunning = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.pollLoop(ctx)
}

// pollLoop is the pull channel: a fixed-interval fetch of active jobs,
// applied through the same path as push events. It keeps progress fresh and
// recovers jobs whose push event was dropped entirely, so they do not sit at
// 0% forever after a reconnect gap. Terminal transitions still come from the
// push channel; the poll endpoint never returns finished jobs.
func (c *Coordinator) pollLoop(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		c.pollOnce(ctx)
	}
}

// pollOnce runs a single tick. Fetch failures are swallowed and retried on
// the next tick; repeated failures never stop the cadence.
func (c *Coordinator) pollOnce(ctx context.Context) {
	updates, err := c.fetchActive(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.metrics.PollFailed()
		c.logger.Warn().Err(err).Msg("sync: poll fetch failed")
		return
	}
	for _, u := range updates {
		if err := u.Validate(); err != nil {
			c.drop(sourcePoll, err)
			continue
		}
		c.applyJob(u, sourcePoll)
	}

	if c.retention > 0 {
		if removed := c.records.ExpireJobs(c.retention); removed > 0 {
			c.logger.Debug().Int("removed", removed).Msg("sync: expired old terminal jobs")
		}
	}
}
