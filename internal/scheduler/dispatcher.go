package scheduler

import (
	"context"
	"time"

	"callops_backend/platform/config"
	"callops_backend/platform/logger"
)

// summaryBackfillEvery controls how many reaper ticks pass between summary
// backfill sweeps. Backfill is repair work and does not need to run as often
// as the reaper.
const summaryBackfillEvery = 5

// Dispatcher enqueues the periodic sweep tasks on the reaper interval.
// It is the sole producer of sweep tasks; workers only consume.
type Dispatcher struct {
	client   *Client
	interval time.Duration
	log      *logger.Logger
}

func NewDispatcher(client *Client, cfg config.ReaperConfig, log *logger.Logger) *Dispatcher {
	interval := cfg.GetReaperInterval()
	if interval <= 0 {
		interval = time.Minute
	}
	return &Dispatcher{client: client, interval: interval, log: log}
}

func (d *Dispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil {
		return
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := d.client.EnqueueReapStaleCalls(ctx, d.interval); err != nil {
			d.log.Warn("failed to enqueue stale-call sweep", "error", err)
		}

		tick++
		if tick%summaryBackfillEvery == 0 {
			if err := d.client.EnqueueSummaryBackfill(ctx, d.interval*summaryBackfillEvery); err != nil {
				d.log.Warn("failed to enqueue summary backfill", "error", err)
			}
		}
	}
}
