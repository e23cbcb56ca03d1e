package scheduler

import (
	"context"
	"fmt"
	"time"

	"callops_backend/platform/config"
	"callops_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Sweeper is the slice of the call lifecycle service the worker needs.
type Sweeper interface {
	ReapStale(ctx context.Context, timeout time.Duration) (int, error)
	RetryMissingSummaries(ctx context.Context) (int, error)
}

// WorkerConfig combines the config interfaces the worker reads.
type WorkerConfig interface {
	config.SchedulerConfig
	config.ReaperConfig
}

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	sweeper Sweeper
	timeout time.Duration
	log     *logger.Logger
}

func NewWorker(cfg WorkerConfig, sweeper Sweeper, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := &Worker{
		server:  server,
		mux:     asynq.NewServeMux(),
		sweeper: sweeper,
		timeout: cfg.GetStaleCallTimeout(),
		log:     log,
	}

	w.mux.HandleFunc(TaskReapStaleCalls, w.handleReapStaleCalls)
	w.mux.HandleFunc(TaskSummaryBackfill, w.handleSummaryBackfill)

	return w, nil
}

func (w *Worker) handleReapStaleCalls(ctx context.Context, _ *asynq.Task) error {
	reaped, err := w.sweeper.ReapStale(ctx, w.timeout)
	if err != nil {
		return err
	}
	if reaped > 0 {
		w.log.Info("stale-call sweep finished", "reaped", reaped)
	}
	return nil
}

func (w *Worker) handleSummaryBackfill(ctx context.Context, _ *asynq.Task) error {
	repaired, err := w.sweeper.RetryMissingSummaries(ctx)
	if err != nil {
		return err
	}
	if repaired > 0 {
		w.log.Info("summary backfill finished", "repaired", repaired)
	}
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
