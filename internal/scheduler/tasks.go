// Package scheduler runs the background sweeps over call records: failing
// stale calls that stopped receiving platform events and backfilling missing
// summaries. Sweeps are delivered as asynq tasks so multiple API replicas
// share one Redis-backed queue.
package scheduler

import "github.com/hibiken/asynq"

const TaskReapStaleCalls = "calls.reap_stale"

const TaskSummaryBackfill = "calls.summary_backfill"

func NewReapStaleCallsTask() *asynq.Task {
	return asynq.NewTask(TaskReapStaleCalls, nil)
}

func NewSummaryBackfillTask() *asynq.Task {
	return asynq.NewTask(TaskSummaryBackfill, nil)
}
