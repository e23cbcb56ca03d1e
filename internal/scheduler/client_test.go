package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
)

type staticSchedulerConfig struct {
	url   string
	queue string
}

func (c staticSchedulerConfig) GetRedisURL() string       { return c.url }
func (c staticSchedulerConfig) GetRedisTLSInsecure() bool { return false }
func (c staticSchedulerConfig) GetAsynqQueueName() string { return c.queue }
func (c staticSchedulerConfig) GetAsynqConcurrency() int  { return 1 }

func startRedis(t *testing.T) (*miniredis.Miniredis, staticSchedulerConfig) {
	t.Helper()
	srv := miniredis.RunT(t)
	return srv, staticSchedulerConfig{url: "redis://" + srv.Addr(), queue: "callops"}
}

func pendingTypes(t *testing.T, addr, queue string) []string {
	t.Helper()
	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: addr})
	defer inspector.Close()

	tasks, err := inspector.ListPendingTasks(queue)
	if err != nil {
		t.Fatalf("ListPendingTasks: %v", err)
	}
	types := make([]string, 0, len(tasks))
	for _, task := range tasks {
		types = append(types, task.Type)
	}
	return types
}

func TestEnqueueReapStaleCalls(t *testing.T) {
	srv, cfg := startRedis(t)

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	if err := client.EnqueueReapStaleCalls(context.Background(), time.Minute); err != nil {
		t.Fatalf("EnqueueReapStaleCalls: %v", err)
	}

	types := pendingTypes(t, srv.Addr(), "callops")
	if len(types) != 1 || types[0] != TaskReapStaleCalls {
		t.Errorf("pending tasks = %v", types)
	}
}

func TestEnqueueIsUniquePerInterval(t *testing.T) {
	srv, cfg := startRedis(t)

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := client.EnqueueSummaryBackfill(ctx, time.Minute); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	types := pendingTypes(t, srv.Addr(), "callops")
	if len(types) != 1 {
		t.Errorf("duplicate sweep tasks enqueued: %v", types)
	}
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(staticSchedulerConfig{}); err == nil {
		t.Error("expected error for missing redis url")
	}
}
