package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Worker wraps the Asynq server and the cron scheduler.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	logger    *slog.Logger
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Concurrency int
	Logger      *slog.Logger

	Depreciation *DepreciationRunJob
	Integrity    *LedgerIntegrityJob

	// Cron expressions; empty disables the schedule.
	DepreciationCron string
	IntegrityCron    string
}

// NewWorker constructs a Worker instance.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueDefault: 1,
		},
	})

	mux := asynq.NewServeMux()
	if cfg.Depreciation != nil {
		mux.Handle(TaskDepreciationRun, cfg.Depreciation)
	}
	if cfg.Integrity != nil {
		mux.Handle(TaskLedgerIntegrity, cfg.Integrity)
	}

	scheduler := asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: time.UTC})
	if cfg.DepreciationCron != "" && cfg.Depreciation != nil {
		task, err := NewDepreciationRunTask(DepreciationRunPayload{})
		if err != nil {
			return nil, err
		}
		if _, err := scheduler.Register(cfg.DepreciationCron, task); err != nil {
			return nil, err
		}
	}
	if cfg.IntegrityCron != "" && cfg.Integrity != nil {
		if _, err := scheduler.Register(cfg.IntegrityCron, NewLedgerIntegrityTask()); err != nil {
			return nil, err
		}
	}

	return &Worker{server: srv, mux: mux, scheduler: scheduler, logger: cfg.Logger}, nil
}

// Run starts processing jobs until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	if err := w.scheduler.Start(); err != nil {
		return err
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		w.scheduler.Shutdown()
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		w.scheduler.Shutdown()
		return err
	}
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueDepreciationRun submits an on-demand depreciation run.
func (c *Client) EnqueueDepreciationRun(ctx context.Context, payload DepreciationRunPayload) (*asynq.TaskInfo, error) {
	task, err := NewDepreciationRunTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task)
}

// EnqueueLedgerIntegrity submits an on-demand integrity scan.
func (c *Client) EnqueueLedgerIntegrity(ctx context.Context) (*asynq.TaskInfo, error) {
	return c.client.EnqueueContext(ctx, NewLedgerIntegrityTask())
}
