// Package scheduler runs periodic background maintenance tasks, ported
// from the reference ScheduledTask/Scheduler abstraction and reimplemented
// with context.Context cancellation in place of a cooperative stop flag.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/cidrfence/cidrfence/internal/store"
)

// Task is a periodic background job. Run blocks until ctx is canceled.
type Task interface {
	Name() string
	Run(ctx context.Context)
}

// Scheduler runs a fixed set of Tasks concurrently, one goroutine each,
// until its context is canceled.
type Scheduler struct {
	tasks []Task
	log   zerolog.Logger
}

// New constructs a Scheduler over the given tasks.
func New(log zerolog.Logger, tasks ...Task) *Scheduler {
	return &Scheduler{tasks: tasks, log: log}
}

// Run starts every task and blocks until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	done := make(chan struct{}, len(s.tasks))
	for _, t := range s.tasks {
		t := t
		go func() {
			s.log.Info().Str("task", t.Name()).Msg("scheduled task starting")
			t.Run(ctx)
			s.log.Info().Str("task", t.Name()).Msg("scheduled task stopped")
			done <- struct{}{}
		}()
	}
	<-ctx.Done()
	for range s.tasks {
		<-done
	}
}

// DeleteExpiredTask periodically deletes CIDRs whose TTL has elapsed,
// ported from the reference TaskDeleteExpired.
type DeleteExpiredTask struct {
	Cidrs    store.Cidrs
	Interval time.Duration
	Log      zerolog.Logger
}

func (t *DeleteExpiredTask) Name() string { return "delete_expired_cidrs" }

// RunOnce deletes expired CIDRs a single time and returns, the Go
// equivalent of the reference ScheduledTask.run_once used by test
// harnesses that need a deterministic entrypoint instead of racing the
// ticking loop against a context timeout.
func (t *DeleteExpiredTask) RunOnce(ctx context.Context) (int64, error) {
	return t.Cidrs.DeleteExpired(ctx)
}

func (t *DeleteExpiredTask) Run(ctx context.Context) {
	interval := t.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := t.Cidrs.DeleteExpired(ctx)
			if err != nil {
				t.Log.Error().Err(err).Msg("delete expired cidrs")
				continue
			}
			if n > 0 {
				t.Log.Info().Int64("deleted", n).Msg("expired cidrs reaped")
			}
		}
	}
}
