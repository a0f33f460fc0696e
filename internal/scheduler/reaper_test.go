package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cidrfence/cidrfence/internal/model"
)

type fakeCidrs struct {
	calls atomic.Int64
}

func (f *fakeCidrs) Query(ctx context.Context, q model.CidrQuery) ([]*model.CidrRow, error) {
	return nil, nil
}

func (f *fakeCidrs) QueryAll(ctx context.Context, q model.CidrQuery) ([]*model.CidrRow, error) {
	return nil, nil
}

func (f *fakeCidrs) DeleteExpired(ctx context.Context) (int64, error) {
	f.calls.Add(1)
	return 0, nil
}

func TestDeleteExpiredTaskRunOnce(t *testing.T) {
	fake := &fakeCidrs{}
	task := &DeleteExpiredTask{Cidrs: fake, Log: zerolog.Nop()}

	if _, err := task.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.calls.Load() != 1 {
		t.Fatalf("expected exactly one DeleteExpired call, got %d", fake.calls.Load())
	}
}

func TestDeleteExpiredTaskStopsOnCancel(t *testing.T) {
	fake := &fakeCidrs{}
	task := &DeleteExpiredTask{Cidrs: fake, Interval: 5 * time.Millisecond, Log: zerolog.Nop()}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		task.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("task did not stop after context cancellation")
	}

	if fake.calls.Load() == 0 {
		t.Fatal("expected DeleteExpired to be called at least once")
	}
}
