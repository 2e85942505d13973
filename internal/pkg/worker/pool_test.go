package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestPools(t *testing.T, cfg PoolConfig) *Pools {
	t.Helper()
	pools, err := NewPools(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewPools() error = %v", err)
	}
	t.Cleanup(func() { pools.Shutdown(5 * time.Second) })
	return pools
}

func TestNewPools(t *testing.T) {
	pools := newTestPools(t, DefaultPoolConfig())

	if pools.Events == nil {
		t.Error("Events pool is nil")
	}
	if pools.Delivery == nil {
		t.Error("Delivery pool is nil")
	}
}

func TestNewPoolsRejectsZeroSize(t *testing.T) {
	if _, err := NewPools(context.Background(), PoolConfig{EventPoolSize: 0, DeliveryPoolSize: 1}); err == nil {
		t.Fatal("expected error for zero pool size")
	}
}

func TestPool_Submit(t *testing.T) {
	pools := newTestPools(t, PoolConfig{EventPoolSize: 2, DeliveryPoolSize: 2})

	var executed atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)

	err := pools.Delivery.Submit(context.Background(), func(ctx context.Context) {
		executed.Store(true)
		wg.Done()
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	wg.Wait()
	if !executed.Load() {
		t.Error("Task was not executed")
	}
}

func TestPool_SubmitCancelledContext(t *testing.T) {
	pools := newTestPools(t, PoolConfig{EventPoolSize: 1, DeliveryPoolSize: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := pools.Delivery.Submit(ctx, func(ctx context.Context) {}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestPool_RunAllWaitsAndIsolatesPanics(t *testing.T) {
	pools := newTestPools(t, PoolConfig{EventPoolSize: 1, DeliveryPoolSize: 3})

	var count atomic.Int32
	tasks := []Task{
		func(ctx context.Context) { count.Add(1) },
		func(ctx context.Context) { panic("boom") },
		func(ctx context.Context) {
			time.Sleep(20 * time.Millisecond)
			count.Add(1)
		},
		func(ctx context.Context) { count.Add(1) },
	}

	if err := pools.Delivery.RunAll(context.Background(), tasks); err != nil {
		t.Fatalf("RunAll() error = %v", err)
	}
	if got := count.Load(); got != 3 {
		t.Fatalf("completed tasks = %d, want 3", got)
	}
}

func TestPools_Dispatch(t *testing.T) {
	pools := newTestPools(t, PoolConfig{EventPoolSize: 1, DeliveryPoolSize: 1})

	done := make(chan struct{})
	if err := pools.Dispatch(func(ctx context.Context) {
		if ctx.Err() != nil {
			t.Error("detached task got a cancelled context")
		}
		close(done)
	}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("detached task did not run")
	}
}

func TestPools_DispatchAfterShutdown(t *testing.T) {
	pools, err := NewPools(context.Background(), PoolConfig{EventPoolSize: 1, DeliveryPoolSize: 1})
	if err != nil {
		t.Fatalf("NewPools() error = %v", err)
	}
	pools.Shutdown(time.Second)

	if err := pools.Dispatch(func(ctx context.Context) {}); err == nil {
		t.Fatal("expected error after shutdown")
	}
}
