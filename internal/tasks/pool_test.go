package tasks

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestPool_SubmitRuns(t *testing.T) {
	p, err := NewPool(2, zap.NewNop())
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer p.Shutdown(time.Second)

	done := make(chan struct{})
	ok := p.Submit("test", func(_ context.Context) { close(done) })
	if !ok {
		t.Fatal("submit rejected")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
}

func TestPool_SubmitAfterDelays(t *testing.T) {
	p, err := NewPool(1, zap.NewNop())
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer p.Shutdown(time.Second)

	start := time.Now()
	done := make(chan time.Duration, 1)
	p.SubmitAfter("test", 50*time.Millisecond, func(_ context.Context) {
		done <- time.Since(start)
	})

	select {
	case elapsed := <-done:
		if elapsed < 40*time.Millisecond {
			t.Errorf("task ran after %v, want >= ~50ms", elapsed)
		}
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
}

func TestPool_ShutdownDrainsPendingDelayed(t *testing.T) {
	p, err := NewPool(1, zap.NewNop())
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}

	var ran atomic.Bool
	p.SubmitAfter("flush", time.Hour, func(_ context.Context) { ran.Store(true) })

	p.Shutdown(time.Second)

	if !ran.Load() {
		t.Error("pending delayed task was dropped on shutdown")
	}
}

func TestPool_ShutdownDrainKeepsContextLive(t *testing.T) {
	p, err := NewPool(1, zap.NewNop())
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}

	ctxErr := make(chan error, 1)
	p.SubmitAfter("flush", time.Hour, func(ctx context.Context) {
		ctxErr <- ctx.Err()
	})

	p.Shutdown(time.Second)

	select {
	case err := <-ctxErr:
		// A drained flush must still be able to reach the backend.
		if err != nil {
			t.Errorf("drained task context: %v, want live", err)
		}
	default:
		t.Fatal("pending delayed task was dropped on shutdown")
	}
}

func TestPool_RejectsAfterShutdown(t *testing.T) {
	p, err := NewPool(1, zap.NewNop())
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	p.Shutdown(time.Second)

	if ok := p.Submit("late", func(_ context.Context) {}); ok {
		t.Error("submit accepted after shutdown")
	}
}
