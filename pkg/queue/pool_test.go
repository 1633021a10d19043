package queue

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	p := NewPool(2, 8)
	p.Start(context.Background())
	defer p.Stop()

	done := make(chan struct{})
	if !p.Submit(func(context.Context) { close(done) }) {
		t.Fatalf("submit rejected")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("task did not run")
	}
}

func TestPoolDropsWhenFull(t *testing.T) {
	p := NewPool(1, 1)
	// Not started: the single queue slot fills and further submits drop.
	if !p.Submit(func(context.Context) {}) {
		t.Fatalf("first submit rejected")
	}
	if p.Submit(func(context.Context) {}) {
		t.Fatalf("expected drop on full queue")
	}
}

func TestPoolStopWaitsForInflight(t *testing.T) {
	p := NewPool(1, 8)
	p.Start(context.Background())

	var ran int32
	started := make(chan struct{})
	p.Submit(func(context.Context) {
		close(started)
		time.Sleep(50 * time.Millisecond)
		atomic.StoreInt32(&ran, 1)
	})
	<-started
	p.Stop()
	if atomic.LoadInt32(&ran) != 1 {
		t.Fatalf("in-flight task not finished before Stop returned")
	}
}
