package frameloop

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type manualTimer struct {
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// manualScheduler lets tests fire callbacks explicitly
type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (s *manualScheduler) AfterFunc(_ time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *manualScheduler) pending() []*manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*manualTimer
	for _, t := range s.timers {
		if !t.stopped {
			out = append(out, t)
		}
	}
	return out
}

// fireLatest runs the newest armed timer the way a racing timer goroutine would
func (s *manualScheduler) fireLatest() {
	s.mu.Lock()
	t := s.timers[len(s.timers)-1]
	s.mu.Unlock()
	t.f()
}

func TestLoopRearmsWhileEnabled(t *testing.T) {
	sched := &manualScheduler{}
	calls := 0
	loop := New(time.Millisecond, func() { calls++ }, sched)

	loop.Enable()
	loop.Enable()
	if len(sched.pending()) != 1 {
		t.Fatalf("expected one armed timer, got %d", len(sched.pending()))
	}

	for i := 0; i < 3; i++ {
		sched.fireLatest()
	}
	if calls != 3 || loop.Frames() != 3 {
		t.Errorf("expected 3 frames, got calls=%d frames=%d", calls, loop.Frames())
	}
}

func TestDisableCancelsPendingCallback(t *testing.T) {
	sched := &manualScheduler{}
	calls := 0
	loop := New(time.Millisecond, func() { calls++ }, sched)

	loop.Enable()
	loop.Disable()
	if len(sched.pending()) != 0 {
		t.Error("disable should stop the armed timer")
	}

	// a fire that raced the cancel is discarded
	sched.fireLatest()
	if calls != 0 {
		t.Errorf("callback ran after disable: %d", calls)
	}
	if loop.Enabled() {
		t.Error("loop still enabled")
	}
}

func TestStaleGenerationAfterReenable(t *testing.T) {
	sched := &manualScheduler{}
	calls := 0
	loop := New(time.Millisecond, func() { calls++ }, sched)

	loop.Enable()
	stale := sched.timers[0]
	loop.Disable()
	loop.Enable()

	stale.f()
	if calls != 0 {
		t.Error("timer from previous generation fired the callback")
	}
	sched.fireLatest()
	if calls != 1 {
		t.Errorf("expected current generation to fire once, got %d", calls)
	}
}

func TestDisableFromCallbackStopsLoop(t *testing.T) {
	sched := &manualScheduler{}
	var loop *Loop
	loop = New(time.Millisecond, func() { loop.Disable() }, sched)

	loop.Enable()
	sched.fireLatest()
	if len(sched.pending()) != 0 {
		t.Error("loop re-armed after disabling itself")
	}
}

func TestRealSchedulerRuns(t *testing.T) {
	var n atomic.Int32
	done := make(chan struct{})
	loop := New(time.Millisecond, func() {
		if n.Add(1) == 3 {
			close(done)
		}
	}, nil)

	loop.Enable()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not run three frames")
	}
	loop.Disable()

	after := n.Load()
	time.Sleep(20 * time.Millisecond)
	if n.Load() > after+1 {
		t.Errorf("loop kept running after disable: %d -> %d", after, n.Load())
	}
}

func TestIntervalForRate(t *testing.T) {
	if got := IntervalForRate(2); got != 500*time.Millisecond {
		t.Errorf("expected 500ms, got %v", got)
	}
	if got := IntervalForRate(0); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}
