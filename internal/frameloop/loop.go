package frameloop

import (
	"sync"
	"time"
)

// Timer is a pending callback
type Timer interface {
	Stop() bool
}

// Scheduler arms one-shot callbacks
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler is backed by time.AfterFunc
var RealScheduler Scheduler = realScheduler{}

// Loop re-arms a callback once per frame while enabled.
// Disable cancels the pending callback before returning; a callback already
// running finishes but does not re-arm.
type Loop struct {
	mu       sync.Mutex
	sched    Scheduler
	interval time.Duration
	fn       func()

	enabled bool
	gen     uint64
	timer   Timer
	frames  uint64
}

// New creates a disabled loop calling fn every interval
func New(interval time.Duration, fn func(), sched Scheduler) *Loop {
	if sched == nil {
		sched = RealScheduler
	}
	if interval <= 0 {
		interval = time.Second / 60
	}
	return &Loop{
		sched:    sched,
		interval: interval,
		fn:       fn,
	}
}

// Enable starts the loop. Enabling a running loop is a no-op.
func (l *Loop) Enable() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.enabled {
		return
	}
	l.enabled = true
	l.gen++
	l.arm(l.gen)
}

// Disable stops the loop and cancels any pending callback
func (l *Loop) Disable() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.enabled = false
	l.gen++
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

// Enabled reports whether the loop is running
func (l *Loop) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// Frames returns how many callbacks have run
func (l *Loop) Frames() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

// SetInterval changes the period from the next frame on
func (l *Loop) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	l.mu.Lock()
	l.interval = d
	l.mu.Unlock()
}

// IntervalForRate converts frames per second to a frame period
func IntervalForRate(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}

func (l *Loop) arm(gen uint64) {
	l.timer = l.sched.AfterFunc(l.interval, func() {
		l.fire(gen)
	})
}

func (l *Loop) fire(gen uint64) {
	l.mu.Lock()
	if !l.enabled || gen != l.gen {
		l.mu.Unlock()
		return
	}
	l.frames++
	l.mu.Unlock()

	l.fn()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.enabled && gen == l.gen {
		l.arm(gen)
	}
}
