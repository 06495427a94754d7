package autofill

import (
	"sort"
	"sync"
	"time"
)

// Scheduler runs callbacks one at a time, like the single thread of a page.
// Work posted from other goroutines must go through Post.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
	Post(f func())
	Now() time.Time
}

// Timer is a pending callback.
type Timer interface {
	// Stop cancels the callback; it returns false when it already ran or was stopped.
	Stop() bool
}

// EventLoop is the real-time Scheduler. Callbacks run on timer goroutines
// but never overlap.
type EventLoop struct {
	mu sync.Mutex
}

func NewEventLoop() *EventLoop {
	return &EventLoop{}
}

func (loop *EventLoop) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, func() {
		loop.mu.Lock()
		defer loop.mu.Unlock()
		f()
	})
}

// Post runs f on the calling goroutine once no other callback is running.
// It must not be called from inside a callback.
func (loop *EventLoop) Post(f func()) {
	loop.mu.Lock()
	defer loop.mu.Unlock()
	f()
}

func (loop *EventLoop) Now() time.Time {
	return time.Now()
}

// VirtualClock is a Scheduler whose time only moves in Advance.
type VirtualClock struct {
	mu     sync.Mutex
	run    sync.Mutex
	now    time.Time
	seq    int
	timers []*virtualTimer
}

type virtualTimer struct {
	clock   *VirtualClock
	when    time.Time
	seq     int
	f       func()
	stopped bool
	fired   bool
}

// NewVirtualClock starts at start.
func NewVirtualClock(start time.Time) *VirtualClock {
	return &VirtualClock{now: start}
}

func (clock *VirtualClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *VirtualClock) AfterFunc(d time.Duration, f func()) Timer {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	if d < 0 {
		d = 0
	}
	clock.seq++
	t := &virtualTimer{clock: clock, when: clock.now.Add(d), seq: clock.seq, f: f}
	clock.timers = append(clock.timers, t)
	return t
}

func (clock *VirtualClock) Post(f func()) {
	clock.run.Lock()
	defer clock.run.Unlock()
	f()
}

// Pending returns the number of timers not yet fired or stopped.
func (clock *VirtualClock) Pending() int {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	n := 0
	for _, t := range clock.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Advance moves time forward by d, running due callbacks in time order.
// Callbacks scheduled while advancing run too when they fall inside the window.
func (clock *VirtualClock) Advance(d time.Duration) {
	clock.mu.Lock()
	target := clock.now.Add(d)
	clock.mu.Unlock()

	for {
		t := clock.next(target)
		if t == nil {
			break
		}
		clock.run.Lock()
		t.f()
		clock.run.Unlock()
	}

	clock.mu.Lock()
	clock.now = target
	clock.mu.Unlock()
}

// next pops the earliest due timer and moves the clock to its deadline.
func (clock *VirtualClock) next(target time.Time) *virtualTimer {
	clock.mu.Lock()
	defer clock.mu.Unlock()

	live := clock.timers[:0]
	for _, t := range clock.timers {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	clock.timers = live
	if len(live) == 0 {
		return nil
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].when.Equal(live[j].when) {
			return live[i].seq < live[j].seq
		}
		return live[i].when.Before(live[j].when)
	})
	t := live[0]
	if t.when.After(target) {
		return nil
	}
	t.fired = true
	clock.now = t.when
	return t
}

func (t *virtualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}
