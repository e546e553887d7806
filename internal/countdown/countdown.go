// Package countdown implements the per-question timer.
package countdown

import (
	"sync"
	"time"
)

// Tick is the interval between countdown decrements.
const Tick = time.Second

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler schedules one-shot callbacks.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// WallClock schedules callbacks with the runtime timer.
type WallClock struct{}

func (WallClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type state int

const (
	running state = iota
	paused
	stopped
	expired
)

// Countdown counts whole seconds down to zero. onTick runs after every
// decrement; onExpire runs once when the count reaches zero, after which the
// countdown is finished. Callbacks are never invoked while internal locks are
// held, so they may call back into Stop.
type Countdown struct {
	sched    Scheduler
	onTick   func(remaining int)
	onExpire func()

	mu        sync.Mutex
	state     state
	remaining int
	timer     Timer
	gen       uint64
}

// Start begins a countdown of seconds. A non-positive duration expires on
// the first tick.
func Start(sched Scheduler, seconds int, onTick func(remaining int), onExpire func()) *Countdown {
	if seconds < 1 {
		seconds = 1
	}
	c := &Countdown{
		sched:     sched,
		onTick:    onTick,
		onExpire:  onExpire,
		remaining: seconds,
	}
	c.mu.Lock()
	c.scheduleLocked()
	c.mu.Unlock()
	return c
}

// Remaining returns the whole seconds left.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Running reports whether ticks are still scheduled.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == running
}

// Expired reports whether onExpire has fired.
func (c *Countdown) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == expired
}

// Stop cancels the countdown. It is idempotent and safe on a nil receiver.
func (c *Countdown) Stop() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == stopped || c.state == expired {
		return
	}
	c.cancelLocked()
	c.state = stopped
}

// Pause suspends ticking, keeping the remaining seconds. The partial second
// in progress is restarted on Resume.
func (c *Countdown) Pause() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != running {
		return
	}
	c.cancelLocked()
	c.state = paused
}

// Resume continues a paused countdown.
func (c *Countdown) Resume() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != paused {
		return
	}
	c.state = running
	c.scheduleLocked()
}

func (c *Countdown) scheduleLocked() {
	c.gen++
	gen := c.gen
	c.timer = c.sched.AfterFunc(Tick, func() { c.fire(gen) })
}

func (c *Countdown) cancelLocked() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Countdown) fire(gen uint64) {
	c.mu.Lock()
	if c.state != running || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.remaining--
	remaining := c.remaining
	done := remaining <= 0
	if done {
		c.state = expired
		c.timer = nil
	} else {
		c.scheduleLocked()
	}
	c.mu.Unlock()

	if c.onTick != nil {
		c.onTick(remaining)
	}
	if done && c.onExpire != nil {
		c.onExpire()
	}
}
