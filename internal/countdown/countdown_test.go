package countdown_test

import (
	"testing"
	"time"

	"quiz-session-engine/internal/countdown"
	"quiz-session-engine/internal/countdown/countdowntest"
)

type recorder struct {
	ticks   []int
	expires int
}

func (r *recorder) tick(remaining int) { r.ticks = append(r.ticks, remaining) }
func (r *recorder) expire()            { r.expires++ }

func TestCountdownTicksAndExpiresOnce(t *testing.T) {
	sched := countdowntest.New()
	rec := &recorder{}
	c := countdown.Start(sched, 3, rec.tick, rec.expire)

	sched.Advance(2 * time.Second)
	if len(rec.ticks) != 2 || rec.ticks[0] != 2 || rec.ticks[1] != 1 {
		t.Fatalf("expected ticks [2 1], got %v", rec.ticks)
	}
	if rec.expires != 0 {
		t.Fatalf("expired too early")
	}

	sched.Advance(time.Second)
	if rec.expires != 1 {
		t.Fatalf("expected one expire, got %d", rec.expires)
	}
	if !c.Expired() || c.Running() || c.Remaining() != 0 {
		t.Fatalf("expected countdown finished, remaining=%d", c.Remaining())
	}

	sched.Advance(10 * time.Second)
	if rec.expires != 1 || len(rec.ticks) != 3 {
		t.Fatalf("expected no callbacks after expiry, ticks=%v expires=%d", rec.ticks, rec.expires)
	}
	if sched.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", sched.Pending())
	}
}

func TestStopIsIdempotent(t *testing.T) {
	sched := countdowntest.New()
	rec := &recorder{}
	c := countdown.Start(sched, 5, rec.tick, rec.expire)

	sched.Advance(time.Second)
	c.Stop()
	c.Stop()
	sched.Advance(10 * time.Second)

	if len(rec.ticks) != 1 || rec.expires != 0 {
		t.Fatalf("expected one tick and no expiry, got ticks=%v expires=%d", rec.ticks, rec.expires)
	}

	var nilCountdown *countdown.Countdown
	nilCountdown.Stop()

	c.Resume()
	sched.Advance(10 * time.Second)
	if rec.expires != 0 {
		t.Fatalf("a stopped countdown must not resume")
	}
}

func TestStopAfterExpiry(t *testing.T) {
	sched := countdowntest.New()
	rec := &recorder{}
	c := countdown.Start(sched, 1, rec.tick, rec.expire)
	sched.Advance(time.Second)
	c.Stop()
	if !c.Expired() || rec.expires != 1 {
		t.Fatalf("expected expired countdown to stay expired")
	}
}

func TestPauseKeepsRemaining(t *testing.T) {
	sched := countdowntest.New()
	rec := &recorder{}
	c := countdown.Start(sched, 4, rec.tick, rec.expire)

	sched.Advance(2 * time.Second)
	c.Pause()
	sched.Advance(30 * time.Second)
	if c.Remaining() != 2 || rec.expires != 0 {
		t.Fatalf("expected paused at 2, got %d (expires=%d)", c.Remaining(), rec.expires)
	}

	c.Resume()
	sched.Advance(time.Second)
	if c.Remaining() != 1 {
		t.Fatalf("expected 1 after resume tick, got %d", c.Remaining())
	}
	sched.Advance(time.Second)
	if rec.expires != 1 {
		t.Fatalf("expected expiry after resume, got %d", rec.expires)
	}
}

func TestNonPositiveDurationExpiresOnFirstTick(t *testing.T) {
	sched := countdowntest.New()
	rec := &recorder{}
	countdown.Start(sched, 0, rec.tick, rec.expire)
	sched.Advance(time.Second)
	if rec.expires != 1 {
		t.Fatalf("expected expiry, got %d", rec.expires)
	}
}

func TestStopFromExpireCallback(t *testing.T) {
	sched := countdowntest.New()
	var c *countdown.Countdown
	fired := 0
	c = countdown.Start(sched, 1, nil, func() {
		fired++
		c.Stop()
	})
	sched.Advance(3 * time.Second)
	if fired != 1 {
		t.Fatalf("expected one expiry, got %d", fired)
	}
}

func TestWallClockExpires(t *testing.T) {
	done := make(chan struct{})
	c := countdown.Start(countdown.WallClock{}, 1, nil, func() { close(done) })
	defer c.Stop()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("wall clock countdown did not expire")
	}
}
