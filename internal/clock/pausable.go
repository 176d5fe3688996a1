package clock

import "time"

// PausableTimer is a one-shot timer whose countdown can be suspended.
// It must be used from the scheduler's goroutine.
type PausableTimer struct {
	sched     Scheduler
	fn        func()
	remaining time.Duration
	started   time.Time
	timer     Timer
	paused    bool
	done      bool
}

// NewPausable starts a countdown of d that calls fn when it reaches zero.
func NewPausable(s Scheduler, d time.Duration, fn func()) *PausableTimer {
	p := &PausableTimer{sched: s, fn: fn, remaining: d}
	p.arm()
	return p
}

func (p *PausableTimer) arm() {
	p.started = p.sched.Now()
	p.timer = p.sched.AfterFunc(p.remaining, p.fire)
}

func (p *PausableTimer) fire() {
	if p.done || p.paused {
		return
	}
	p.done = true
	p.fn()
}

// Pause suspends the countdown, keeping the time left.
func (p *PausableTimer) Pause() {
	if p.done || p.paused {
		return
	}
	p.timer.Stop()
	p.remaining -= p.sched.Now().Sub(p.started)
	if p.remaining < 0 {
		p.remaining = 0
	}
	p.paused = true
}

// Resume continues a paused countdown.
func (p *PausableTimer) Resume() {
	if p.done || !p.paused {
		return
	}
	p.paused = false
	p.arm()
}

// Stop cancels the timer for good.
func (p *PausableTimer) Stop() {
	if p.done {
		return
	}
	p.done = true
	p.timer.Stop()
}

// Remaining reports the time left on the countdown.
func (p *PausableTimer) Remaining() time.Duration {
	if p.done {
		return 0
	}
	if p.paused {
		return p.remaining
	}
	left := p.remaining - p.sched.Now().Sub(p.started)
	if left < 0 {
		return 0
	}
	return left
}

// Done reports whether the timer fired or was stopped.
func (p *PausableTimer) Done() bool {
	return p.done
}
