// Package clock provides the scheduling primitives the engine runs on.
//
// The engine is single-threaded: every state change happens on one
// goroutine. Timers never call back directly; they hand their callback to
// the scheduler, which runs it on that goroutine.
package clock

import "time"

// Timer is a pending callback that can be cancelled.
type Timer interface {
	// Stop cancels the callback. It reports whether the call stopped the
	// timer, false if it had already fired or been stopped.
	Stop() bool
}

// Scheduler supplies time and one-shot callbacks.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}
