package clock

import (
	"context"
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestManualFiresInOrder(t *testing.T) {
	m := NewManual(epoch)
	var got []string
	m.AfterFunc(200*time.Millisecond, func() { got = append(got, "b") })
	m.AfterFunc(100*time.Millisecond, func() { got = append(got, "a") })
	m.AfterFunc(200*time.Millisecond, func() { got = append(got, "c") })

	m.Advance(150 * time.Millisecond)
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("expected [a] after 150ms, got %v", got)
	}

	m.Advance(50 * time.Millisecond)
	if len(got) != 3 || got[1] != "b" || got[2] != "c" {
		t.Fatalf("expected [a b c], got %v", got)
	}
	if !m.Now().Equal(epoch.Add(200 * time.Millisecond)) {
		t.Errorf("unexpected clock: %v", m.Now())
	}
}

func TestManualCallbackSeesDueTime(t *testing.T) {
	m := NewManual(epoch)
	var seen time.Time
	m.AfterFunc(30*time.Millisecond, func() { seen = m.Now() })
	m.Advance(time.Second)
	if !seen.Equal(epoch.Add(30 * time.Millisecond)) {
		t.Errorf("expected callback at +30ms, got %v", seen.Sub(epoch))
	}
}

func TestManualRearmingTimer(t *testing.T) {
	m := NewManual(epoch)
	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		m.AfterFunc(50*time.Millisecond, tick)
	}
	m.AfterFunc(50*time.Millisecond, tick)

	m.Advance(500 * time.Millisecond)
	if ticks != 10 {
		t.Errorf("expected 10 ticks, got %d", ticks)
	}
	if m.Pending() != 1 {
		t.Errorf("expected 1 pending timer, got %d", m.Pending())
	}
}

func TestManualStop(t *testing.T) {
	m := NewManual(epoch)
	fired := false
	timer := m.AfterFunc(10*time.Millisecond, func() { fired = true })
	if !timer.Stop() {
		t.Error("expected first Stop to report true")
	}
	if timer.Stop() {
		t.Error("expected second Stop to report false")
	}
	m.Advance(time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
}

func TestPausableTimer(t *testing.T) {
	m := NewManual(epoch)
	fired := false
	p := NewPausable(m, time.Second, func() { fired = true })

	m.Advance(400 * time.Millisecond)
	p.Pause()
	if p.Remaining() != 600*time.Millisecond {
		t.Errorf("expected 600ms remaining, got %v", p.Remaining())
	}

	m.Advance(5 * time.Second)
	if fired {
		t.Fatal("paused timer fired")
	}

	p.Resume()
	m.Advance(599 * time.Millisecond)
	if fired {
		t.Fatal("timer fired early")
	}
	m.Advance(time.Millisecond)
	if !fired {
		t.Fatal("timer did not fire")
	}
	if !p.Done() {
		t.Error("expected timer to be done")
	}
}

func TestPausableStop(t *testing.T) {
	m := NewManual(epoch)
	fired := false
	p := NewPausable(m, time.Second, func() { fired = true })
	p.Stop()
	p.Resume()
	m.Advance(2 * time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
}

func TestLoopDo(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLoop()
	go l.Run(ctx)

	value := 0
	if err := l.Do(ctx, func() { value = 42 }); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if value != 42 {
		t.Errorf("expected 42, got %d", value)
	}
}

func TestLoopSchedulerRunsOnLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLoop()
	go l.Run(ctx)
	s := l.Scheduler()

	fired := make(chan struct{})
	l.Post(func() {
		s.AfterFunc(5*time.Millisecond, func() { close(fired) })
	})

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for loop timer")
	}
}

func TestLoopTimerStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLoop()
	go l.Run(ctx)
	s := l.Scheduler()

	fired := false
	_ = l.Do(ctx, func() {
		timer := s.AfterFunc(50*time.Millisecond, func() { fired = true })
		timer.Stop()
	})
	time.Sleep(100 * time.Millisecond)

	var got bool
	_ = l.Do(ctx, func() { got = fired })
	if got {
		t.Error("stopped loop timer fired")
	}
}

func TestLoopClosed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := NewLoop()
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	if l.Post(func() {}) {
		t.Error("expected Post to fail after loop exit")
	}
	if err := l.Do(context.Background(), func() {}); err != ErrLoopClosed {
		t.Errorf("expected ErrLoopClosed, got %v", err)
	}
}
