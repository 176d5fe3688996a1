package orchestrator

import (
	"reflect"
	"testing"

	"github.com/AaronLay10/SentientPlayer/internal/clock"
)

func TestHistoryNotifiesAsynchronously(t *testing.T) {
	sched := clock.NewManual(testStart)
	h := NewHistory(sched)

	var seen []string
	h.OnChange(func(id string) { seen = append(seen, id) })

	h.Push("a")
	h.Push("b")
	if h.Location() != "b" {
		t.Errorf("expected location b, got %q", h.Location())
	}
	if len(seen) != 0 {
		t.Fatalf("expected no synchronous notification, got %v", seen)
	}

	sched.Flush()
	if !reflect.DeepEqual(seen, []string{"a", "b"}) {
		t.Errorf("expected notifications a, b; got %v", seen)
	}

	h.Push("b")
	sched.Flush()
	if !reflect.DeepEqual(seen, []string{"a", "b", "b"}) {
		t.Errorf("expected push of the same id to notify again, got %v", seen)
	}
}

func TestHistoryBack(t *testing.T) {
	sched := clock.NewManual(testStart)
	h := NewHistory(sched)

	var seen []string
	h.OnChange(func(id string) { seen = append(seen, id) })

	if h.Back() {
		t.Error("expected back on empty history to fail")
	}
	h.Push("a")
	if h.Back() {
		t.Error("expected back with a single entry to fail")
	}
	h.Push("b")
	if !h.Back() {
		t.Fatal("expected back to succeed")
	}
	sched.Flush()

	if h.Location() != "a" || h.Len() != 1 {
		t.Errorf("expected location a with 1 entry, got %q with %d", h.Location(), h.Len())
	}
	if !reflect.DeepEqual(seen, []string{"a", "b", "a"}) {
		t.Errorf("unexpected notifications %v", seen)
	}
}

func TestHistoryClearCancelsPending(t *testing.T) {
	sched := clock.NewManual(testStart)
	h := NewHistory(sched)

	calls := 0
	h.OnChange(func(string) { calls++ })

	h.Push("a")
	h.Clear()
	sched.Flush()

	if calls != 0 {
		t.Errorf("expected cleared notification to be dropped, got %d calls", calls)
	}
	if h.Location() != "" || sched.Pending() != 0 {
		t.Errorf("expected empty history and no pending timers")
	}
}

func TestHistorySeed(t *testing.T) {
	sched := clock.NewManual(testStart)
	h := NewHistory(sched)

	calls := 0
	h.OnChange(func(string) { calls++ })
	h.Seed("intro")
	sched.Flush()

	if h.Location() != "intro" || calls != 0 {
		t.Errorf("expected silent seed, got location %q and %d calls", h.Location(), calls)
	}
}
