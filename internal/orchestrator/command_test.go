package orchestrator

import (
	"errors"
	"testing"

	"github.com/AaronLay10/SentientPlayer/internal/playlist"
)

func TestExecute(t *testing.T) {
	a := subject("A", image(0))
	a.Swipe = map[playlist.SwipeDirection]playlist.BranchRule{playlist.SwipeLeft: {Subject: "B"}}
	p, sched, _ := newTestPlayer(t, newDoc(a, subject("B", image(0))))

	res, err := p.Execute(Command{Action: "play"})
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	sched.Flush()
	if st, ok := res.(Status); !ok || st.State != StatePlaying {
		t.Errorf("expected playing status, got %#v", res)
	}

	res, err = p.Execute(Command{Action: "swipe", Gesture: &Gesture{DX: -100, Velocity: 1, Final: true}})
	if err != nil {
		t.Fatalf("swipe: %v", err)
	}
	if sr, ok := res.(SwipeResult); !ok || sr.Outcome != SwipeNavigated {
		t.Errorf("expected navigated swipe, got %#v", res)
	}
	sched.Flush()
	if p.CurrentSubject() != "B" {
		t.Errorf("expected subject B, got %q", p.CurrentSubject())
	}

	if _, err := p.Execute(Command{Action: "back"}); err != nil {
		t.Fatalf("back: %v", err)
	}
	sched.Flush()
	if p.CurrentSubject() != "A" {
		t.Errorf("expected back to A, got %q", p.CurrentSubject())
	}
}

func TestExecuteGotoStartsPlayback(t *testing.T) {
	p, sched, _ := newTestPlayer(t, newDoc(subject("A", image(0)), subject("B", image(0))))

	if _, err := p.Execute(Command{Action: "goto", Subject: "B"}); err != nil {
		t.Fatalf("goto: %v", err)
	}
	sched.Flush()
	if p.State() != StatePlaying || p.CurrentSubject() != "B" {
		t.Errorf("expected playing B, got %s %q", p.State(), p.CurrentSubject())
	}
}

func TestExecuteErrors(t *testing.T) {
	p, _, _ := newTestPlayer(t, newDoc(subject("A", image(0))))

	cases := []Command{
		{Action: "goto"},
		{Action: "goto", Subject: "missing"},
		{Action: "swipe"},
		{Action: "answer", Option: "1"},
		{Action: "click", ViewID: "x"},
		{Action: "close_frame", ViewID: "x"},
	}
	for _, c := range cases {
		if _, err := p.Execute(c); err == nil {
			t.Errorf("%+v: expected error", c)
		}
	}

	_, err := p.Execute(Command{Action: "dance"})
	if !errors.Is(err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
}

func TestCommandIsInput(t *testing.T) {
	for action, want := range map[string]bool{
		"swipe": true, "answer": true, "click": true, "activity": true,
		"play": false, "stop": false, "goto": false,
	} {
		if got := (Command{Action: action}).IsInput(); got != want {
			t.Errorf("%s: expected %v, got %v", action, want, got)
		}
	}
}
