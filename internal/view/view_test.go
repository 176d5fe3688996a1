package view

import (
	"testing"

	"github.com/AaronLay10/SentientPlayer/internal/playlist"
)

func TestOverlayOneClick(t *testing.T) {
	r := NewRecorder()
	v := NewOverlay(r, &playlist.Overlay{})
	v.Render()

	clicks := 0
	v.OnOneClick(func() { clicks++ })
	v.Click()
	v.Click()
	if clicks != 1 {
		t.Errorf("expected 1 click, got %d", clicks)
	}

	v.OnOneClick(func() { clicks++ })
	v.Click()
	if clicks != 2 {
		t.Errorf("expected re-armed click to fire, got %d", clicks)
	}
}

func TestOverlayDestroy(t *testing.T) {
	r := NewRecorder()
	v := NewOverlay(r, &playlist.Overlay{})
	v.Render()
	if len(r.Overlays()) != 1 {
		t.Fatalf("expected overlay on surface")
	}

	clicks := 0
	v.OnOneClick(func() { clicks++ })
	v.Destroy()
	v.Destroy()
	v.Click()

	if clicks != 0 {
		t.Error("destroyed overlay accepted a click")
	}
	if len(r.Overlays()) != 0 {
		t.Error("expected overlay removed from surface")
	}
	if got := len(r.Log); got != 2 {
		t.Errorf("expected show and hide only, got %v", r.Log)
	}
}

func TestViewsHaveDistinctIDsAndHubs(t *testing.T) {
	r := NewRecorder()
	a := NewOverlay(r, &playlist.Overlay{})
	b := NewOverlay(r, &playlist.Overlay{})
	if a.ID() == b.ID() {
		t.Error("expected distinct view ids")
	}

	aClicks := 0
	a.OnOneClick(func() { aClicks++ })
	b.Click()
	if aClicks != 0 {
		t.Error("click on one view reached another")
	}
}

func TestQuestionHideStopsAnswers(t *testing.T) {
	r := NewRecorder()
	v := NewQuestion(r, &playlist.Question{Text: "?"})
	v.Render()

	var got []string
	v.OnAnswer(func(o string) { got = append(got, o) })
	v.Answer("true")
	v.Hide()
	v.Answer("false")

	if len(got) != 1 || got[0] != "true" {
		t.Errorf("expected only the first answer, got %v", got)
	}
	if !v.Hidden() {
		t.Error("expected hidden question")
	}

	v.Destroy()
	if len(r.Questions()) != 0 {
		t.Error("expected question removed from surface")
	}
}

func TestFrameClose(t *testing.T) {
	r := NewRecorder()
	v := NewFrame(r, "https://example.com")
	v.Render()

	closed := 0
	v.OnClose(func() { closed++ })
	v.Close()
	v.Close()

	if closed != 1 {
		t.Errorf("expected one close, got %d", closed)
	}
	if len(r.Frames()) != 0 {
		t.Error("expected frame removed from surface")
	}
}
