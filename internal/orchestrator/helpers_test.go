package orchestrator

import (
	"testing"
	"time"

	"github.com/AaronLay10/SentientPlayer/internal/clock"
	"github.com/AaronLay10/SentientPlayer/internal/media"
	"github.com/AaronLay10/SentientPlayer/internal/playlist"
	"github.com/AaronLay10/SentientPlayer/internal/view"
)

var testStart = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestPlayer(t *testing.T, doc *playlist.Document) (*Player, *clock.Manual, *view.Recorder) {
	t.Helper()
	sched := clock.NewManual(testStart)
	rec := view.NewRecorder()
	p, err := NewPlayer(doc, Options{
		Scheduler: sched,
		Registry:  media.SimulatedRegistry(10 * time.Second),
		Surface:   rec,
	})
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	return p, sched, rec
}

func newDoc(subjects ...*playlist.Subject) *playlist.Document {
	doc := &playlist.Document{Subjects: make(map[string]*playlist.Subject)}
	for _, s := range subjects {
		doc.Subjects[s.ID] = s
		if doc.FirstSubject == "" {
			doc.FirstSubject = s.ID
		}
	}
	return doc
}

func subject(id string, items ...playlist.Node) *playlist.Subject {
	return &playlist.Subject{ID: id, Sequence: &playlist.Sequence{Items: items}}
}

func image(d time.Duration) *playlist.MediaItem {
	return &playlist.MediaItem{Type: "image", Duration: d}
}

func leadsTo(target string) []playlist.BranchRule {
	return []playlist.BranchRule{{Subject: target}}
}

// start plays the presentation and delivers the first location change.
func start(t *testing.T, p *Player, sched *clock.Manual) {
	t.Helper()
	p.Play()
	sched.Flush()
	if p.State() != StatePlaying {
		t.Fatalf("expected playing, got %s", p.State())
	}
}
