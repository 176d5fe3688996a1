package events

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AaronLay10/SentientPlayer/internal/storage"
)

type fakeJournal struct {
	mu       sync.Mutex
	appended []string
	sessions []string
	err      error
}

func (f *fakeJournal) Append(ts time.Time, level, event, msg string, fields map[string]interface{}, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, event)
	f.sessions = append(f.sessions, sessionID)
	return f.err
}

func (f *fakeJournal) Query(limit int) ([]storage.EventRow, error) { return nil, nil }
func (f *fakeJournal) Close() error                                { return nil }

func TestEmitRejectsUnknownEvent(t *testing.T) {
	if _, err := Emit("info", "node.started", "", nil); err == nil {
		t.Error("expected error for unregistered event")
	}
}

func TestEmitPersistsWithSession(t *testing.T) {
	Clear()
	j := &fakeJournal{}
	SetJournal(j)
	SetSession("session-1")
	defer SetJournal(nil)
	defer SetSession("")

	if _, err := Emit("info", "player.play", "", nil); err != nil {
		t.Fatalf("emit failed: %v", err)
	}

	if len(j.appended) != 1 || j.appended[0] != "player.play" {
		t.Errorf("expected player.play persisted, got %v", j.appended)
	}
	if j.sessions[0] != "session-1" {
		t.Errorf("expected session-1, got %q", j.sessions[0])
	}
}

func TestJournalFailureReportedOnce(t *testing.T) {
	Clear()
	j := &fakeJournal{err: errors.New("disk full")}
	SetJournal(j)
	defer SetJournal(nil)

	for i := 0; i < 3; i++ {
		Emit("info", "player.play", "", nil)
	}

	failures := 0
	for _, e := range Snapshot() {
		if e.Name == "system.error" {
			failures++
		}
	}
	if failures != 1 {
		t.Errorf("expected one system.error, got %d", failures)
	}
	if len(j.appended) != 3 {
		t.Errorf("expected appends to keep being attempted, got %d", len(j.appended))
	}
}

func TestTotalCount(t *testing.T) {
	before := TotalCount()
	Emit("info", "player.stop", "", nil)
	if TotalCount() != before+1 {
		t.Errorf("expected total count to grow by one")
	}
}
