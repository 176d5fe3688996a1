package sqlite

import (
	"path/filepath"
	"testing"
	"time"
)

func TestAppendAndQuery(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "journal.db"), "lobby")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer c.Close()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := c.Append(base, "info", "subject.playing", "", map[string]interface{}{"subject_id": "intro"}, "s1"); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := c.Append(base.Add(time.Second), "warn", "navigation.unknown_subject", "missing", nil, ""); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	rows, err := c.Query(10)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	newest := rows[0]
	if newest.Event != "navigation.unknown_subject" || newest.Message == nil || *newest.Message != "missing" {
		t.Errorf("unexpected newest row: %+v", newest)
	}
	if newest.SessionID != nil {
		t.Errorf("expected nil session id, got %v", *newest.SessionID)
	}

	oldest := rows[1]
	if oldest.Fields["subject_id"] != "intro" {
		t.Errorf("expected subject_id field, got %v", oldest.Fields)
	}
	if oldest.SessionID == nil || *oldest.SessionID != "s1" {
		t.Errorf("expected session s1, got %v", oldest.SessionID)
	}
	if !oldest.Timestamp.Equal(base) {
		t.Errorf("expected %v, got %v", base, oldest.Timestamp)
	}
}

func TestQueryIsScopedToShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	a, err := Open(path, "a")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer a.Close()
	b, err := Open(path, "b")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer b.Close()

	_ = a.Append(time.Now(), "info", "player.play", "", nil, "")
	rows, err := b.Query(10)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows for show b, got %d", len(rows))
	}
}
