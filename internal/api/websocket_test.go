package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AaronLay10/SentientPlayer/internal/events"
)

// waitFor polls condition until it holds or timeout expires.
func waitFor(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("timeout waiting for: %s", msg)
}

// dialEvents starts a websocket test server and connects one client
// with the given query string.
func dialEvents(t *testing.T, query string) (*websocket.Conn, func()) {
	t.Helper()
	SetTLSConfigForTest(nil)
	server := httptest.NewServer(http.HandlerFunc(wsEventsHandler))
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+query, nil)
	if err != nil {
		server.Close()
		t.Fatalf("failed to connect: %v", err)
	}
	return conn, func() {
		conn.Close()
		server.Close()
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) events.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	var e events.Event
	if err := json.Unmarshal(msg, &e); err != nil {
		t.Fatalf("failed to unmarshal event: %v", err)
	}
	return e
}

// emitSoon emits after the handler has subscribed.
func emitSoon(name string, fields map[string]interface{}) {
	go func() {
		time.Sleep(50 * time.Millisecond)
		events.Emit("info", name, "", fields)
	}()
}

func TestWebSocketReplaysRecentEvents(t *testing.T) {
	events.Clear()
	for i := 0; i < 5; i++ {
		events.Emit("info", "subject.playing", "", map[string]interface{}{"subject": fmt.Sprintf("s%d", i)})
	}

	conn, done := dialEvents(t, "")
	defer done()

	for i := 0; i < 5; i++ {
		e := readEvent(t, conn)
		if want := fmt.Sprintf("s%d", i); e.Name != "subject.playing" || e.Fields["subject"] != want {
			t.Errorf("replay %d: expected subject.playing %s, got %s %v", i, want, e.Name, e.Fields["subject"])
		}
	}
}

func TestWebSocketStreamsNewEvents(t *testing.T) {
	events.Clear()
	conn, done := dialEvents(t, "")
	defer done()

	emitSoon("navigation.goto", map[string]interface{}{"subject": "intro"})

	e := readEvent(t, conn)
	if e.Name != "navigation.goto" {
		t.Errorf("expected 'navigation.goto', got '%s'", e.Name)
	}
	if e.Fields["subject"] != "intro" {
		t.Errorf("expected subject 'intro', got '%v'", e.Fields["subject"])
	}
}

func TestWebSocketDisconnectCleansUp(t *testing.T) {
	events.Clear()
	events.CloseAllSubscribers()

	conn, done := dialEvents(t, "")
	emitSoon("subject.playing", map[string]interface{}{"subject": "cleanup"})
	if e := readEvent(t, conn); e.Name != "subject.playing" {
		t.Errorf("expected 'subject.playing', got '%s'", e.Name)
	}

	done()

	// The reader goroutine notices the close and unsubscribes.
	waitFor(t, 5*time.Second, func() bool {
		events.Emit("info", "player.pause", "", nil)
		return events.SubscriberCount() == 0
	}, "subscriber count to return to 0 after close")
}

func TestWebSocketMultipleClients(t *testing.T) {
	events.Clear()
	conn1, done1 := dialEvents(t, "")
	defer done1()
	conn2, done2 := dialEvents(t, "")
	defer done2()

	emitSoon("player.pause", nil)

	for i, conn := range []*websocket.Conn{conn1, conn2} {
		if e := readEvent(t, conn); e.Name != "player.pause" {
			t.Errorf("client %d: expected 'player.pause', got '%s'", i+1, e.Name)
		}
	}
}

func TestWebSocketScopeFilter(t *testing.T) {
	events.Clear()
	events.Emit("info", "media.started", "", map[string]interface{}{"id": 1})
	events.Emit("info", "subject.playing", "", map[string]interface{}{"subject": "intro"})

	conn, done := dialEvents(t, "?scope=subject")
	defer done()

	if e := readEvent(t, conn); e.Name != "subject.playing" {
		t.Fatalf("expected replay of subject.playing only, got %s", e.Name)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		events.Emit("info", "media.ended", "", nil)
		events.Emit("info", "subject.playing", "", map[string]interface{}{"subject": "outro"})
	}()
	e := readEvent(t, conn)
	if e.Name != "subject.playing" || e.Fields["subject"] != "outro" {
		t.Errorf("expected subject.playing outro, got %s %v", e.Name, e.Fields)
	}
}

func TestWebSocketReplayZero(t *testing.T) {
	events.Clear()
	events.Emit("info", "subject.playing", "", map[string]interface{}{"subject": "old"})

	conn, done := dialEvents(t, "?replay=0")
	defer done()

	emitSoon("player.pause", nil)
	if e := readEvent(t, conn); e.Name != "player.pause" {
		t.Errorf("expected live event only, got %s", e.Name)
	}
}

func TestReplayCount(t *testing.T) {
	cases := map[string]int{
		"":              defaultReplay,
		"?replay=abc":   defaultReplay,
		"?replay=-1":    defaultReplay,
		"?replay=0":     0,
		"?replay=10":    10,
		"?replay=99999": maxReplay,
	}
	for query, want := range cases {
		r := httptest.NewRequest(http.MethodGet, "/ws"+query, nil)
		if got := replayCount(r); got != want {
			t.Errorf("%q: got %d, want %d", query, got, want)
		}
	}
}
