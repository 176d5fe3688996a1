package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/AaronLay10/SentientPlayer/internal/events"
	"github.com/AaronLay10/SentientPlayer/internal/metrics"
)

const (
	defaultReplay = 50
	maxReplay     = 256

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Kiosk surfaces are served from other origins; access is gated by auth.
	CheckOrigin: func(*http.Request) bool { return true },
}

// eventFeed is one websocket subscriber. Scopes, when set, restrict the
// feed to events whose name starts with one of them ("subject", "media").
type eventFeed struct {
	conn   *websocket.Conn
	scopes []string
	logger *log.Entry
}

func (f *eventFeed) wants(e events.Event) bool {
	if len(f.scopes) == 0 {
		return true
	}
	scope, _, _ := strings.Cut(e.Name, ".")
	return lo.Contains(f.scopes, scope)
}

func (f *eventFeed) send(e events.Event) error {
	if !f.wants(e) {
		return nil
	}
	_ = f.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return f.conn.WriteJSON(e)
}

func (f *eventFeed) ping() error {
	return f.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// drain consumes inbound frames so pongs and close frames are seen. The
// returned channel closes when the peer goes away.
func (f *eventFeed) drain() <-chan struct{} {
	gone := make(chan struct{})
	_ = f.conn.SetReadDeadline(time.Now().Add(pongWait))
	f.conn.SetPongHandler(func(string) error {
		return f.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := f.conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return gone
}

// replayCount reads ?replay=N, clamped to maxReplay.
func replayCount(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("replay"))
	if err != nil || n < 0 {
		return defaultReplay
	}
	return min(n, maxReplay)
}

// wsEventsHandler streams events to a websocket client. The recent window
// (?replay=N) is sent first, then live events. ?scope=subject,media
// narrows the feed to those event families.
func wsEventsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("api: websocket upgrade failed")
		return
	}
	feed := &eventFeed{
		conn:   conn,
		logger: log.WithField("remote", r.RemoteAddr),
	}
	if raw := r.URL.Query().Get("scope"); raw != "" {
		feed.scopes = lo.Compact(lo.Map(strings.Split(raw, ","), func(s string, _ int) string {
			return strings.TrimSpace(s)
		}))
	}

	sub := events.Subscribe()
	metrics.WebSocketClients.Inc()
	feed.logger.WithField("scopes", feed.scopes).Debug("api: websocket client connected")
	defer func() {
		events.Unsubscribe(sub)
		metrics.WebSocketClients.Dec()
		_ = conn.Close()
		feed.logger.Debug("api: websocket client disconnected")
	}()

	if n := replayCount(r); n > 0 {
		for _, e := range events.RecentEvents(n) {
			if err := feed.send(e); err != nil {
				feed.logger.WithError(err).Warn("api: websocket replay failed")
				return
			}
		}
	}

	gone := feed.drain()
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-gone:
			return
		case e, ok := <-sub:
			if !ok {
				return
			}
			if err := feed.send(e); err != nil {
				feed.logger.WithError(err).Warn("api: websocket write failed")
				return
			}
		case <-ticker.C:
			if err := feed.ping(); err != nil {
				return
			}
		}
	}
}
