package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AaronLay10/SentientPlayer/internal/metrics"
	"github.com/AaronLay10/SentientPlayer/internal/storage"
)

// recent retains the last events for replay.
var recent = newHistory(256)

var (
	journal       storage.Journal
	sessionID     string
	journalMu     sync.RWMutex
	journalFailed bool
	totalCount    atomic.Int64
)

// SetJournal sets the store events are persisted to. Nil disables
// persistence.
func SetJournal(j storage.Journal) {
	journalMu.Lock()
	journal = j
	journalFailed = false
	journalMu.Unlock()
}

// Journal returns the current store (for API queries and restore).
func Journal() storage.Journal {
	journalMu.RLock()
	defer journalMu.RUnlock()
	return journal
}

// SetSession tags every following event with the given session id.
func SetSession(id string) {
	journalMu.Lock()
	sessionID = id
	journalMu.Unlock()
}

// Session returns the current session id.
func Session() string {
	journalMu.RLock()
	defer journalMu.RUnlock()
	return sessionID
}

type Event struct {
	Timestamp string                 `json:"ts"`
	Level     string                 `json:"level"`
	Name      string                 `json:"event"`
	Message   string                 `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func Emit(level, name, msg string, fields map[string]interface{}) ([]byte, error) {
	if err := Validate(name); err != nil {
		return nil, err
	}

	ts := time.Now().UTC()
	e := Event{
		Timestamp: ts.Format(time.RFC3339Nano),
		Level:     level,
		Name:      name,
		Message:   msg,
		Fields:    fields,
	}

	recent.add(e)
	totalCount.Add(1)
	metrics.JournalEvents.WithLabelValues(name).Inc()
	broadcast(e)

	journalMu.RLock()
	store := journal
	session := sessionID
	failed := journalFailed
	journalMu.RUnlock()

	if store != nil {
		if err := store.Append(ts, level, name, msg, fields, session); err != nil && !failed {
			// Report the first failure only. The report goes straight to
			// the buffer so a broken store cannot recurse through Emit.
			journalMu.Lock()
			report := !journalFailed
			journalFailed = true
			journalMu.Unlock()
			if report {
				errEvent := Event{
					Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
					Level:     "error",
					Name:      "system.error",
					Message:   "journal append failed",
					Fields: map[string]interface{}{
						"error": err.Error(),
					},
				}
				recent.add(errEvent)
				broadcast(errEvent)
			}
		}
	}

	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	return b, nil
}

// Snapshot returns every retained event, oldest first.
func Snapshot() []Event {
	return recent.last(0)
}

// TotalCount returns the number of events emitted since startup.
func TotalCount() int64 {
	return totalCount.Load()
}

// Clear drops the retained events. Used for testing.
func Clear() {
	recent.reset()
}
