package orchestrator

import (
	log "github.com/sirupsen/logrus"

	"github.com/AaronLay10/SentientPlayer/internal/clock"
	"github.com/AaronLay10/SentientPlayer/internal/pubsub"
)

const topicLocation = "location"

// History is the navigation surface: the current subject id exposed as a
// location with back support. Changes are delivered asynchronously through
// the scheduler, one zero-delay callback per change.
type History struct {
	sched   clock.Scheduler
	entries []string
	hub     *pubsub.Hub
	pending []clock.Timer
}

// NewHistory creates an empty history.
func NewHistory(s clock.Scheduler) *History {
	return &History{sched: s, hub: pubsub.New()}
}

// Location returns the current location, or "" when history is empty.
func (h *History) Location() string {
	if len(h.entries) == 0 {
		return ""
	}
	return h.entries[len(h.entries)-1]
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// OnChange registers fn for location changes.
func (h *History) OnChange(fn func(id string)) pubsub.Token {
	return h.hub.Subscribe(topicLocation, func(p any) {
		id, _ := p.(string)
		fn(id)
	})
}

// Push navigates to id. Pushing the current location notifies again.
func (h *History) Push(id string) {
	h.entries = append(h.entries, id)
	h.notify(id)
}

// Seed sets the location without notifying.
func (h *History) Seed(id string) {
	h.entries = append(h.entries, id)
}

// Back returns to the previous entry. It reports false when there is no
// previous entry.
func (h *History) Back() bool {
	if len(h.entries) < 2 {
		log.WithField("entries", len(h.entries)).Warn("history: no previous location")
		return false
	}
	h.entries = h.entries[:len(h.entries)-1]
	h.notify(h.Location())
	return true
}

// Clear empties the history and cancels undelivered notifications.
func (h *History) Clear() {
	for _, t := range h.pending {
		t.Stop()
	}
	h.pending = nil
	h.entries = nil
}

func (h *History) notify(id string) {
	var t clock.Timer
	t = h.sched.AfterFunc(0, func() {
		h.forget(t)
		h.hub.Publish(topicLocation, id)
	})
	h.pending = append(h.pending, t)
}

func (h *History) forget(t clock.Timer) {
	for i, p := range h.pending {
		if p == t {
			h.pending = append(h.pending[:i], h.pending[i+1:]...)
			return
		}
	}
}
