package events

import "sync"

// history keeps the most recent events for replay to new websocket
// clients and the /events endpoint.
type history struct {
	mu    sync.RWMutex
	slots []Event
	next  int
	count int
}

func newHistory(capacity int) *history {
	return &history{slots: make([]Event, capacity)}
}

func (h *history) add(e Event) {
	h.mu.Lock()
	h.slots[h.next] = e
	h.next = (h.next + 1) % len(h.slots)
	if h.count < len(h.slots) {
		h.count++
	}
	h.mu.Unlock()
}

// last returns up to n events, oldest first. n <= 0 means all.
func (h *history) last(n int) []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 || n > h.count {
		n = h.count
	}
	out := make([]Event, n)
	start := (h.next - n + len(h.slots)) % len(h.slots)
	for i := range out {
		out[i] = h.slots[(start+i)%len(h.slots)]
	}
	return out
}

func (h *history) reset() {
	h.mu.Lock()
	clear(h.slots)
	h.next, h.count = 0, 0
	h.mu.Unlock()
}
