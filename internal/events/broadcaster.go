package events

import (
	"sync"

	"github.com/AaronLay10/SentientPlayer/internal/metrics"
)

// subscriberBuffer is how many events a slow subscriber may lag behind
// before events are dropped for it.
const subscriberBuffer = 64

// Subscriber receives every event emitted after it subscribed.
type Subscriber chan Event

var (
	subMu       sync.RWMutex
	subscribers = make(map[Subscriber]struct{})
)

// Subscribe registers a live listener (websocket client, MQTT bridge).
func Subscribe() Subscriber {
	ch := make(Subscriber, subscriberBuffer)
	subMu.Lock()
	subscribers[ch] = struct{}{}
	subMu.Unlock()
	return ch
}

// Unsubscribe removes sub and closes it. Already-closed subscribers are
// ignored.
func Unsubscribe(sub Subscriber) {
	subMu.Lock()
	defer subMu.Unlock()
	if _, ok := subscribers[sub]; ok {
		delete(subscribers, sub)
		close(sub)
	}
}

// CloseAllSubscribers disconnects every listener. Used on shutdown.
func CloseAllSubscribers() {
	subMu.Lock()
	defer subMu.Unlock()
	for sub := range subscribers {
		delete(subscribers, sub)
		close(sub)
	}
}

// broadcast never blocks Emit: a full subscriber misses the event.
func broadcast(e Event) {
	subMu.RLock()
	defer subMu.RUnlock()
	for sub := range subscribers {
		select {
		case sub <- e:
		default:
			metrics.BroadcastDropped.Inc()
		}
	}
}

// SubscriberCount returns the number of live listeners.
func SubscriberCount() int {
	subMu.RLock()
	defer subMu.RUnlock()
	return len(subscribers)
}

// RecentEvents returns up to the last n events, oldest first. n <= 0
// returns everything retained.
func RecentEvents(n int) []Event {
	return recent.last(n)
}
