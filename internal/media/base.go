package media

import "github.com/AaronLay10/SentientPlayer/internal/pubsub"

const endedTopic = "ended"

// State is the playback state a backend reports.
type State string

const (
	StateStopped State = "stopped"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
)

// Base carries the state flags and the ended event shared by backends.
// Embed it and call SetState and Ended from the backend.
type Base struct {
	state State
	hub   *pubsub.Hub
}

func (b *Base) events() *pubsub.Hub {
	if b.hub == nil {
		b.hub = pubsub.New()
	}
	return b.hub
}

// SetState records the backend's playback state.
func (b *Base) SetState(s State) {
	b.state = s
}

func (b *Base) IsPlaying() bool { return b.state == StatePlaying }
func (b *Base) IsPaused() bool  { return b.state == StatePaused }
func (b *Base) IsStopped() bool { return b.state == "" || b.state == StateStopped }

// OnEnded registers fn for the ended event.
func (b *Base) OnEnded(fn func()) func() {
	hub := b.events()
	token := hub.Subscribe(endedTopic, func(any) { fn() })
	return func() { hub.Unsubscribe(endedTopic, token) }
}

// Ended notifies ended subscribers.
func (b *Base) Ended() {
	b.events().Publish(endedTopic, nil)
}
