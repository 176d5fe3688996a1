package orchestrator

import (
	log "github.com/sirupsen/logrus"

	"github.com/AaronLay10/SentientPlayer/internal/playlist"
	"github.com/AaronLay10/SentientPlayer/internal/pubsub"
)

type sequenceHost interface {
	ApplyModifiers(mods []playlist.VariableModifier)
}

// SequencePlayer plays the items of a sequence one after another. Nested
// sequences are played by a child player sharing the media player.
type SequencePlayer struct {
	media *MediaPlayer
	host  sequenceHost
	hub   *pubsub.Hub

	state   PlaybackState
	seq     *playlist.Sequence
	cursor  int
	current playlist.Node
	child   *SequencePlayer
}

// newSequencePlayer creates the root sequence player, which listens for
// the media player's end.
func newSequencePlayer(m *MediaPlayer, host sequenceHost) *SequencePlayer {
	s := &SequencePlayer{media: m, host: host, hub: pubsub.New(), state: StateStopped}
	m.Events().Subscribe(TopicMediaPlayerEnd, func(any) { s.onMediaEnd() })
	return s
}

// Events returns the hub carrying sequence_end.
func (s *SequencePlayer) Events() *pubsub.Hub { return s.hub }

// State returns the current state.
func (s *SequencePlayer) State() PlaybackState { return s.state }

// Play adopts seq when given and starts it from the first item.
func (s *SequencePlayer) Play(seq *playlist.Sequence) {
	if seq != nil {
		s.use(seq)
	}
	if s.seq == nil {
		log.Error("sequence player: play called without a sequence")
		return
	}

	switch s.state {
	case StatePlaying:
		log.Warn("sequence player: play called while already playing")
		return
	case StatePaused:
		s.Resume()
		return
	}

	s.state = StatePlaying
	s.controller()
}

// Pause forwards to the media player.
func (s *SequencePlayer) Pause() {
	if s.state != StatePlaying {
		log.WithField("state", s.state).Warn("sequence player: pause called while not playing")
		return
	}
	s.state = StatePaused
	s.media.Pause()
}

// Resume forwards to the media player.
func (s *SequencePlayer) Resume() {
	if s.state != StatePaused {
		log.WithField("state", s.state).Warn("sequence player: resume called while not paused")
		return
	}
	s.media.Resume()
	s.state = StatePlaying
}

// Stop halts playback and rewinds the cursor. A second Stop only warns.
func (s *SequencePlayer) Stop() {
	if s.state == StateStopped {
		log.Warn("sequence player: stop called while already stopped")
		return
	}
	s.reset()
}

func (s *SequencePlayer) use(seq *playlist.Sequence) {
	s.reset()
	s.seq = seq
}

func (s *SequencePlayer) reset() {
	s.media.reset()
	s.state = StateStopped
	s.cursor = 0
	s.current = nil
	s.child = nil
}

// controller starts the item under the cursor or ends the sequence.
func (s *SequencePlayer) controller() {
	for {
		if s.cursor >= len(s.seq.Items) {
			s.current = nil
			s.hub.Publish(TopicSequenceEnd, s.seq)
			return
		}
		node := s.seq.Items[s.cursor]
		s.cursor++

		switch n := node.(type) {
		case *playlist.MediaItem:
			s.current = n
			s.host.ApplyModifiers(n.Modifiers)
			s.media.Play(n)
			return
		case *playlist.Sequence:
			s.current = n
			s.playChild(n)
			return
		case *playlist.Parallel:
			log.WithField("items", len(n.Items)).Warn("parallel playback is not supported, skipping")
		}
	}
}

func (s *SequencePlayer) playChild(seq *playlist.Sequence) {
	child := &SequencePlayer{media: s.media, host: s.host, hub: pubsub.New(), state: StateStopped}
	s.child = child
	child.hub.Subscribe(TopicSequenceEnd, func(any) {
		if s.child != child {
			return
		}
		s.child = nil
		s.controller()
	})
	child.seq = seq
	child.state = StatePlaying
	child.controller()
}

// onMediaEnd routes the media player's end to the innermost sequence.
func (s *SequencePlayer) onMediaEnd() {
	if s.state == StateStopped {
		return
	}
	if s.child != nil {
		s.child.onMediaEnd()
		return
	}
	s.controller()
}
