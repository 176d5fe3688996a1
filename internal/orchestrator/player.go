// Package orchestrator is the playback engine: it walks a parsed playlist
// over time, deciding which media plays, which overlays and questions are
// visible and which subject comes next.
//
// All methods must be called from the engine loop.
package orchestrator

import (
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/AaronLay10/SentientPlayer/internal/clock"
	"github.com/AaronLay10/SentientPlayer/internal/config"
	"github.com/AaronLay10/SentientPlayer/internal/media"
	"github.com/AaronLay10/SentientPlayer/internal/metrics"
	"github.com/AaronLay10/SentientPlayer/internal/playlist"
	"github.com/AaronLay10/SentientPlayer/internal/pubsub"
	"github.com/AaronLay10/SentientPlayer/internal/view"
)

// Options configures a Player.
type Options struct {
	Scheduler      clock.Scheduler
	Registry       *media.Registry
	Surface        view.Surface
	Presentation   config.Presentation
	TickInterval   time.Duration
	AnswerFeedback time.Duration
	QuestionFade   time.Duration
}

// Player is the top-level presentation player.
type Player struct {
	doc      *playlist.Document
	opts     Options
	hub      *pubsub.Hub
	vars     *Variables
	history  *History
	media    *MediaPlayer
	sequence *SequencePlayer

	state   PlaybackState
	current *playlist.Subject
	frames  []*view.FrameView
}

// NewPlayer creates a stopped player for doc and applies the document's
// variable initialisers.
func NewPlayer(doc *playlist.Document, opts Options) (*Player, error) {
	if doc == nil {
		return nil, errors.New("player: nil document")
	}
	if opts.Scheduler == nil {
		return nil, errors.New("player: scheduler is required")
	}
	if opts.Registry == nil {
		return nil, errors.New("player: media registry is required")
	}
	if opts.Surface == nil {
		opts.Surface = view.JournalSurface{}
	}
	if opts.Presentation == (config.Presentation{}) {
		opts.Presentation = config.DefaultPresentation()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 50 * time.Millisecond
	}
	if opts.AnswerFeedback <= 0 {
		opts.AnswerFeedback = 1000 * time.Millisecond
	}
	if opts.QuestionFade <= 0 {
		opts.QuestionFade = 400 * time.Millisecond
	}

	p := &Player{
		doc:   doc,
		opts:  opts,
		hub:   pubsub.New(),
		state: StateStopped,
	}
	p.vars = NewVariables(p.hub)
	p.history = NewHistory(opts.Scheduler)
	p.history.OnChange(p.onLocationChange)
	p.media = newMediaPlayer(p, opts)
	p.sequence = newSequencePlayer(p.media, p)
	p.sequence.Events().Subscribe(TopicSequenceEnd, func(any) { p.onSequenceEnd() })

	p.vars.ApplyAll(doc.Modifiers)
	setPlayerState(StateStopped)
	return p, nil
}

// Events returns the hub carrying the runtime events.
func (p *Player) Events() *pubsub.Hub { return p.hub }

// Document returns the playlist being played.
func (p *Player) Document() *playlist.Document { return p.doc }

// State returns the current state.
func (p *Player) State() PlaybackState { return p.state }

// CurrentSubject returns the id of the playing subject, or "".
func (p *Player) CurrentSubject() string {
	if p.current == nil {
		return ""
	}
	return p.current.ID
}

// Location returns the navigation location.
func (p *Player) Location() string { return p.history.Location() }

// Variable returns a variable's value.
func (p *Player) Variable(id string) (string, bool) { return p.vars.Get(id) }

// Variables returns a copy of every variable.
func (p *Player) Variables() map[string]string { return p.vars.Snapshot() }

// Evaluate evaluates a branch condition against the variables.
func (p *Player) Evaluate(condition string) bool { return p.vars.Evaluate(condition) }

// ApplyModifiers applies variable modifiers in order.
func (p *Player) ApplyModifiers(mods []playlist.VariableModifier) { p.vars.ApplyAll(mods) }

// Play starts the presentation at the current location, or at the first
// subject when there is none. A paused player resumes.
func (p *Player) Play() {
	switch p.state {
	case StatePlaying:
		log.Warn("player: play called while already playing")
		return
	case StatePaused:
		p.Resume()
		return
	}
	p.setState(StatePlaying)
	emitEvent("player.play", map[string]interface{}{"location": p.history.Location()})
	p.onLocationChange(p.history.Location())
}

// PlaySubject plays the subject with the given id immediately.
func (p *Player) PlaySubject(id string) error {
	s, err := p.doc.Lookup(id)
	if err != nil {
		return err
	}
	p.playSubject(s)
	return nil
}

func (p *Player) playSubject(s *playlist.Subject) {
	p.current = s
	p.vars.ApplyAll(s.Modifiers)

	metrics.SubjectsPlayed.WithLabelValues(s.ID).Inc()
	emitEvent("subject.playing", map[string]interface{}{
		"subject":     s.ID,
		"description": s.Description,
	})
	p.hub.Publish(TopicSubjectPlaying, s)

	seq := s.Sequence
	if seq == nil {
		seq = &playlist.Sequence{}
	}
	p.sequence.Play(seq)

	// Navigating while paused lands on the new subject paused.
	if p.state == StatePaused && p.current == s && p.sequence.State() == StatePlaying {
		p.sequence.Pause()
	}
}

// Pause pauses playback.
func (p *Player) Pause() {
	if p.state != StatePlaying {
		log.WithField("state", p.state).Warn("player: pause called while not playing")
		return
	}
	p.setState(StatePaused)
	p.sequence.Pause()
	emitEvent("player.pause", map[string]interface{}{"subject": p.CurrentSubject()})
}

// Resume continues after Pause.
func (p *Player) Resume() {
	if p.state != StatePaused {
		log.WithField("state", p.state).Warn("player: resume called while not paused")
		return
	}
	p.setState(StatePlaying)
	p.sequence.Resume()
	emitEvent("player.resume", map[string]interface{}{"subject": p.CurrentSubject()})
}

// Stop resets the player: playback halts, variables are re-initialised
// from the document, the subject and location are cleared and open frames
// close. A second Stop only warns.
func (p *Player) Stop() {
	if p.state == StateStopped {
		log.Warn("player: stop called while already stopped")
		return
	}
	subject := p.CurrentSubject()

	p.setState(StateStopped)
	p.sequence.reset()
	p.current = nil
	p.history.Clear()
	for _, f := range p.frames {
		f.Destroy()
	}
	p.frames = nil

	emitEvent("player.stop", map[string]interface{}{"subject": subject})
	p.vars.Reset()
	p.vars.ApplyAll(p.doc.Modifiers)
}

// GoTo requests navigation to target. The reserved target back() goes
// back in history. The subject switch happens when the location change
// is delivered.
func (p *Player) GoTo(target string) {
	if target == playlist.BackTarget {
		emitEvent("navigation.back", map[string]interface{}{"from": p.history.Location()})
		p.history.Back()
		return
	}
	emitEvent("navigation.goto", map[string]interface{}{
		"from": p.history.Location(),
		"to":   target,
	})
	p.history.Push(target)
}

// Back navigates to the previous location.
func (p *Player) Back() {
	p.GoTo(playlist.BackTarget)
}

func (p *Player) onLocationChange(id string) {
	if p.state == StateStopped {
		return
	}
	if id == "" {
		if p.doc.FirstSubject == "" {
			log.Warn("player: playlist has no subjects")
			return
		}
		p.GoTo(p.doc.FirstSubject)
		return
	}

	s, err := p.doc.Lookup(id)
	if err != nil {
		var unknown *playlist.UnknownSubjectError
		fields := map[string]interface{}{"subject": id}
		if errors.As(err, &unknown) && unknown.Suggestion != "" {
			fields["suggestion"] = unknown.Suggestion
		}
		log.WithFields(fields).Warn(err.Error())
		emitEvent("navigation.unknown_subject", fields)
		return
	}
	p.playSubject(s)
}

func (p *Player) onSequenceEnd() {
	if p.current == nil {
		return
	}
	if target, ok := ResolveBranch(p.current.LeadsTo, p.vars).Get(); ok {
		p.GoTo(target)
		return
	}
	emitEvent("player.end", map[string]interface{}{"subject": p.current.ID})
	p.hub.Publish(TopicPlayerEnd, p.current)
}

// OpenFrame presents url in a closable frame and publishes iframe_open.
// Closing the frame publishes iframe_close and resumes a paused player.
func (p *Player) OpenFrame(url string) {
	f := view.NewFrame(p.opts.Surface, url)
	f.OnClose(func() { p.frameClosed(f) })
	p.frames = append(p.frames, f)
	f.Render()
	p.hub.Publish(TopicIframeOpen, url)
}

// CloseFrame closes the open frame with the given view id.
func (p *Player) CloseFrame(viewID string) error {
	f, ok := lo.Find(p.frames, func(f *view.FrameView) bool { return f.ID() == viewID })
	if !ok {
		return fmt.Errorf("no open frame %q", viewID)
	}
	f.Close()
	return nil
}

func (p *Player) frameClosed(f *view.FrameView) {
	p.frames = lo.Without(p.frames, f)
	p.hub.Publish(TopicIframeClose, f.URL)
	if p.state == StatePaused {
		p.Resume()
	}
}

// ClickOverlay clicks the visible overlay with the given view id.
func (p *Player) ClickOverlay(viewID string) error {
	if p.media.overlays == nil {
		return fmt.Errorf("no overlay %q", viewID)
	}
	v, ok := p.media.overlays.find(viewID)
	if !ok {
		return fmt.Errorf("no overlay %q", viewID)
	}
	v.Click()
	return nil
}

// Answer answers the open question with option.
func (p *Player) Answer(option string) error {
	if p.media.questions == nil || !p.media.questions.Answer(option) {
		return errors.New("no open question")
	}
	return nil
}

func (p *Player) setState(s PlaybackState) {
	p.state = s
	setPlayerState(s)
}
