package orchestrator

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/AaronLay10/SentientPlayer/internal/clock"
	"github.com/AaronLay10/SentientPlayer/internal/media"
	"github.com/AaronLay10/SentientPlayer/internal/metrics"
	"github.com/AaronLay10/SentientPlayer/internal/playlist"
	"github.com/AaronLay10/SentientPlayer/internal/pubsub"
	"github.com/AaronLay10/SentientPlayer/internal/view"
)

// mediaHost is the part of the top-level player the media player drives.
type mediaHost interface {
	Evaluator
	ApplyModifiers(mods []playlist.VariableModifier)
	GoTo(target string)
	Pause()
	OpenFrame(url string)
}

// MediaPlayer plays one media item at a time together with its overlays
// and questions.
type MediaPlayer struct {
	sched        clock.Scheduler
	registry     *media.Registry
	env          media.Env
	surface      view.Surface
	host         mediaHost
	tickInterval time.Duration
	feedback     time.Duration
	fade         time.Duration
	hub          *pubsub.Hub

	state       PlaybackState
	def         *playlist.MediaItem
	item        media.Item
	cancelEnded func()
	tick        clock.Timer
	skip        clock.Timer
	resumeItem  bool
	ended       bool

	// wall-clock play time tracking for backends without PlayTimer
	tracking   bool
	playStart  time.Time
	pausing    bool
	pauseStart time.Time
	total      time.Duration

	overlays  *overlayScheduler
	questions *questionScheduler
}

func newMediaPlayer(host mediaHost, opts Options) *MediaPlayer {
	return &MediaPlayer{
		sched:        opts.Scheduler,
		registry:     opts.Registry,
		env:          media.Env{Scheduler: opts.Scheduler, MediaDirectory: opts.Presentation.MediaDirectory},
		surface:      opts.Surface,
		host:         host,
		tickInterval: opts.TickInterval,
		feedback:     opts.AnswerFeedback,
		fade:         opts.QuestionFade,
		hub:          pubsub.New(),
		state:        StateStopped,
	}
}

// Events returns the hub carrying media_player_end.
func (m *MediaPlayer) Events() *pubsub.Hub { return m.hub }

// State returns the current state.
func (m *MediaPlayer) State() PlaybackState { return m.state }

// Current returns the adopted media item definition.
func (m *MediaPlayer) Current() *playlist.MediaItem { return m.def }

// Play adopts def when given and starts playback. It resumes when paused
// and warns when already playing.
func (m *MediaPlayer) Play(def *playlist.MediaItem) {
	if def != nil {
		m.use(def)
	}
	if m.def == nil {
		log.Error("media player: play called without a media item")
		return
	}

	switch m.state {
	case StatePlaying:
		log.WithField("media_id", m.def.ID).Warn("media player: play called while already playing")
		return
	case StatePaused:
		m.Resume()
		return
	}

	if m.item == nil {
		m.skipItem()
		return
	}

	if err := m.item.Play(); err != nil {
		m.report("load", err)
		return
	}

	m.state = StatePlaying
	m.track(StatePlaying)
	m.startTicking()
	metrics.MediaStarted.WithLabelValues(m.def.Type).Inc()
	emitEvent("media.started", m.fields())
}

// Pause pauses the backend and freezes play time.
func (m *MediaPlayer) Pause() {
	if m.state != StatePlaying {
		log.WithField("state", m.state).Warn("media player: pause called while not playing")
		return
	}
	m.state = StatePaused

	m.resumeItem = m.item.IsPlaying()
	if m.resumeItem {
		m.item.Pause()
	}
	m.track(StatePaused)
	m.stopTicking()
	m.questions.pause()
}

// Resume continues after Pause. The backend is restarted only if it was
// playing when paused.
func (m *MediaPlayer) Resume() {
	if m.state != StatePaused {
		log.WithField("state", m.state).Warn("media player: resume called while not paused")
		return
	}
	if m.resumeItem {
		if err := m.item.Play(); err != nil {
			m.report("load", err)
		}
	}
	m.state = StatePlaying
	m.track(StatePlaying)
	m.startTicking()
	m.questions.resume()
}

// Stop tears down playback. A second Stop only warns.
func (m *MediaPlayer) Stop() {
	if m.state == StateStopped && m.def == nil {
		log.Warn("media player: stop called while already stopped")
		return
	}
	m.reset()
}

// PlayTime returns how long the current item has played in this
// playthrough.
func (m *MediaPlayer) PlayTime() time.Duration {
	if pt, ok := m.item.(media.PlayTimer); ok {
		return pt.PlayTime()
	}
	if !m.tracking {
		return 0
	}
	now := m.sched.Now()
	var gap time.Duration
	if m.pausing {
		gap = now.Sub(m.pauseStart)
	}
	return now.Sub(m.playStart) - gap
}

// TotalPlayTime returns play time accumulated over repeats.
func (m *MediaPlayer) TotalPlayTime() time.Duration {
	return m.total + m.PlayTime()
}

func (m *MediaPlayer) use(def *playlist.MediaItem) {
	m.reset()
	m.def = def

	item, err := m.registry.New(def, m.env)
	if err != nil {
		m.report("integration", err)
	} else {
		m.item = item
		m.cancelEnded = item.OnEnded(m.handleEnded)
	}

	m.overlays = newOverlayScheduler(m.surface, def.Overlays, m.overlayClicked)
	m.questions = newQuestionScheduler(questionConfig{
		sched:    m.sched,
		surface:  m.surface,
		playTime: m.PlayTime,
		apply:    m.host.ApplyModifiers,
		feedback: m.feedback,
		fade:     m.fade,
	}, def.QuestionLists)
}

// reset returns to the initial stopped state without warnings.
func (m *MediaPlayer) reset() {
	if m.item != nil {
		if m.cancelEnded != nil {
			m.cancelEnded()
		}
		m.item.Stop()
	}
	if m.questions != nil {
		m.questions.reset()
	}
	if m.overlays != nil {
		m.overlays.reset()
	}
	m.stopTicking()
	if m.skip != nil {
		m.skip.Stop()
		m.skip = nil
	}

	m.def = nil
	m.item = nil
	m.cancelEnded = nil
	m.overlays = nil
	m.questions = nil
	m.tracking = false
	m.pausing = false
	m.total = 0
	m.ended = false
	m.resumeItem = false
	m.state = StateStopped
}

func (m *MediaPlayer) track(s PlaybackState) {
	now := m.sched.Now()
	switch s {
	case StatePlaying:
		if !m.tracking {
			m.tracking = true
			m.playStart = now
		} else if m.pausing {
			m.playStart = m.playStart.Add(now.Sub(m.pauseStart))
		}
		m.pausing = false
	case StatePaused:
		if !m.pausing {
			m.pausing = true
			m.pauseStart = now
		}
	}
}

func (m *MediaPlayer) startTicking() {
	m.stopTicking()
	m.tick = m.sched.AfterFunc(m.tickInterval, m.onTick)
}

func (m *MediaPlayer) stopTicking() {
	if m.tick != nil {
		m.tick.Stop()
		m.tick = nil
	}
}

func (m *MediaPlayer) onTick() {
	if m.state != StatePlaying {
		return
	}
	m.tick = m.sched.AfterFunc(m.tickInterval, m.onTick)
	metrics.Ticks.Inc()

	t := m.PlayTime()
	if !m.ended {
		m.overlays.update(t)
		m.questions.update(t)
	}
	if limit := m.def.Duration; limit != 0 && t >= limit {
		m.handleEnd("duration")
	}
}

func (m *MediaPlayer) handleEnded() {
	if m.state == StateStopped {
		return
	}
	m.handleEnd("ended")
}

// handleEnd runs when the backend finished or the duration limit passed.
func (m *MediaPlayer) handleEnd(cause string) {
	def := m.def
	m.ended = true
	metrics.MediaEnded.WithLabelValues(def.Type, cause).Inc()

	if def.Repeat {
		m.replay()
		return
	}

	m.stopTicking()
	m.item.Pause()
	fields := m.fields()
	fields["cause"] = cause
	emitEvent("media.ended", fields)

	if target, ok := ResolveBranch(def.LeadsTo, m.host).Get(); ok {
		m.host.GoTo(target)
		return
	}
	m.hub.Publish(TopicMediaPlayerEnd, def)
}

func (m *MediaPlayer) replay() {
	m.total += m.PlayTime()
	m.item.Stop()
	m.playStart = m.sched.Now()
	m.pausing = false
	if err := m.item.Play(); err != nil {
		m.report("load", err)
		return
	}
	fields := m.fields()
	fields["total_ms"] = m.total.Milliseconds()
	emitEvent("media.repeated", fields)
}

// skipItem passes over an item whose backend could not be created. The
// end is published from a fresh callback so the sequence advances outside
// the current call.
func (m *MediaPlayer) skipItem() {
	def := m.def
	emitEvent("media.skipped", m.fields())
	m.skip = m.sched.AfterFunc(0, func() {
		m.skip = nil
		if m.def != def {
			return
		}
		m.hub.Publish(TopicMediaPlayerEnd, def)
	})
}

func (m *MediaPlayer) overlayClicked(def *playlist.Overlay, v *view.OverlayView) {
	if m.state == StatePaused {
		m.overlays.arm(def, v)
		metrics.OverlayClicks.WithLabelValues("ignored").Inc()
		log.WithField("overlay", def.Index).Warn("overlay click ignored while paused")
		return
	}

	emitEvent("overlay.clicked", map[string]interface{}{
		"view_id":  v.ID(),
		"index":    def.Index,
		"media_id": m.def.ID,
	})
	m.host.ApplyModifiers(def.Modifiers)

	target, ok := ResolveBranch(def.LeadsTo, m.host).Get()
	if !ok {
		metrics.OverlayClicks.WithLabelValues("none").Inc()
		return
	}
	if playlist.IsURLTarget(target) {
		metrics.OverlayClicks.WithLabelValues("frame").Inc()
		if m.state == StatePlaying {
			m.host.Pause()
			m.overlays.arm(def, v)
		}
		m.host.OpenFrame(playlist.URLFromTarget(target))
		return
	}
	metrics.OverlayClicks.WithLabelValues("navigate").Inc()
	m.host.GoTo(target)
}

func (m *MediaPlayer) report(kind string, err error) {
	fields := m.fields()
	fields["kind"] = kind
	fields["error"] = err.Error()
	if errors.Is(err, media.ErrUnknownType) {
		fields["unknown_type"] = true
	}
	log.WithFields(log.Fields{"media_id": m.def.ID, "type": m.def.Type, "kind": kind}).WithError(err).Error("media backend failed")
	metrics.MediaErrors.WithLabelValues(m.def.Type, kind).Inc()
	emitError("media.error", "media backend failed", fields)
}

func (m *MediaPlayer) fields() map[string]interface{} {
	return map[string]interface{}{
		"media_id": m.def.ID,
		"type":     m.def.Type,
	}
}
