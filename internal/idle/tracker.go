// Package idle resets an unattended presentation back to its start.
package idle

import (
	"fmt"
	"regexp"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/AaronLay10/SentientPlayer/internal/clock"
	"github.com/AaronLay10/SentientPlayer/internal/config"
	"github.com/AaronLay10/SentientPlayer/internal/events"
	"github.com/AaronLay10/SentientPlayer/internal/metrics"
	"github.com/AaronLay10/SentientPlayer/internal/orchestrator"
	"github.com/AaronLay10/SentientPlayer/internal/playlist"
	"github.com/AaronLay10/SentientPlayer/internal/pubsub"
)

// activityThrottle is the minimum spacing between counted activities.
const activityThrottle = time.Second

// Rule overrides the idle limit while the current subject matches Pattern.
// With Pause set the countdown is suspended instead.
type Rule struct {
	Pattern *regexp.Regexp
	Limit   time.Duration
	Pause   bool
}

// Options configures a Tracker.
type Options struct {
	Limit time.Duration
	Tick  time.Duration
	Rules []Rule
}

// OptionsFromConfig builds tracker options from engine.yaml.
func OptionsFromConfig(cfg *config.EngineConfig) (Options, error) {
	opts := Options{Limit: cfg.IdleLimit(), Tick: cfg.IdleTick()}
	for i, r := range cfg.Idle.Rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return Options{}, fmt.Errorf("idle rule %d: %w", i, err)
		}
		opts.Rules = append(opts.Rules, Rule{
			Pattern: re,
			Limit:   time.Duration(r.LimitSeconds) * time.Second,
			Pause:   r.Pause,
		})
	}
	return opts, nil
}

// Player is what the tracker watches and resets.
type Player interface {
	Events() *pubsub.Hub
	Stop()
	Play()
}

// Tracker counts idle time from the last activity and resets the player
// (stop, then play) once the limit for the current subject is reached.
// The countdown starts with the first activity and stops after a reset.
// All methods must be called from the engine loop.
type Tracker struct {
	sched  clock.Scheduler
	player Player
	opts   Options

	subject      string
	idle         time.Duration
	timer        clock.Timer
	reset        clock.Timer
	paused       bool
	lastActivity time.Time
	seen         bool
	tokens       map[string]pubsub.Token
}

// New creates a tracker and subscribes it to the player's runtime events.
func New(s clock.Scheduler, p Player, opts Options) *Tracker {
	if opts.Limit <= 0 {
		opts.Limit = 600 * time.Second
	}
	if opts.Tick <= 0 {
		opts.Tick = time.Second
	}
	t := &Tracker{sched: s, player: p, opts: opts}

	hub := p.Events()
	t.tokens = map[string]pubsub.Token{
		orchestrator.TopicSwipe:      hub.Subscribe(orchestrator.TopicSwipe, func(any) { t.Activity() }),
		orchestrator.TopicIframeOpen: hub.Subscribe(orchestrator.TopicIframeOpen, func(any) { t.Activity() }),
		orchestrator.TopicSubjectPlaying: hub.Subscribe(orchestrator.TopicSubjectPlaying, func(payload any) {
			if s, ok := payload.(*playlist.Subject); ok {
				t.subject = s.ID
			}
		}),
	}
	return t
}

// Activity records user activity. Calls closer than one second to the
// previous counted activity are dropped.
func (t *Tracker) Activity() {
	now := t.sched.Now()
	if t.seen && now.Sub(t.lastActivity) < activityThrottle {
		return
	}
	t.seen = true
	t.lastActivity = now

	t.stopTimer()
	t.idle = 0
	t.tick()
}

// Idle returns the idle time counted so far.
func (t *Tracker) Idle() time.Duration {
	return t.idle
}

// Running reports whether the countdown is active.
func (t *Tracker) Running() bool {
	return t.timer != nil
}

// Close stops the countdown and unsubscribes from the player.
func (t *Tracker) Close() {
	t.stopTimer()
	if t.reset != nil {
		t.reset.Stop()
		t.reset = nil
	}
	hub := t.player.Events()
	for topic, token := range t.tokens {
		hub.Unsubscribe(topic, token)
	}
	t.tokens = nil
}

// limit returns the idle limit for the current subject and whether the
// countdown is suspended. Later matching rules win.
func (t *Tracker) limit() (time.Duration, bool) {
	limit := t.opts.Limit
	paused := false
	for _, r := range t.opts.Rules {
		if t.subject == "" || !r.Pattern.MatchString(t.subject) {
			continue
		}
		if r.Limit > 0 {
			limit = r.Limit
		}
		if r.Pause {
			paused = true
		}
	}
	return limit, paused
}

func (t *Tracker) tick() {
	t.timer = nil
	limit, paused := t.limit()

	if paused {
		if !t.paused {
			metrics.IdleResets.WithLabelValues("pause").Inc()
			events.Emit("info", "idle.paused", "", map[string]interface{}{
				"subject": t.subject,
			})
		}
		t.paused = true
		// Counting starts over once the subject no longer matches.
		t.idle = 0
		t.timer = t.sched.AfterFunc(t.opts.Tick, t.tick)
		return
	}
	t.paused = false

	if t.idle >= limit {
		t.resetPlayer(limit)
		return
	}
	t.timer = t.sched.AfterFunc(t.opts.Tick, t.tick)
	t.idle += t.opts.Tick
}

func (t *Tracker) resetPlayer(limit time.Duration) {
	log.WithFields(log.Fields{
		"subject": t.subject,
		"idle":    t.idle,
		"limit":   limit,
	}).Info("idle limit reached, resetting presentation")
	metrics.IdleResets.WithLabelValues("reset").Inc()
	events.Emit("info", "idle.reset", "", map[string]interface{}{
		"subject":       t.subject,
		"idle_seconds":  t.idle.Seconds(),
		"limit_seconds": limit.Seconds(),
	})

	t.stopTimer()
	t.idle = 0
	t.reset = t.sched.AfterFunc(0, func() {
		t.reset = nil
		t.player.Stop()
		t.player.Play()
	})
}

func (t *Tracker) stopTimer() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
