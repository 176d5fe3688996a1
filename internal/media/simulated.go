package media

import (
	"fmt"
	"strconv"
	"time"

	"github.com/AaronLay10/SentientPlayer/internal/clock"
	"github.com/AaronLay10/SentientPlayer/internal/playlist"
)

// Clip is a simulated backend of fixed length. It ends by itself once it
// has played for its length and keeps its own play time.
type Clip struct {
	Base
	sched   clock.Scheduler
	length  time.Duration
	elapsed time.Duration
	started time.Time
	timer   clock.Timer
	// FailLoad makes Play report a load failure.
	FailLoad bool
}

// NewClip returns a clip of the given length driven by s.
func NewClip(s clock.Scheduler, length time.Duration) *Clip {
	return &Clip{sched: s, length: length}
}

func (c *Clip) Play() error {
	if c.FailLoad {
		return fmt.Errorf("clip: resource unavailable")
	}
	if c.IsPlaying() {
		return nil
	}
	c.started = c.sched.Now()
	c.timer = c.sched.AfterFunc(c.length-c.elapsed, c.finish)
	c.SetState(StatePlaying)
	return nil
}

func (c *Clip) Pause() {
	if !c.IsPlaying() {
		return
	}
	c.timer.Stop()
	c.elapsed += c.sched.Now().Sub(c.started)
	c.SetState(StatePaused)
}

func (c *Clip) Stop() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.elapsed = 0
	c.SetState(StateStopped)
}

// PlayTime returns how far into the clip playback is.
func (c *Clip) PlayTime() time.Duration {
	if c.IsPlaying() {
		return c.elapsed + c.sched.Now().Sub(c.started)
	}
	return c.elapsed
}

func (c *Clip) finish() {
	c.elapsed = c.length
	c.SetState(StatePaused)
	c.Ended()
}

// Still is a simulated backend that never ends by itself, like an image.
// The engine times it from the wall clock.
type Still struct {
	Base
}

func (s *Still) Play() error {
	s.SetState(StatePlaying)
	return nil
}

func (s *Still) Pause() { s.SetState(StatePaused) }
func (s *Still) Stop()  { s.SetState(StateStopped) }

// ClipFactory builds Clip backends. The clip length comes from the item's
// "length" attribute in seconds, falling back to fallback.
func ClipFactory(fallback time.Duration) Factory {
	return func(def *playlist.MediaItem, env Env) (Item, error) {
		length := fallback
		if raw, ok := def.Attributes["length"]; ok {
			secs, err := strconv.ParseFloat(raw, 64)
			if err != nil || secs <= 0 {
				return nil, fmt.Errorf("invalid length %q", raw)
			}
			length = time.Duration(secs * float64(time.Second))
		}
		return NewClip(env.Scheduler, length), nil
	}
}

// StillFactory builds Still backends.
func StillFactory(def *playlist.MediaItem, env Env) (Item, error) {
	return &Still{}, nil
}

// SimulatedRegistry registers simulated backends for the usual media tags.
func SimulatedRegistry(clipLength time.Duration) *Registry {
	r := NewRegistry()
	for _, tag := range []string{"video", "audio", "youtube", "vimeo"} {
		r.Register(tag, ClipFactory(clipLength))
	}
	for _, tag := range []string{"image", "iframe", "message", "terminal"} {
		r.Register(tag, StillFactory)
	}
	return r
}
