package orchestrator

import (
	"math"

	log "github.com/sirupsen/logrus"

	"github.com/AaronLay10/SentientPlayer/internal/metrics"
	"github.com/AaronLay10/SentientPlayer/internal/playlist"
)

// Gesture is a pan gesture sample. DX and DY are the displacement since
// the gesture started, Velocity the current speed. Final marks the sample
// where the finger was lifted.
type Gesture struct {
	DX       float64 `json:"dx"`
	DY       float64 `json:"dy"`
	Velocity float64 `json:"velocity"`
	Final    bool    `json:"final"`
}

// SwipeOutcome describes what a gesture sample did.
type SwipeOutcome string

const (
	SwipeIgnored   SwipeOutcome = "ignored"
	SwipeCandidate SwipeOutcome = "candidate"
	SwipeCancelled SwipeOutcome = "cancelled"
	SwipeNavigated SwipeOutcome = "navigated"
)

// SwipeResult is the outcome of Swipe. It is also the swipe event payload.
type SwipeResult struct {
	Outcome   SwipeOutcome            `json:"outcome"`
	Direction playlist.SwipeDirection `json:"direction,omitempty"`
	Target    string                  `json:"target,omitempty"`
}

// Swipe handles a gesture sample against the current subject's swipe
// rules. Only a final sample that is fast and long enough navigates.
func (p *Player) Swipe(g Gesture) SwipeResult {
	if p.state != StatePlaying || p.current == nil {
		log.WithField("state", p.state).Warn("swipe ignored while not playing")
		return SwipeResult{Outcome: SwipeIgnored}
	}

	h := playlist.SwipeLeft
	if g.DX > 0 {
		h = playlist.SwipeRight
	}
	v := playlist.SwipeUp
	if g.DY > 0 {
		v = playlist.SwipeDown
	}
	hRule, hasH := p.current.SwipeRule(h)
	vRule, hasV := p.current.SwipeRule(v)
	if !hasH && !hasV {
		return SwipeResult{Outcome: SwipeCancelled}
	}

	dir, rule, translate := v, vRule, g.DY
	if (hasH && hasV && math.Abs(g.DX) > math.Abs(g.DY)) || !hasV {
		dir, rule, translate = h, hRule, g.DX
	}

	res := SwipeResult{Outcome: SwipeCandidate, Direction: dir}
	if !g.Final {
		return res
	}

	pres := p.opts.Presentation
	if math.Abs(g.Velocity) < pres.MinimumSwipeVelocity || math.Abs(translate) < pres.MinimumSwipeTranslation {
		return p.cancelSwipe(res, "below threshold")
	}
	target, ok := ResolveBranch([]playlist.BranchRule{rule}, p.vars).Get()
	if !ok {
		return p.cancelSwipe(res, "rule did not resolve")
	}

	p.GoTo(target)
	res.Outcome = SwipeNavigated
	res.Target = target
	metrics.Swipes.WithLabelValues(string(dir), string(SwipeNavigated)).Inc()
	emitEvent("swipe.navigated", map[string]interface{}{
		"direction": string(dir),
		"target":    target,
		"subject":   p.current.ID,
	})
	p.hub.Publish(TopicSwipe, res)
	return res
}

func (p *Player) cancelSwipe(res SwipeResult, reason string) SwipeResult {
	res.Outcome = SwipeCancelled
	metrics.Swipes.WithLabelValues(string(res.Direction), string(SwipeCancelled)).Inc()
	emitEvent("swipe.cancelled", map[string]interface{}{
		"direction": string(res.Direction),
		"reason":    reason,
	})
	return res
}
