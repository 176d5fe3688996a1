package orchestrator

import (
	"errors"
	"fmt"
)

// ErrUnknownAction is returned by Execute for an unsupported action.
var ErrUnknownAction = errors.New("unknown action")

// Command is a control request from the HTTP API or MQTT.
type Command struct {
	Action  string   `json:"action"`
	Subject string   `json:"subject,omitempty"`
	ViewID  string   `json:"view_id,omitempty"`
	Option  string   `json:"option,omitempty"`
	Gesture *Gesture `json:"gesture,omitempty"`
}

// IsInput reports whether the command is audience input, which counts as
// activity for the idle tracker.
func (c Command) IsInput() bool {
	switch c.Action {
	case "swipe", "answer", "click", "close_frame", "activity":
		return true
	}
	return false
}

// Execute runs c against the player. The result is the swipe outcome for
// swipe commands and the status otherwise.
func (p *Player) Execute(c Command) (interface{}, error) {
	switch c.Action {
	case "play":
		p.Play()
	case "pause":
		p.Pause()
	case "resume":
		p.Resume()
	case "stop":
		p.Stop()
	case "goto":
		if c.Subject == "" {
			return nil, errors.New("goto: subject is required")
		}
		if _, err := p.doc.Lookup(c.Subject); err != nil {
			return nil, err
		}
		if p.state == StateStopped {
			p.setState(StatePlaying)
			emitEvent("player.play", map[string]interface{}{"location": c.Subject})
		}
		p.GoTo(c.Subject)
	case "back":
		p.Back()
	case "swipe":
		if c.Gesture == nil {
			return nil, errors.New("swipe: gesture is required")
		}
		return p.Swipe(*c.Gesture), nil
	case "answer":
		if err := p.Answer(c.Option); err != nil {
			return nil, err
		}
	case "click":
		if err := p.ClickOverlay(c.ViewID); err != nil {
			return nil, err
		}
	case "close_frame":
		if err := p.CloseFrame(c.ViewID); err != nil {
			return nil, err
		}
	case "activity":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, c.Action)
	}
	return p.Status(), nil
}
