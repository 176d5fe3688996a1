package events

import "fmt"

var allowedEvents = map[string]struct{}{
	// player
	"player.play":   {},
	"player.pause":  {},
	"player.resume": {},
	"player.stop":   {},
	"player.end":    {},

	// subject
	"subject.playing": {},

	// navigation
	"navigation.goto":            {},
	"navigation.back":            {},
	"navigation.unknown_subject": {},

	// media
	"media.started":  {},
	"media.ended":    {},
	"media.repeated": {},
	"media.skipped":  {},
	"media.error":    {},

	// overlay
	"overlay.shown":   {},
	"overlay.hidden":  {},
	"overlay.clicked": {},

	// question
	"question.shown":    {},
	"question.answered": {},
	"question.expired":  {},
	"question.hidden":   {},
	"question.removed":  {},

	// variables
	"variable.updated": {},

	// swipe
	"swipe.navigated": {},
	"swipe.cancelled": {},

	// frame
	"frame.opened": {},
	"frame.closed": {},

	// idle
	"idle.reset":  {},
	"idle.paused": {},

	// remote
	"remote.command": {},
	"remote.error":   {},

	// system
	"system.startup":         {},
	"system.startup_restore": {},
	"system.shutdown":        {},
	"system.error":           {},
}

func Validate(event string) error {
	if _, ok := allowedEvents[event]; !ok {
		return fmt.Errorf("unknown event: %s", event)
	}
	return nil
}
