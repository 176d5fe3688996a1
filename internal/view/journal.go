package view

import (
	"github.com/AaronLay10/SentientPlayer/internal/events"
)

// JournalSurface renders by emitting journal events. A kiosk client draws
// from the event stream and posts clicks and answers back by view id.
type JournalSurface struct{}

func (JournalSurface) ShowOverlay(v *OverlayView) {
	d := v.Def
	events.Emit("info", "overlay.shown", "", map[string]interface{}{
		"view_id":     v.ID(),
		"index":       d.Index,
		"shape":       d.Shape,
		"x":           d.X,
		"y":           d.Y,
		"width":       d.Width,
		"height":      d.Height,
		"side":        d.Side,
		"diameter":    d.Diameter,
		"text":        d.Text,
		"description": d.Description,
		"style":       d.Style,
	})
}

func (JournalSurface) HideOverlay(v *OverlayView) {
	events.Emit("info", "overlay.hidden", "", map[string]interface{}{
		"view_id": v.ID(),
	})
}

func (JournalSurface) ShowQuestion(v *QuestionView) {
	options := make([]map[string]string, 0, len(v.Def.Options))
	for _, o := range v.Def.Options {
		options = append(options, map[string]string{"name": o.Name, "text": o.Text})
	}
	events.Emit("info", "question.shown", "", map[string]interface{}{
		"view_id": v.ID(),
		"text":    v.Def.Text,
		"options": options,
	})
}

func (JournalSurface) HideQuestion(v *QuestionView) {
	events.Emit("info", "question.hidden", "", map[string]interface{}{
		"view_id": v.ID(),
	})
}

func (JournalSurface) RemoveQuestion(v *QuestionView) {
	events.Emit("info", "question.removed", "", map[string]interface{}{
		"view_id": v.ID(),
	})
}

func (JournalSurface) OpenFrame(v *FrameView) {
	events.Emit("info", "frame.opened", "", map[string]interface{}{
		"view_id": v.ID(),
		"url":     v.URL,
	})
}

func (JournalSurface) CloseFrame(v *FrameView) {
	events.Emit("info", "frame.closed", "", map[string]interface{}{
		"view_id": v.ID(),
		"url":     v.URL,
	})
}
