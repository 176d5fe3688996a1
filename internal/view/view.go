// Package view holds the engine-side halves of the things a presentation
// surface draws: overlays, questions and embedded frames.
//
// Each view owns its own event hub. Rendering itself is delegated to a
// Surface.
package view

import (
	"github.com/google/uuid"

	"github.com/AaronLay10/SentientPlayer/internal/playlist"
	"github.com/AaronLay10/SentientPlayer/internal/pubsub"
)

// Topics published on view hubs.
const (
	TopicClick  = "click"
	TopicAnswer = "answer"
	TopicClose  = "close"
)

// Lifecycle is implemented by every view.
type Lifecycle interface {
	ID() string
	Attach()
	Detach()
	Render()
	Destroy()
	Events() *pubsub.Hub
}

// Surface draws views. Calls arrive on the engine goroutine.
type Surface interface {
	ShowOverlay(v *OverlayView)
	HideOverlay(v *OverlayView)
	ShowQuestion(v *QuestionView)
	HideQuestion(v *QuestionView)
	RemoveQuestion(v *QuestionView)
	OpenFrame(v *FrameView)
	CloseFrame(v *FrameView)
}

type lifecycle struct {
	id        string
	hub       *pubsub.Hub
	attached  bool
	rendered  bool
	destroyed bool
}

func newLifecycle() lifecycle {
	return lifecycle{id: uuid.NewString(), hub: pubsub.New()}
}

func (l *lifecycle) ID() string          { return l.id }
func (l *lifecycle) Events() *pubsub.Hub { return l.hub }
func (l *lifecycle) Attach()             { l.attached = true }
func (l *lifecycle) Detach()             { l.attached = false }

// Destroyed reports whether the view has been torn down.
func (l *lifecycle) Destroyed() bool { return l.destroyed }

// OverlayView is a clickable region over a media item.
type OverlayView struct {
	lifecycle
	surface Surface
	Def     *playlist.Overlay
}

// NewOverlay creates the view for def.
func NewOverlay(s Surface, def *playlist.Overlay) *OverlayView {
	return &OverlayView{lifecycle: newLifecycle(), surface: s, Def: def}
}

func (v *OverlayView) Render() {
	if v.destroyed || v.rendered {
		return
	}
	v.Attach()
	v.rendered = true
	v.surface.ShowOverlay(v)
}

func (v *OverlayView) Destroy() {
	if v.destroyed {
		return
	}
	v.destroyed = true
	if v.rendered {
		v.surface.HideOverlay(v)
	}
	v.Detach()
	v.hub.Reset()
}

// OnOneClick runs fn on the next click only.
func (v *OverlayView) OnOneClick(fn func()) {
	v.hub.Once(TopicClick, func(any) { fn() })
}

// Click delivers a click from the surface.
func (v *OverlayView) Click() {
	if v.destroyed {
		return
	}
	v.hub.Publish(TopicClick, nil)
}

// QuestionView shows one question and collects its answer.
type QuestionView struct {
	lifecycle
	surface Surface
	Def     *playlist.Question
	hidden  bool
}

// NewQuestion creates the view for def.
func NewQuestion(s Surface, def *playlist.Question) *QuestionView {
	return &QuestionView{lifecycle: newLifecycle(), surface: s, Def: def}
}

func (v *QuestionView) Render() {
	if v.destroyed || v.rendered {
		return
	}
	v.Attach()
	v.rendered = true
	v.surface.ShowQuestion(v)
}

// Hide starts fading the question out; it no longer accepts answers.
func (v *QuestionView) Hide() {
	if v.destroyed || v.hidden {
		return
	}
	v.hidden = true
	v.surface.HideQuestion(v)
}

// Hidden reports whether the question is fading or gone.
func (v *QuestionView) Hidden() bool {
	return v.hidden || v.destroyed
}

func (v *QuestionView) Destroy() {
	if v.destroyed {
		return
	}
	v.destroyed = true
	if v.rendered {
		v.surface.RemoveQuestion(v)
	}
	v.Detach()
	v.hub.Reset()
}

// Answer delivers the chosen option name from the surface.
func (v *QuestionView) Answer(option string) {
	if v.Hidden() {
		return
	}
	v.hub.Publish(TopicAnswer, option)
}

// OnAnswer runs fn with every answer given.
func (v *QuestionView) OnAnswer(fn func(option string)) {
	v.hub.Subscribe(TopicAnswer, func(p any) {
		option, _ := p.(string)
		fn(option)
	})
}

// FrameView presents an external page over the player.
type FrameView struct {
	lifecycle
	surface Surface
	URL     string
}

// NewFrame creates a frame view for url.
func NewFrame(s Surface, url string) *FrameView {
	return &FrameView{lifecycle: newLifecycle(), surface: s, URL: url}
}

func (v *FrameView) Render() {
	if v.destroyed || v.rendered {
		return
	}
	v.Attach()
	v.rendered = true
	v.surface.OpenFrame(v)
}

// OnClose runs fn once when the frame is closed.
func (v *FrameView) OnClose(fn func()) {
	v.hub.Once(TopicClose, func(any) { fn() })
}

// Close is the frame's close action.
func (v *FrameView) Close() {
	if v.destroyed {
		return
	}
	v.hub.Publish(TopicClose, v.URL)
	v.Destroy()
}

func (v *FrameView) Destroy() {
	if v.destroyed {
		return
	}
	v.destroyed = true
	if v.rendered {
		v.surface.CloseFrame(v)
	}
	v.Detach()
	v.hub.Reset()
}
