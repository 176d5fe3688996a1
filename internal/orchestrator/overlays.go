package orchestrator

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/AaronLay10/SentientPlayer/internal/playlist"
	"github.com/AaronLay10/SentientPlayer/internal/view"
)

// overlayScheduler shows and expires the overlays of one media item.
type overlayScheduler struct {
	surface view.Surface
	sorted  []*playlist.Overlay
	next    int
	playing []*playingOverlay
	onClick func(def *playlist.Overlay, v *view.OverlayView)
}

type playingOverlay struct {
	def  *playlist.Overlay
	view *view.OverlayView
	end  time.Duration
}

func newOverlayScheduler(s view.Surface, overlays []*playlist.Overlay, onClick func(*playlist.Overlay, *view.OverlayView)) *overlayScheduler {
	sorted := append([]*playlist.Overlay(nil), overlays...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].Index < sorted[j].Index
		}
		return sorted[i].Start < sorted[j].Start
	})
	return &overlayScheduler{surface: s, sorted: sorted, onClick: onClick}
}

// update expires overlays past their end and starts those whose start
// time has been reached. Nothing starts at t == 0.
func (o *overlayScheduler) update(t time.Duration) {
	o.playing = lo.Filter(o.playing, func(p *playingOverlay, _ int) bool {
		if p.end != 0 && t >= p.end {
			p.view.Destroy()
			return false
		}
		return true
	})

	for o.next < len(o.sorted) {
		def := o.sorted[o.next]
		if def.Start > t || t == 0 {
			break
		}
		v := view.NewOverlay(o.surface, def)
		v.Render()
		o.arm(def, v)
		o.playing = append(o.playing, &playingOverlay{def: def, view: v, end: def.End()})
		o.next++
	}
}

// arm registers the one-shot click handler.
func (o *overlayScheduler) arm(def *playlist.Overlay, v *view.OverlayView) {
	v.OnOneClick(func() { o.onClick(def, v) })
}

func (o *overlayScheduler) find(viewID string) (*view.OverlayView, bool) {
	p, ok := lo.Find(o.playing, func(p *playingOverlay) bool { return p.view.ID() == viewID })
	if !ok {
		return nil, false
	}
	return p.view, true
}

func (o *overlayScheduler) views() []*view.OverlayView {
	return lo.Map(o.playing, func(p *playingOverlay, _ int) *view.OverlayView { return p.view })
}

func (o *overlayScheduler) reset() {
	for _, p := range o.playing {
		p.view.Destroy()
	}
	o.playing = nil
	o.next = 0
}
