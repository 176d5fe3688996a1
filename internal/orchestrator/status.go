package orchestrator

import (
	"github.com/samber/lo"

	"github.com/AaronLay10/SentientPlayer/internal/view"
)

// Status is a point-in-time view of the player for remote clients.
type Status struct {
	State     PlaybackState     `json:"state"`
	Subject   string            `json:"subject,omitempty"`
	Location  string            `json:"location,omitempty"`
	MediaID   int               `json:"media_id,omitempty"`
	MediaType string            `json:"media_type,omitempty"`
	PlayTime  int64             `json:"play_time_ms"`
	Variables map[string]string `json:"variables"`
	Overlays  []string          `json:"overlays,omitempty"`
	Question  string            `json:"question,omitempty"`
	Frames    []string          `json:"frames,omitempty"`
}

// Status returns the current status.
func (p *Player) Status() Status {
	st := Status{
		State:     p.state,
		Subject:   p.CurrentSubject(),
		Location:  p.history.Location(),
		Variables: p.vars.Snapshot(),
		Frames:    lo.Map(p.frames, func(f *view.FrameView, _ int) string { return f.ID() }),
	}
	if def := p.media.Current(); def != nil {
		st.MediaID = def.ID
		st.MediaType = def.Type
		st.PlayTime = p.media.TotalPlayTime().Milliseconds()
	}
	if o := p.media.overlays; o != nil {
		st.Overlays = lo.Map(o.views(), func(v *view.OverlayView, _ int) string { return v.ID() })
	}
	if q := p.media.questions; q != nil {
		if v, ok := q.activeView(); ok && !v.Hidden() {
			st.Question = v.ID()
		}
	}
	return st
}
