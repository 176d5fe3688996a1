package view

import "sync"

// Recorder is a Surface that remembers what is on screen. It backs
// headless runs and tests.
type Recorder struct {
	mu        sync.Mutex
	overlays  map[string]*OverlayView
	questions map[string]*QuestionView
	frames    map[string]*FrameView
	Log       []string
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		overlays:  make(map[string]*OverlayView),
		questions: make(map[string]*QuestionView),
		frames:    make(map[string]*FrameView),
	}
}

func (r *Recorder) record(entry string) {
	r.Log = append(r.Log, entry)
}

func (r *Recorder) ShowOverlay(v *OverlayView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overlays[v.ID()] = v
	r.record("overlay.show")
}

func (r *Recorder) HideOverlay(v *OverlayView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.overlays, v.ID())
	r.record("overlay.hide")
}

func (r *Recorder) ShowQuestion(v *QuestionView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.questions[v.ID()] = v
	r.record("question.show")
}

func (r *Recorder) HideQuestion(v *QuestionView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("question.hide")
}

func (r *Recorder) RemoveQuestion(v *QuestionView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.questions, v.ID())
	r.record("question.remove")
}

func (r *Recorder) OpenFrame(v *FrameView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames[v.ID()] = v
	r.record("frame.open")
}

func (r *Recorder) CloseFrame(v *FrameView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.frames, v.ID())
	r.record("frame.close")
}

// Overlays returns the overlays currently shown.
func (r *Recorder) Overlays() []*OverlayView {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*OverlayView, 0, len(r.overlays))
	for _, v := range r.overlays {
		out = append(out, v)
	}
	return out
}

// Questions returns the questions currently shown.
func (r *Recorder) Questions() []*QuestionView {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*QuestionView, 0, len(r.questions))
	for _, v := range r.questions {
		out = append(out, v)
	}
	return out
}

// Frames returns the frames currently open.
func (r *Recorder) Frames() []*FrameView {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*FrameView, 0, len(r.frames))
	for _, v := range r.frames {
		out = append(out, v)
	}
	return out
}
