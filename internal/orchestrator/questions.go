package orchestrator

import (
	"sort"
	"strconv"
	"time"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/AaronLay10/SentientPlayer/internal/clock"
	"github.com/AaronLay10/SentientPlayer/internal/metrics"
	"github.com/AaronLay10/SentientPlayer/internal/playlist"
	"github.com/AaronLay10/SentientPlayer/internal/view"
)

// questionScheduler runs the question lists of one media item. Lists are
// queued when their start time is reached and played one at a time, FIFO.
type questionScheduler struct {
	questionConfig

	sorted   []*playlist.QuestionList
	nextList int
	queue    []*playlist.QuestionList
	current  *playlist.QuestionList
	nextQ    int
	active   *activeQuestion
	timers   []*clock.PausableTimer
	paused   bool
}

type activeQuestion struct {
	def   *playlist.Question
	view  *view.QuestionView
	endAt time.Duration
	ended bool
}

type questionConfig struct {
	sched    clock.Scheduler
	surface  view.Surface
	playTime func() time.Duration
	apply    func([]playlist.VariableModifier)
	feedback time.Duration
	fade     time.Duration
}

func newQuestionScheduler(cfg questionConfig, lists []*playlist.QuestionList) *questionScheduler {
	sorted := append([]*playlist.QuestionList(nil), lists...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	return &questionScheduler{questionConfig: cfg, sorted: sorted}
}

func (q *questionScheduler) update(t time.Duration) {
	for q.nextList < len(q.sorted) && q.sorted[q.nextList].Start <= t {
		q.queue = append(q.queue, q.sorted[q.nextList])
		q.nextList++
	}

	if a := q.active; a != nil && !a.ended && a.endAt != 0 && t >= a.endAt {
		q.expire(a)
	}

	if q.current == nil && len(q.queue) > 0 && t > 0 {
		q.current = q.queue[0]
		q.queue = q.queue[1:]
		q.nextQ = 0
		q.startNext(t)
	}
}

// startNext shows the next question of the current list, or ends the list.
func (q *questionScheduler) startNext(t time.Duration) {
	if q.nextQ >= len(q.current.Questions) {
		q.current = nil
		q.nextQ = 0
		return
	}
	def := q.current.Questions[q.nextQ]
	q.nextQ++

	limit := def.TimeLimit.OrElse(q.current.TimeLimit)
	var endAt time.Duration
	if limit > 0 {
		endAt = t + limit
	}

	a := &activeQuestion{def: def, view: view.NewQuestion(q.surface, def), endAt: endAt}
	a.view.OnAnswer(func(option string) { q.answered(a, option) })
	q.active = a
	a.view.Render()
}

// Answer submits option for the active question.
func (q *questionScheduler) Answer(option string) bool {
	a := q.active
	if a == nil || a.ended {
		log.WithField("option", option).Warn("answer ignored: no open question")
		return false
	}
	a.view.Answer(option)
	return true
}

func (q *questionScheduler) answered(a *activeQuestion, option string) {
	if a != q.active || a.ended {
		return
	}
	a.ended = true

	correct := option == a.def.Answer
	if correct {
		q.apply(a.def.Modifiers)
	}
	metrics.QuestionsAnswered.WithLabelValues(strconv.FormatBool(correct)).Inc()
	emitEvent("question.answered", map[string]interface{}{
		"view_id": a.view.ID(),
		"option":  option,
		"correct": correct,
	})

	q.after(q.feedback, func() {
		a.view.Hide()
		q.after(q.fade, func() { q.finish(a) })
	})
}

// expire hides an unanswered question whose time limit passed.
func (q *questionScheduler) expire(a *activeQuestion) {
	a.ended = true
	a.view.Hide()
	metrics.QuestionTimeouts.Inc()
	emitEvent("question.expired", map[string]interface{}{
		"view_id": a.view.ID(),
		"end_at":  a.endAt.Milliseconds(),
	})
	q.after(q.fade, func() { q.finish(a) })
}

func (q *questionScheduler) finish(a *activeQuestion) {
	if q.active != a {
		return
	}
	a.view.Destroy()
	q.active = nil
	if q.current != nil {
		q.startNext(q.playTime())
	}
}

func (q *questionScheduler) after(d time.Duration, fn func()) {
	t := clock.NewPausable(q.sched, d, fn)
	if q.paused {
		t.Pause()
	}
	q.timers = append(lo.Reject(q.timers, func(p *clock.PausableTimer, _ int) bool { return p.Done() }), t)
}

func (q *questionScheduler) pause() {
	q.paused = true
	for _, t := range q.timers {
		t.Pause()
	}
}

func (q *questionScheduler) resume() {
	q.paused = false
	for _, t := range q.timers {
		t.Resume()
	}
}

func (q *questionScheduler) activeView() (*view.QuestionView, bool) {
	if q.active == nil {
		return nil, false
	}
	return q.active.view, true
}

func (q *questionScheduler) reset() {
	for _, t := range q.timers {
		t.Stop()
	}
	q.timers = nil
	if q.active != nil {
		q.active.view.Destroy()
		q.active = nil
	}
	q.queue = nil
	q.current = nil
	q.nextList = 0
	q.nextQ = 0
	q.paused = false
}
