package orchestrator

import (
	"github.com/samber/mo"

	"github.com/AaronLay10/SentientPlayer/internal/playlist"
)

// Evaluator decides branch conditions.
type Evaluator interface {
	Evaluate(condition string) bool
}

// ResolveBranch returns the target of the first conditional rule whose
// condition holds, else the last unconditional rule, else None. Empty
// targets resolve to None.
func ResolveBranch(rules []playlist.BranchRule, ev Evaluator) mo.Option[string] {
	fallback := ""
	for _, r := range rules {
		if !r.Conditional() {
			fallback = r.Subject
			continue
		}
		if ev.Evaluate(r.Condition) {
			return someTarget(r.Subject)
		}
	}
	return someTarget(fallback)
}

func someTarget(target string) mo.Option[string] {
	if target == "" {
		return mo.None[string]()
	}
	return mo.Some(target)
}
