package playlist

import (
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// UnknownSubjectError is returned when a navigation target names no subject.
type UnknownSubjectError struct {
	ID         string
	Suggestion string
}

func (e *UnknownSubjectError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown subject %q (did you mean %q?)", e.ID, e.Suggestion)
	}
	return fmt.Sprintf("unknown subject %q", e.ID)
}

// Lookup returns the subject with the given id or an *UnknownSubjectError
// carrying the closest known id.
func (d *Document) Lookup(id string) (*Subject, error) {
	if s, ok := d.Subjects[id]; ok {
		return s, nil
	}
	return nil, &UnknownSubjectError{ID: id, Suggestion: Suggest(id, d.SubjectIDs())}
}

// Suggest returns the candidate closest to id, or "" when none is close.
func Suggest(id string, candidates []string) string {
	if id == "" || len(candidates) == 0 {
		return ""
	}

	ranks := fuzzy.RankFindNormalizedFold(id, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	best, bestDist := "", -1
	for _, c := range candidates {
		d := fuzzy.LevenshteinDistance(id, c)
		if bestDist < 0 || d < bestDist || (d == bestDist && c < best) {
			best, bestDist = c, d
		}
	}
	// More than half the characters wrong is not a typo.
	if bestDist > len(id)/2 {
		return ""
	}
	return best
}
