// Package playlist holds the presentation document model and its XML parser.
//
// Definitions are immutable once parsed and are shared by pointer between
// the players.
package playlist

import (
	"strings"
	"time"

	"github.com/samber/mo"
)

// Document is a parsed playlist.
type Document struct {
	Subjects     map[string]*Subject
	Media        []*MediaItem
	FirstSubject string
	Modifiers    []VariableModifier
	Config       *ConfigSection
}

// Subject returns the subject with the given id.
func (d *Document) Subject(id string) (*Subject, bool) {
	s, ok := d.Subjects[id]
	return s, ok
}

// SubjectIDs returns every subject id, in no particular order.
func (d *Document) SubjectIDs() []string {
	ids := make([]string, 0, len(d.Subjects))
	for id := range d.Subjects {
		ids = append(ids, id)
	}
	return ids
}

// SwipeDirection names one of the four swipe gestures.
type SwipeDirection string

const (
	SwipeLeft  SwipeDirection = "swipeleft"
	SwipeRight SwipeDirection = "swiperight"
	SwipeUp    SwipeDirection = "swipeup"
	SwipeDown  SwipeDirection = "swipedown"
)

// Subject is a top-level playable scene.
type Subject struct {
	ID          string
	Description string
	Sequence    *Sequence
	LeadsTo     []BranchRule
	Swipe       map[SwipeDirection]BranchRule
	Modifiers   []VariableModifier
}

// SwipeRule returns the rule configured for direction, if any.
func (s *Subject) SwipeRule(direction SwipeDirection) (BranchRule, bool) {
	r, ok := s.Swipe[direction]
	return r, ok
}

// Node is an element of a playback tree: *MediaItem, *Sequence or *Parallel.
type Node interface {
	node()
}

// Sequence plays its items one after another.
type Sequence struct {
	Order string
	Items []Node
}

// Parallel groups items meant to play at the same time.
type Parallel struct {
	Items []Node
}

func (*Sequence) node()  {}
func (*Parallel) node()  {}
func (*MediaItem) node() {}

// MediaItem is a single playable asset with its timing and branching data.
type MediaItem struct {
	ID            int
	Type          string
	Description   string
	Duration      time.Duration
	Repeat        bool
	Overlays      []*Overlay
	QuestionLists []*QuestionList
	LeadsTo       []BranchRule
	Modifiers     []VariableModifier
	Attributes    map[string]string
	Elements      []Element
}

// Element is a custom child element passed through to the media backend.
type Element struct {
	Name       string
	Attributes map[string]string
	Text       string
}

// Overlay is a time-windowed clickable region shown over a media item.
type Overlay struct {
	Index       int
	Start       time.Duration
	Duration    time.Duration
	Shape       string
	X           int
	Y           int
	Width       int
	Height      int
	Side        int
	Diameter    int
	Text        string
	Description string

	// Style holds presentation attributes (alpha, colours, fonts, images)
	// exactly as declared; the surface applies its own defaults.
	Style map[string]string

	WaitForMediaComplete bool

	LeadsTo   []BranchRule
	Modifiers []VariableModifier
}

// End returns the play time at which the overlay is removed; zero means it
// stays until the media item stops.
func (o *Overlay) End() time.Duration {
	if o.Duration > 0 {
		return o.Start + o.Duration
	}
	return 0
}

// QuestionList is a group of questions asked one after another.
type QuestionList struct {
	Start     time.Duration
	TimeLimit time.Duration
	Questions []*Question
}

// Question is a timed quiz prompt.
type Question struct {
	Text      string
	Answer    string
	TimeLimit mo.Option[time.Duration]
	Options   []Option
	Modifiers []VariableModifier
}

// Option is one answer choice of a question.
type Option struct {
	Name string
	Text string
}

// BranchRule maps an optional condition to a target subject.
type BranchRule struct {
	Subject   string
	Condition string
}

// Conditional reports whether the rule carries a condition.
func (r BranchRule) Conditional() bool {
	return r.Condition != ""
}

// Operation is a variable modifier operation.
type Operation string

const (
	OpSet      Operation = "set"
	OpAdd      Operation = "add"
	OpSubtract Operation = "subtract"
	OpMultiply Operation = "multiply"
	OpDivide   Operation = "divide"
	OpPower    Operation = "power"
)

// VariableModifier changes a named variable when applied.
type VariableModifier struct {
	ID        string
	Operation Operation
	Value     string
}

// ParseOperation maps an attribute value to an Operation. The historic
// spelling "substract" is accepted.
func ParseOperation(s string) (Operation, bool) {
	switch Operation(s) {
	case OpSet, OpAdd, OpSubtract, OpMultiply, OpDivide, OpPower:
		return Operation(s), true
	case "substract":
		return OpSubtract, true
	}
	return "", false
}

// BackTarget is the reserved branch target that navigates back in history.
const BackTarget = "back()"

// IsURLTarget reports whether a branch target names an external page
// (url:...) rather than a subject.
func IsURLTarget(target string) bool {
	return len(target) >= 4 && strings.EqualFold(target[:4], "url:")
}

// URLFromTarget strips the url: scheme from a URL target.
func URLFromTarget(target string) string {
	if !IsURLTarget(target) {
		return target
	}
	return target[4:]
}
