package playlist

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
	"github.com/samber/mo"
	log "github.com/sirupsen/logrus"
)

// ErrEmptyDocument is returned when the input holds no root element.
var ErrEmptyDocument = errors.New("empty playlist document")

// mediaIDs hands out media item ids. Ids are unique for the process.
var mediaIDs atomic.Int64

// ParseOptions controls which element names are treated as media items.
type ParseOptions struct {
	MediaTypes []string
}

// Warning is a non-fatal problem found while parsing.
type Warning struct {
	Element string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("<%s>: %s", w.Element, w.Message)
}

type xmlNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Nodes   []xmlNode  `xml:",any"`
	Text    string     `xml:",chardata"`
}

func (n *xmlNode) name() string {
	return n.XMLName.Local
}

type parser struct {
	mediaTypes map[string]bool
	warnings   []Warning
}

// Result is a parsed document together with the warnings raised while
// parsing it.
type Result struct {
	Document *Document
	Warnings []Warning
}

// Parse reads a playlist document. The root may be <ximpel> holding a
// <playlist> and an optional <config>, or a bare <playlist>.
func Parse(r io.Reader, opts ParseOptions) (*Result, error) {
	root, err := decode(r)
	if err != nil {
		return nil, err
	}

	p := &parser{mediaTypes: make(map[string]bool)}
	for _, t := range opts.MediaTypes {
		p.mediaTypes[t] = true
	}

	var doc *Document
	switch root.name() {
	case "ximpel":
		var cfg *ConfigSection
		for i := range root.Nodes {
			child := &root.Nodes[i]
			switch child.name() {
			case "playlist":
				doc = p.playlist(child)
			case "config":
				cfg = p.config(child)
			default:
				p.invalidChild(root, child)
			}
		}
		if doc == nil {
			return nil, fmt.Errorf("parse playlist: <ximpel> has no <playlist> element")
		}
		doc.Config = cfg
	case "playlist":
		doc = p.playlist(root)
	default:
		return nil, fmt.Errorf("parse playlist: unexpected root element <%s>", root.name())
	}

	return &Result{Document: doc, Warnings: p.warnings}, nil
}

// ParseConfig reads a standalone config document, rooted at <ximpel> or
// directly at <config>.
func ParseConfig(r io.Reader) (*ConfigSection, []Warning, error) {
	root, err := decode(r)
	if err != nil {
		return nil, nil, err
	}

	p := &parser{}
	switch root.name() {
	case "config":
		return p.config(root), p.warnings, nil
	case "ximpel":
		for i := range root.Nodes {
			if root.Nodes[i].name() == "config" {
				return p.config(&root.Nodes[i]), p.warnings, nil
			}
		}
		return nil, nil, fmt.Errorf("parse config: <ximpel> has no <config> element")
	}
	return nil, nil, fmt.Errorf("parse config: unexpected root element <%s>", root.name())
}

func decode(r io.Reader) (*xmlNode, error) {
	var root xmlNode
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDocument
		}
		return nil, fmt.Errorf("decode xml: %w", err)
	}
	return &root, nil
}

func (p *parser) warn(element, format string, args ...any) {
	w := Warning{Element: element, Message: fmt.Sprintf(format, args...)}
	p.warnings = append(p.warnings, w)
	log.WithField("element", element).Warn(w.Message)
}

func (p *parser) invalidChild(parent, child *xmlNode) {
	p.warn(parent.name(), "invalid child <%s> ignored", child.name())
}

func (p *parser) invalidAttr(n *xmlNode, attr xml.Attr) {
	p.warn(n.name(), "unsupported attribute %q ignored", attr.Name.Local)
}

func (p *parser) playlist(n *xmlNode) *Document {
	doc := &Document{Subjects: make(map[string]*Subject)}

	for i := range n.Nodes {
		child := &n.Nodes[i]
		switch child.name() {
		case "subject":
			s := p.subject(doc, child)
			if _, dup := doc.Subjects[s.ID]; dup {
				p.warn("subject", "duplicate subject id %q, later definition wins", s.ID)
			}
			doc.Subjects[s.ID] = s
			if doc.FirstSubject == "" {
				doc.FirstSubject = s.ID
			}
		case "score", "variable":
			doc.Modifiers = append(doc.Modifiers, p.variable(child))
		default:
			p.invalidChild(n, child)
		}
	}
	return doc
}

func (p *parser) subject(doc *Document, n *xmlNode) *Subject {
	s := &Subject{Swipe: make(map[SwipeDirection]BranchRule)}

	for _, a := range n.Attrs {
		switch a.Name.Local {
		case "id":
			s.ID = a.Value
		case "leadsTo":
			s.LeadsTo = append(s.LeadsTo, BranchRule{Subject: a.Value})
		case "swipeLeftTo":
			s.Swipe[SwipeLeft] = BranchRule{Subject: a.Value}
		case "swipeRightTo":
			s.Swipe[SwipeRight] = BranchRule{Subject: a.Value}
		case "swipeUpTo":
			s.Swipe[SwipeUp] = BranchRule{Subject: a.Value}
		case "swipeDownTo":
			s.Swipe[SwipeDown] = BranchRule{Subject: a.Value}
		default:
			p.invalidAttr(n, a)
		}
	}

	for i := range n.Nodes {
		child := &n.Nodes[i]
		switch child.name() {
		case "description":
			s.Description = strings.TrimSpace(child.Text)
		case "media", "sequence":
			s.Sequence = p.sequence(doc, child)
		case "score", "variable":
			s.Modifiers = append(s.Modifiers, p.variable(child))
		case "leadsTo":
			s.LeadsTo = append(s.LeadsTo, p.leadsTo(child))
		default:
			p.invalidChild(n, child)
		}
	}

	if s.Sequence == nil {
		s.Sequence = &Sequence{Order: "default"}
	}
	return s
}

func (p *parser) sequence(doc *Document, n *xmlNode) *Sequence {
	seq := &Sequence{Order: "default"}

	for _, a := range n.Attrs {
		if a.Name.Local == "order" {
			seq.Order = a.Value
			continue
		}
		p.invalidAttr(n, a)
	}

	for i := range n.Nodes {
		child := &n.Nodes[i]
		switch {
		case p.mediaTypes[child.name()]:
			seq.Items = append(seq.Items, p.media(doc, child))
		case child.name() == "sequence":
			seq.Items = append(seq.Items, p.sequence(doc, child))
		case child.name() == "parallel":
			seq.Items = append(seq.Items, p.parallel(doc, child))
		default:
			p.invalidChild(n, child)
		}
	}
	return seq
}

func (p *parser) parallel(doc *Document, n *xmlNode) *Parallel {
	par := &Parallel{}
	for i := range n.Nodes {
		child := &n.Nodes[i]
		switch {
		case p.mediaTypes[child.name()]:
			par.Items = append(par.Items, p.media(doc, child))
		case child.name() == "sequence":
			par.Items = append(par.Items, p.sequence(doc, child))
		default:
			p.invalidChild(n, child)
		}
	}
	return par
}

func (p *parser) media(doc *Document, n *xmlNode) *MediaItem {
	m := &MediaItem{
		Type:       n.name(),
		Attributes: make(map[string]string),
	}

	for _, a := range n.Attrs {
		switch a.Name.Local {
		case "leadsTo":
			m.LeadsTo = append(m.LeadsTo, BranchRule{Subject: a.Value})
		case "duration":
			m.Duration = p.seconds(n, a)
		case "repeat":
			m.Repeat = a.Value == "true"
		case "description":
			m.Description = a.Value
			m.Attributes[a.Name.Local] = a.Value
		default:
			m.Attributes[a.Name.Local] = a.Value
		}
	}

	for i := range n.Nodes {
		child := &n.Nodes[i]
		switch child.name() {
		case "overlay":
			m.Overlays = append(m.Overlays, p.overlay(child, i))
		case "score", "variable":
			m.Modifiers = append(m.Modifiers, p.variable(child))
		case "question":
			m.QuestionLists = append(m.QuestionLists, p.standaloneQuestion(child))
		case "questions":
			m.QuestionLists = append(m.QuestionLists, p.questions(child))
		case "leadsTo":
			m.LeadsTo = append(m.LeadsTo, p.leadsTo(child))
		default:
			m.Elements = append(m.Elements, Element{
				Name:       child.name(),
				Attributes: attrMap(child.Attrs),
				Text:       strings.TrimSpace(child.Text),
			})
		}
	}

	m.ID = int(mediaIDs.Add(1))
	doc.Media = append(doc.Media, m)
	return m
}

func (p *parser) questions(n *xmlNode) *QuestionList {
	list := &QuestionList{}

	for _, a := range n.Attrs {
		switch a.Name.Local {
		case "startTime":
			list.Start = p.seconds(n, a)
		case "questionTimeLimit":
			list.TimeLimit = p.seconds(n, a)
		case "nrOfQuestionsToAsk", "questionOrder":
			// Accepted for compatibility; questions are always asked in
			// document order.
		default:
			p.invalidAttr(n, a)
		}
	}

	for i := range n.Nodes {
		child := &n.Nodes[i]
		if child.name() != "question" {
			p.invalidChild(n, child)
			continue
		}
		q, _ := p.question(child, false)
		list.Questions = append(list.Questions, q)
	}
	return list
}

// standaloneQuestion wraps a <question> that is not inside <questions> in
// a list of its own, starting at the question's startTime.
func (p *parser) standaloneQuestion(n *xmlNode) *QuestionList {
	q, start := p.question(n, true)
	return &QuestionList{Start: start, Questions: []*Question{q}}
}

func (p *parser) question(n *xmlNode, standalone bool) (*Question, time.Duration) {
	q := &Question{Answer: "true"}
	var start time.Duration

	for _, a := range n.Attrs {
		switch {
		case a.Name.Local == "startTime" && standalone:
			start = p.seconds(n, a)
		case a.Name.Local == "questionTimeLimit":
			q.TimeLimit = mo.Some(p.seconds(n, a))
		case a.Name.Local == "answer":
			q.Answer = a.Value
		default:
			p.invalidAttr(n, a)
		}
	}
	q.Text = strings.TrimSpace(n.Text)

	for i := range n.Nodes {
		child := &n.Nodes[i]
		switch child.name() {
		case "option":
			opt := p.option(child)
			if opt.Name == "" {
				opt.Name = strconv.Itoa(len(q.Options) + 1)
			}
			q.Options = append(q.Options, opt)
		case "score", "variable":
			q.Modifiers = append(q.Modifiers, p.variable(child))
		default:
			p.invalidChild(n, child)
		}
	}

	if len(q.Options) == 0 {
		q.Options = []Option{
			{Name: "true", Text: "True"},
			{Name: "false", Text: "False"},
		}
	}
	return q, start
}

func (p *parser) option(n *xmlNode) Option {
	var opt Option
	for _, a := range n.Attrs {
		if a.Name.Local == "name" {
			opt.Name = a.Value
			continue
		}
		p.invalidAttr(n, a)
	}
	opt.Text = strings.TrimSpace(n.Text)
	return opt
}

func (p *parser) variable(n *xmlNode) VariableModifier {
	vm := VariableModifier{Operation: OpSet, Value: "0"}

	for _, a := range n.Attrs {
		switch a.Name.Local {
		case "id":
			vm.ID = a.Value
		case "operation":
			op, ok := ParseOperation(a.Value)
			if !ok {
				p.warn(n.name(), "unknown operation %q, using set", a.Value)
				op = OpSet
			}
			vm.Operation = op
		case "value":
			vm.Value = a.Value
		default:
			p.invalidAttr(n, a)
		}
	}
	for i := range n.Nodes {
		p.invalidChild(n, &n.Nodes[i])
	}
	return vm
}

func (p *parser) leadsTo(n *xmlNode) BranchRule {
	var r BranchRule
	for _, a := range n.Attrs {
		switch a.Name.Local {
		case "subject":
			r.Subject = a.Value
		case "condition":
			r.Condition = strings.TrimSpace(a.Value)
		default:
			p.invalidAttr(n, a)
		}
	}
	return r
}

var overlayStyleAttrs = []string{
	"alpha", "hoverAlpha",
	"backgroundColor", "hoverBackgroundColor",
	"textColor", "hoverTextColor",
	"fontFamily", "hoverFontFamily",
	"fontSize", "hoverFontSize",
	"image", "hoverImage",
}

func (p *parser) overlay(n *xmlNode, index int) *Overlay {
	o := &Overlay{
		Index:    index,
		Shape:    "rectangle",
		Width:    200,
		Height:   100,
		Side:     150,
		Diameter: 150,
		Style:    make(map[string]string),
	}

	for _, a := range n.Attrs {
		switch name := a.Name.Local; {
		case name == "x":
			o.X = leadingInt(a.Value)
		case name == "y":
			o.Y = leadingInt(a.Value)
		case name == "shape":
			o.Shape = a.Value
		case name == "width":
			o.Width = leadingInt(a.Value)
		case name == "height":
			o.Height = leadingInt(a.Value)
		case name == "side":
			o.Side = leadingInt(a.Value)
		case name == "diameter":
			o.Diameter = leadingInt(a.Value)
		case name == "leadsTo":
			o.LeadsTo = append(o.LeadsTo, BranchRule{Subject: a.Value})
		case name == "startTime":
			o.Start = p.seconds(n, a)
		case name == "duration":
			o.Duration = p.seconds(n, a)
		case name == "text":
			o.Text = a.Value
		case name == "description":
			o.Description = a.Value
		case name == "waitForMediaComplete":
			o.WaitForMediaComplete = a.Value == "true"
		case lo.Contains(overlayStyleAttrs, name):
			o.Style[name] = a.Value
		default:
			p.invalidAttr(n, a)
		}
	}

	for i := range n.Nodes {
		child := &n.Nodes[i]
		switch child.name() {
		case "score", "variable":
			o.Modifiers = append(o.Modifiers, p.variable(child))
		case "leadsTo":
			o.LeadsTo = append(o.LeadsTo, p.leadsTo(child))
		default:
			p.invalidChild(n, child)
		}
	}
	return o
}

func (p *parser) config(n *xmlNode) *ConfigSection {
	cfg := &ConfigSection{}

	for i := range n.Nodes {
		child := &n.Nodes[i]
		text := strings.TrimSpace(child.Text)
		switch child.name() {
		case "enableControls":
			cfg.EnableControls = mo.Some(strings.ToLower(text) != "false")
		case "controlsDisplayMethod":
			cfg.ControlsDisplayMethod = mo.Some(text)
		case "mediaDirectory":
			cfg.MediaDirectory = mo.Some(text)
		case "titleScreenImage":
			cfg.TitleScreenImage = mo.Some(text)
		case "showScore":
			cfg.ShowScore = mo.Some(strings.ToLower(text) == "true")
		case "minimumSwipeVelocity":
			if f, err := strconv.ParseFloat(text, 64); err == nil {
				cfg.MinimumSwipeVelocity = mo.Some(f)
			} else {
				p.warn(child.name(), "invalid number %q ignored", text)
			}
		case "minimumSwipeTranslation":
			if f, err := strconv.ParseFloat(text, 64); err == nil {
				cfg.MinimumSwipeTranslation = mo.Some(f)
			} else {
				p.warn(child.name(), "invalid number %q ignored", text)
			}
		default:
			p.invalidChild(n, child)
		}
	}
	return cfg
}

// seconds converts an attribute holding (fractional) seconds.
func (p *parser) seconds(n *xmlNode, a xml.Attr) time.Duration {
	f, err := strconv.ParseFloat(strings.TrimSpace(a.Value), 64)
	if err != nil || f < 0 || math.IsInf(f, 0) {
		p.warn(n.name(), "invalid time %s=%q ignored", a.Name.Local, a.Value)
		return 0
	}
	return time.Duration(math.Round(f*1000)) * time.Millisecond
}

// leadingInt parses the integer prefix of s, so "200px" yields 200.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && s[end] == '-') {
		end++
	}
	v, _ := strconv.Atoi(s[:end])
	return v
}

func attrMap(attrs []xml.Attr) map[string]string {
	return lo.SliceToMap(attrs, func(a xml.Attr) (string, string) {
		return a.Name.Local, a.Value
	})
}
