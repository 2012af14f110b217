// Package htmldoc adapts a parsed HTML document to the engine's query surface
// so fills can be previewed server-side. Value writes mutate the parsed tree;
// event dispatch is recorded rather than delivered, since there is no host
// page listening.
package htmldoc

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/formpilot/formpilot/internal/engine"
	"github.com/formpilot/formpilot/internal/models"
)

const inputLikeSelector = "input, textarea, select"

// Event is one recorded synthetic event dispatch.
type Event struct {
	Target string `json:"target"`
	Name   string `json:"name"`
	Key    string `json:"key,omitempty"`
}

// Write is one recorded value assignment.
type Write struct {
	Target string `json:"target"`
	Value  string `json:"value"`
}

// Document implements engine.Document over a goquery tree.
type Document struct {
	doc    *goquery.Document
	events []Event
	writes []Write
	active *element
}

// Parse reads HTML into a fill-ready document.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{doc: doc}, nil
}

// ParseString reads an HTML string into a fill-ready document.
func ParseString(html string) (*Document, error) {
	return Parse(strings.NewReader(html))
}

// Events returns every synthetic event recorded so far, in dispatch order.
func (d *Document) Events() []Event { return d.events }

// Writes returns every value assignment recorded so far, in order.
func (d *Document) Writes() []Write { return d.writes }

// HTML renders the mutated document back to markup.
func (d *Document) HTML() (string, error) {
	return d.doc.Html()
}

// Find locates zero-or-one input-like element by match kind and selector.
func (d *Document) Find(kind models.MatchKind, selector string) engine.Element {
	return d.findIn(d.doc.Selection, kind, selector)
}

// FindByAttrPattern scans all input-like elements for the first whose
// attribute value matches the pattern.
func (d *Document) FindByAttrPattern(attr string, pattern *regexp.Regexp) engine.Element {
	return d.attrScan(d.doc.Selection, attr, pattern)
}

// Rows returns one scope per row-container match, in document order.
func (d *Document) Rows(selector string) []engine.Scope {
	var scopes []engine.Scope
	d.doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		scopes = append(scopes, &rowScope{doc: d, sel: sel})
	})
	return scopes
}

// Active returns the element last focused through a focus action, nil
// otherwise.
func (d *Document) Active() engine.Element {
	if d.active == nil {
		return nil
	}
	return d.active
}

// Root returns a document-level event target.
func (d *Document) Root() engine.Element {
	return &element{doc: d}
}

// rowScope restricts lookups to one row container.
type rowScope struct {
	doc *Document
	sel *goquery.Selection
}

func (s *rowScope) Find(kind models.MatchKind, selector string) engine.Element {
	return s.doc.findIn(s.sel, kind, selector)
}

func (s *rowScope) FindByAttrPattern(attr string, pattern *regexp.Regexp) engine.Element {
	return s.doc.attrScan(s.sel, attr, pattern)
}

func (d *Document) findIn(root *goquery.Selection, kind models.MatchKind, selector string) engine.Element {
	var css string
	switch kind {
	case models.MatchID:
		css = fmt.Sprintf("[id=%q]", selector)
	case models.MatchName:
		css = fmt.Sprintf("[name=%q]", selector)
	default:
		css = selector
	}

	sel := findSafe(root, css).First()
	if sel.Length() == 0 {
		return nil
	}
	return &element{doc: d, sel: sel}
}

func (d *Document) attrScan(root *goquery.Selection, attr string, pattern *regexp.Regexp) engine.Element {
	var found *goquery.Selection
	root.Find(inputLikeSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if val, ok := sel.Attr(attr); ok && pattern.MatchString(val) {
			found = sel
			return false
		}
		return true
	})
	if found == nil {
		return nil
	}
	return &element{doc: d, sel: found}
}

// findSafe guards goquery against selectors that do not compile.
func findSafe(root *goquery.Selection, css string) (sel *goquery.Selection) {
	defer func() {
		if r := recover(); r != nil {
			sel = root.Slice(0, 0)
		}
	}()
	return root.Find(css)
}

// element implements engine.Element over one matched node. A nil selection is
// the document-level target: it accepts events and ignores value operations.
type element struct {
	doc *Document
	sel *goquery.Selection
}

func (e *element) Kind() engine.ElementKind {
	if e.sel == nil {
		return engine.KindText
	}
	switch goquery.NodeName(e.sel) {
	case "select":
		return engine.KindSelect
	case "input":
		switch attrOr(e.sel, "type", "text") {
		case "checkbox":
			return engine.KindCheckbox
		case "radio":
			return engine.KindRadio
		}
	}
	return engine.KindText
}

func (e *element) Value() string {
	if e.sel == nil {
		return ""
	}
	if goquery.NodeName(e.sel) == "textarea" {
		return e.sel.Text()
	}
	return attrOr(e.sel, "value", "")
}

func (e *element) SetValue(value string) error {
	if e.sel == nil {
		return fmt.Errorf("document target holds no value")
	}
	if goquery.NodeName(e.sel) == "textarea" {
		e.sel.SetText(value)
	} else {
		e.sel.SetAttr("value", value)
	}
	e.doc.writes = append(e.doc.writes, Write{Target: e.describe(), Value: value})
	return nil
}

func (e *element) SetChecked(checked bool) error {
	if e.sel == nil {
		return fmt.Errorf("document target cannot be checked")
	}
	if checked {
		e.sel.SetAttr("checked", "checked")
	} else {
		e.sel.RemoveAttr("checked")
	}
	e.doc.writes = append(e.doc.writes, Write{Target: e.describe(), Value: fmt.Sprintf("%t", checked)})
	return nil
}

func (e *element) Options() []engine.Option {
	if e.sel == nil {
		return nil
	}
	var opts []engine.Option
	e.sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
		label := strings.TrimSpace(opt.Text())
		value := attrOr(opt, "value", label)
		opts = append(opts, engine.Option{Value: value, Label: label})
	})
	return opts
}

func (e *element) SelectOption(value string) error {
	if e.sel == nil {
		return fmt.Errorf("document target has no options")
	}
	e.sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
		if attrOr(opt, "value", strings.TrimSpace(opt.Text())) == value {
			opt.SetAttr("selected", "selected")
		} else {
			opt.RemoveAttr("selected")
		}
	})
	e.doc.writes = append(e.doc.writes, Write{Target: e.describe(), Value: value})
	return nil
}

func (e *element) Fire(event string) error {
	e.doc.events = append(e.doc.events, Event{Target: e.describe(), Name: event})
	return nil
}

func (e *element) FireKey(event, key string) error {
	e.doc.events = append(e.doc.events, Event{Target: e.describe(), Name: event, Key: key})
	return nil
}

func (e *element) Click() error {
	return e.Fire("click")
}

func (e *element) Focus() error {
	if e.sel != nil {
		e.doc.active = e
	}
	return e.Fire("focus")
}

// describe builds a short target descriptor for event and write records.
func (e *element) describe() string {
	if e.sel == nil {
		return "document"
	}
	if id, ok := e.sel.Attr("id"); ok && id != "" {
		return "#" + id
	}
	if name, ok := e.sel.Attr("name"); ok && name != "" {
		return fmt.Sprintf("%s[name=%q]", goquery.NodeName(e.sel), name)
	}
	return goquery.NodeName(e.sel)
}

func attrOr(sel *goquery.Selection, name, fallback string) string {
	if val, ok := sel.Attr(name); ok {
		return val
	}
	return fallback
}
