package engine

import (
	"regexp"

	"github.com/formpilot/formpilot/internal/models"
)

// ElementKind is the closed set of value-assignment strategies. The kind is
// resolved once at lookup time; the executor dispatches on it.
type ElementKind int

const (
	KindText ElementKind = iota
	KindCheckbox
	KindRadio
	KindSelect
)

// Synthetic event names fired on elements after a value write or key press.
const (
	EventInput   = "input"
	EventChange  = "change"
	EventBlur    = "blur"
	EventKeyDown = "keydown"
	EventKeyUp   = "keyup"
)

// Option is one entry of a select element.
type Option struct {
	Value string
	Label string
}

// Element is an addressable input-like element on the page.
type Element interface {
	Kind() ElementKind
	Value() string
	SetValue(value string) error
	SetChecked(checked bool) error
	Options() []Option
	SelectOption(value string) error
	Fire(event string) error
	FireKey(event, key string) error
	Click() error
	Focus() error
}

// Scope locates zero-or-one element inside some region of the page. Lookup
// failures and invalid selectors both surface as a nil element.
type Scope interface {
	Find(kind models.MatchKind, selector string) Element
	FindByAttrPattern(attr string, pattern *regexp.Regexp) Element
}

// Document is the query surface the executor fills against.
type Document interface {
	Scope

	// Rows returns one scope per match of a row-container selector, in
	// document order.
	Rows(selector string) []Scope

	// Active returns the currently focused element, nil when nothing holds
	// focus.
	Active() Element

	// Root returns the document-level event target used as the fallback for
	// key dispatch.
	Root() Element
}
