package wait

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/devicelab-dev/locator-runner/pkg/core"
	"github.com/devicelab-dev/locator-runner/pkg/dispatch"
	"github.com/devicelab-dev/locator-runner/pkg/jsengine"
	"github.com/devicelab-dev/locator-runner/pkg/locator"
)

// Kind names a condition for traces and the CLI.
type Kind string

// Condition kinds.
const (
	KindPresent          Kind = "present"
	KindVisible          Kind = "visible"
	KindClickable        Kind = "clickable"
	KindInvisible        Kind = "invisible"
	KindSelected         Kind = "selected"
	KindAttributeEquals  Kind = "attr-equals"
	KindAttributeContain Kind = "attr-contains"
	KindTextContains     Kind = "text"
	KindListPresent      Kind = "list-present"
	KindListVisible      Kind = "list-visible"
	KindListInvisible    Kind = "list-invisible"
	KindAlert            Kind = "alert"
	KindExpression       Kind = "expression"
)

// Attempt is what a condition check sees on each evaluation. Locator is
// the descriptor after parameter substitution.
type Attempt struct {
	Session  core.Session
	Router   *dispatch.Router
	JS       *jsengine.Engine
	Locator  locator.Descriptor
	Element  core.Element
	Elements []core.Element

	hasLocator bool
	deadline   time.Time
	now        func() time.Time
}

// budget is the time left before the wait's deadline, never less than
// MinExpressionBudget.
func (a *Attempt) budget() time.Duration {
	if a.now == nil {
		return MinExpressionBudget
	}
	if left := a.deadline.Sub(a.now()); left > MinExpressionBudget {
		return left
	}
	return MinExpressionBudget
}

// single locates the target element, or returns the bound element.
func (a *Attempt) single() (core.Element, error) {
	if !a.hasLocator {
		if a.Element == nil {
			return nil, core.ErrNilElement
		}
		return a.Element, nil
	}
	h, err := a.Router.Single(a.Locator)
	if err != nil {
		return nil, err
	}
	return h.Element, nil
}

// many locates the target elements, or returns the bound list.
func (a *Attempt) many() ([]core.Element, error) {
	if !a.hasLocator {
		return a.Elements, nil
	}
	hs, err := a.Router.Many(a.Locator)
	if err != nil {
		return nil, err
	}
	return hs.Elements, nil
}

// CheckFunc evaluates a condition once. ok reports whether it holds and
// value is returned to the waiter. Transient errors are retried by the
// poll loop; any other error ends the wait.
type CheckFunc func(a *Attempt) (value interface{}, ok bool, err error)

// Condition is a predicate over a locator, a bound element or page state.
type Condition struct {
	Kind     Kind
	Locator  *locator.Descriptor // Locator-bound target
	Element  core.Element        // Element-bound target
	Elements []core.Element      // Element list target
	Expected []string            // Expected values, for the description
	Check    CheckFunc

	// KeepDialog skips accepting a blocking dialog before polling.
	KeepDialog bool
}

// String describes the condition for traces and timeout errors.
func (c Condition) String() string {
	var b strings.Builder
	b.WriteString(string(c.Kind))
	switch {
	case c.Locator != nil:
		b.WriteString(" of " + c.Locator.String())
	case c.Element != nil:
		b.WriteString(" of element " + c.Element.ID())
	case c.Elements != nil:
		fmt.Fprintf(&b, " of %d elements", len(c.Elements))
	}
	if len(c.Expected) > 0 {
		fmt.Fprintf(&b, " %q", c.Expected)
	}
	return b.String()
}

func onLocator(kind Kind, d locator.Descriptor, check CheckFunc, expected ...string) Condition {
	return Condition{Kind: kind, Locator: &d, Check: check, Expected: expected}
}

func onElement(kind Kind, el core.Element, check CheckFunc) Condition {
	return Condition{Kind: kind, Element: el, Check: check}
}

// Present holds once an element matches d.
func Present(d locator.Descriptor) Condition {
	return onLocator(KindPresent, d, checkPresent)
}

// Visible holds once an element matching d is displayed.
func Visible(d locator.Descriptor) Condition {
	return onLocator(KindVisible, d, checkVisible)
}

// Clickable holds once an element matching d is displayed and enabled.
func Clickable(d locator.Descriptor) Condition {
	return onLocator(KindClickable, d, checkClickable)
}

// Invisible holds once no element matching d is displayed.
func Invisible(d locator.Descriptor) Condition {
	return onLocator(KindInvisible, d, checkListInvisible)
}

// Selected holds once an element matching d is selected.
func Selected(d locator.Descriptor) Condition {
	return onLocator(KindSelected, d, checkSelected)
}

// AttributeEquals holds once attribute name of the element equals value.
func AttributeEquals(d locator.Descriptor, name, value string) Condition {
	return onLocator(KindAttributeEquals, d, checkAttribute(name, value, false), name, value)
}

// AttributeContains holds once attribute name of the element contains value.
func AttributeContains(d locator.Descriptor, name, value string) Condition {
	return onLocator(KindAttributeContain, d, checkAttribute(name, value, true), name, value)
}

// TextContains holds once the element text contains text.
func TextContains(d locator.Descriptor, text string) Condition {
	return onLocator(KindTextContains, d, checkText(text), text)
}

// ListPresent holds once at least one element matches d.
func ListPresent(d locator.Descriptor) Condition {
	return onLocator(KindListPresent, d, checkListPresent)
}

// ListVisible holds once every element matching d is displayed.
func ListVisible(d locator.Descriptor) Condition {
	return onLocator(KindListVisible, d, checkListVisible)
}

// Expression holds once the JavaScript expression is truthy for the element
// matching d. The expression sees text, displayed, enabled, selected,
// bounds and attr(name).
func Expression(d locator.Descriptor, expr string) Condition {
	return onLocator(KindExpression, d, checkExpression(expr), expr)
}

// AlertPresent holds once a dialog is open. The value is its text.
func AlertPresent() Condition {
	return Condition{Kind: KindAlert, Check: checkAlert, KeepDialog: true}
}

// ElementVisible holds once el is displayed.
func ElementVisible(el core.Element) Condition {
	return onElement(KindVisible, el, checkVisible)
}

// ElementClickable holds once el is displayed and enabled.
func ElementClickable(el core.Element) Condition {
	return onElement(KindClickable, el, checkClickable)
}

// ElementSelected holds once el is selected.
func ElementSelected(el core.Element) Condition {
	return onElement(KindSelected, el, checkSelected)
}

// ElementInvisible holds once el is hidden or detached.
func ElementInvisible(el core.Element) Condition {
	return onElement(KindInvisible, el, checkInvisible)
}

// ElementsInvisible holds once every element of els is hidden or detached.
func ElementsInvisible(els []core.Element) Condition {
	if els == nil {
		els = []core.Element{}
	}
	return Condition{Kind: KindListInvisible, Elements: els, Check: checkListInvisible}
}

func checkPresent(a *Attempt) (interface{}, bool, error) {
	el, err := a.single()
	if err != nil {
		return nil, false, err
	}
	return el, true, nil
}

func checkVisible(a *Attempt) (interface{}, bool, error) {
	el, err := a.single()
	if err != nil {
		return nil, false, err
	}
	shown, err := el.IsDisplayed()
	if err != nil || !shown {
		return nil, false, err
	}
	return el, true, nil
}

func checkClickable(a *Attempt) (interface{}, bool, error) {
	v, ok, err := checkVisible(a)
	if err != nil || !ok {
		return nil, false, err
	}
	el := v.(core.Element)
	enabled, err := el.IsEnabled()
	if err != nil || !enabled {
		return nil, false, err
	}
	return el, true, nil
}

func checkSelected(a *Attempt) (interface{}, bool, error) {
	el, err := a.single()
	if err != nil {
		return nil, false, err
	}
	selected, err := el.IsSelected()
	if err != nil || !selected {
		return nil, false, err
	}
	return el, true, nil
}

func checkAttribute(name, value string, partial bool) CheckFunc {
	return func(a *Attempt) (interface{}, bool, error) {
		el, err := a.single()
		if err != nil {
			return nil, false, err
		}
		got, err := el.Attribute(name)
		if err != nil {
			return nil, false, err
		}
		if partial {
			return true, strings.Contains(got, value), nil
		}
		return true, got == value, nil
	}
}

func checkText(text string) CheckFunc {
	return func(a *Attempt) (interface{}, bool, error) {
		el, err := a.single()
		if err != nil {
			return nil, false, err
		}
		got, err := el.Text()
		if err != nil {
			return nil, false, err
		}
		return true, strings.Contains(got, text), nil
	}
}

func checkListPresent(a *Attempt) (interface{}, bool, error) {
	els, err := a.many()
	if err != nil {
		return nil, false, err
	}
	return els, len(els) > 0, nil
}

func checkListVisible(a *Attempt) (interface{}, bool, error) {
	els, err := a.many()
	if err != nil || len(els) == 0 {
		return nil, false, err
	}
	for _, el := range els {
		shown, err := el.IsDisplayed()
		if err != nil || !shown {
			return nil, false, err
		}
	}
	return els, true, nil
}

// checkInvisible treats a missing or detached element as invisible.
func checkInvisible(a *Attempt) (interface{}, bool, error) {
	el, err := a.single()
	if err == nil {
		var shown bool
		if shown, err = el.IsDisplayed(); err == nil {
			return true, !shown, nil
		}
	}
	if gone(err) {
		return true, true, nil
	}
	return nil, false, err
}

func checkListInvisible(a *Attempt) (interface{}, bool, error) {
	els, err := a.many()
	if err != nil {
		if gone(err) {
			return true, true, nil
		}
		return nil, false, err
	}
	for _, el := range els {
		if el == nil {
			continue
		}
		shown, err := el.IsDisplayed()
		if err != nil {
			if gone(err) {
				continue
			}
			return nil, false, err
		}
		if shown {
			return nil, false, nil
		}
	}
	return true, true, nil
}

func gone(err error) bool {
	return errors.Is(err, core.ErrElementNotFound) || errors.Is(err, core.ErrStaleElement)
}

func checkAlert(a *Attempt) (interface{}, bool, error) {
	text, err := a.Session.AlertText()
	if errors.Is(err, core.ErrNoSuchAlert) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return text, true, nil
}

func checkExpression(expr string) CheckFunc {
	return func(a *Attempt) (interface{}, bool, error) {
		el, err := a.single()
		if err != nil {
			return nil, false, err
		}
		ok, err := a.JS.EvaluateElement(expr, el, a.budget())
		if err != nil || !ok {
			return nil, false, err
		}
		return el, true, nil
	}
}
