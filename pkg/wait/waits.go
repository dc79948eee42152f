package wait

import (
	"time"

	"github.com/devicelab-dev/locator-runner/pkg/core"
	"github.com/devicelab-dev/locator-runner/pkg/locator"
)

// The WaitFor* helpers take an optional timeout. Without one the standard
// wait time applies; an explicit zero or negative timeout evaluates once.

func (e *Engine) budget(timeout []time.Duration) time.Duration {
	if len(timeout) > 0 {
		return timeout[0]
	}
	return e.standard
}

func (e *Engine) element(cond Condition, timeout []time.Duration) (core.Element, error) {
	res, err := e.Await(cond, e.budget(timeout))
	if err != nil {
		return nil, err
	}
	return res.Element(), nil
}

func (e *Engine) elements(cond Condition, timeout []time.Duration) ([]core.Element, error) {
	res, err := e.Await(cond, e.budget(timeout))
	if err != nil {
		return nil, err
	}
	return res.Elements(), nil
}

func (e *Engine) holds(cond Condition, timeout []time.Duration) error {
	_, err := e.Await(cond, e.budget(timeout))
	return err
}

// WaitForElementToBePresent waits for an element matching d to exist.
func (e *Engine) WaitForElementToBePresent(d locator.Descriptor, timeout ...time.Duration) (core.Element, error) {
	return e.element(Present(d), timeout)
}

// WaitForElementToBeVisible waits for an element matching d to be displayed.
func (e *Engine) WaitForElementToBeVisible(d locator.Descriptor, timeout ...time.Duration) (core.Element, error) {
	return e.element(Visible(d), timeout)
}

// WaitForElementToBeClickable waits for an element matching d to be displayed and enabled.
func (e *Engine) WaitForElementToBeClickable(d locator.Descriptor, timeout ...time.Duration) (core.Element, error) {
	return e.element(Clickable(d), timeout)
}

// WaitForElementToBeSelected waits for an element matching d to be selected.
func (e *Engine) WaitForElementToBeSelected(d locator.Descriptor, timeout ...time.Duration) error {
	return e.holds(Selected(d), timeout)
}

// WaitForElementToDisappear waits until no element matching d is displayed.
func (e *Engine) WaitForElementToDisappear(d locator.Descriptor, timeout ...time.Duration) error {
	return e.holds(Invisible(d), timeout)
}

// WaitForAttributeToEqual waits for attribute name of the element to equal value.
func (e *Engine) WaitForAttributeToEqual(d locator.Descriptor, name, value string, timeout ...time.Duration) error {
	return e.holds(AttributeEquals(d, name, value), timeout)
}

// WaitForAttributeToContain waits for attribute name of the element to contain value.
func (e *Engine) WaitForAttributeToContain(d locator.Descriptor, name, value string, timeout ...time.Duration) error {
	return e.holds(AttributeContains(d, name, value), timeout)
}

// WaitForTextToContain waits for the element text to contain text.
func (e *Engine) WaitForTextToContain(d locator.Descriptor, text string, timeout ...time.Duration) error {
	return e.holds(TextContains(d, text), timeout)
}

// WaitForElementListToBePresent waits for at least one element matching d.
func (e *Engine) WaitForElementListToBePresent(d locator.Descriptor, timeout ...time.Duration) ([]core.Element, error) {
	return e.elements(ListPresent(d), timeout)
}

// WaitForElementListToBeVisible waits for every element matching d to be displayed.
func (e *Engine) WaitForElementListToBeVisible(d locator.Descriptor, timeout ...time.Duration) ([]core.Element, error) {
	return e.elements(ListVisible(d), timeout)
}

// WaitForExpression waits for a JavaScript expression over the element
// matching d to become truthy.
func (e *Engine) WaitForExpression(d locator.Descriptor, expr string, timeout ...time.Duration) (core.Element, error) {
	return e.element(Expression(d, expr), timeout)
}

// WaitForAlert waits for a dialog and returns its text.
func (e *Engine) WaitForAlert(timeout ...time.Duration) (string, error) {
	res, err := e.Await(AlertPresent(), e.budget(timeout))
	if err != nil {
		return "", err
	}
	text, _ := res.Value.(string)
	return text, nil
}

// WaitForWebElementToBeVisible waits for el to be displayed.
func (e *Engine) WaitForWebElementToBeVisible(el core.Element, timeout ...time.Duration) error {
	return e.holds(ElementVisible(el), timeout)
}

// WaitForWebElementToBeClickable waits for el to be displayed and enabled.
func (e *Engine) WaitForWebElementToBeClickable(el core.Element, timeout ...time.Duration) error {
	return e.holds(ElementClickable(el), timeout)
}

// WaitForWebElementToBeSelected waits for el to be selected.
func (e *Engine) WaitForWebElementToBeSelected(el core.Element, timeout ...time.Duration) error {
	return e.holds(ElementSelected(el), timeout)
}

// WaitForWebElementToDisappear waits for el to be hidden or detached.
func (e *Engine) WaitForWebElementToDisappear(el core.Element, timeout ...time.Duration) error {
	return e.holds(ElementInvisible(el), timeout)
}

// WaitForWebElementListToDisappear waits for every element of els to be
// hidden or detached.
func (e *Engine) WaitForWebElementListToDisappear(els []core.Element, timeout ...time.Duration) error {
	return e.holds(ElementsInvisible(els), timeout)
}
