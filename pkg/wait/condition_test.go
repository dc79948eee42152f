package wait

import (
	"testing"
	"time"

	"github.com/devicelab-dev/locator-runner/pkg/core"
	"github.com/devicelab-dev/locator-runner/pkg/driver/mock"
	"github.com/devicelab-dev/locator-runner/pkg/locator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditions_Locator(t *testing.T) {
	tests := []struct {
		name  string
		setup func(el *mock.Element)
		cond  func(d locator.Descriptor) Condition
		want  bool
	}{
		{"present", nil, Present, true},
		{"visible", nil, Visible, true},
		{"visible hidden", func(el *mock.Element) { el.Displayed = false }, Visible, false},
		{"clickable", nil, Clickable, true},
		{"clickable disabled", func(el *mock.Element) { el.Enabled = false }, Clickable, false},
		{"selected", func(el *mock.Element) { el.Selected = true }, Selected, true},
		{"not selected", nil, Selected, false},
		{"invisible shown", nil, Invisible, false},
		{"invisible hidden", func(el *mock.Element) { el.Displayed = false }, Invisible, true},
		{"attr equals", nil, func(d locator.Descriptor) Condition { return AttributeEquals(d, "type", "submit") }, true},
		{"attr equals other", nil, func(d locator.Descriptor) Condition { return AttributeEquals(d, "type", "sub") }, false},
		{"attr contains", nil, func(d locator.Descriptor) Condition { return AttributeContains(d, "class", "primary") }, true},
		{"text contains", nil, func(d locator.Descriptor) Condition { return TextContains(d, "Save") }, true},
		{"text missing", nil, func(d locator.Descriptor) Condition { return TextContains(d, "Cancel") }, false},
		{"list present", nil, ListPresent, true},
		{"list visible", nil, ListVisible, true},
		{"expression", nil, func(d locator.Descriptor) Condition {
			return Expression(d, "enabled && attr('type') === 'submit' && text.startsWith('Save')")
		}, true},
		{"expression false", nil, func(d locator.Descriptor) Condition { return Expression(d, "selected") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, core.PlatformWeb, "")
			el := mock.NewElement("btn", "Save changes")
			el.Attrs["type"] = "submit"
			el.Attrs["class"] = "btn btn-primary"
			if tt.setup != nil {
				tt.setup(el)
			}
			f.session.Add(core.UsingCSS, "button", el)

			_, err := f.engine.Await(tt.cond(locator.MustParse("css:button")), 0)
			if tt.want {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, core.ErrWaitTimeout)
			}
		})
	}
}

func TestConditions_ListVisibleNeedsEveryElement(t *testing.T) {
	f := newFixture(t, core.PlatformWeb, "")
	hidden := mock.NewElement("b", "")
	hidden.Displayed = false
	f.session.Add(core.UsingClassName, "item", mock.NewElement("a", ""), hidden)

	_, err := f.engine.WaitForElementListToBeVisible(locator.MustParse("class_name:item"), 0)
	require.ErrorIs(t, err, core.ErrWaitTimeout)

	hidden.Displayed = true
	els, err := f.engine.WaitForElementListToBeVisible(locator.MustParse("class_name:item"), 0)
	require.NoError(t, err)
	assert.Len(t, els, 2)
}

func TestConditions_ListPresentReturnsElements(t *testing.T) {
	f := newFixture(t, core.PlatformWeb, "")
	f.session.Add(core.UsingTagName, "li", mock.NewElement("a", ""), mock.NewElement("b", ""))

	els, err := f.engine.WaitForElementListToBePresent(locator.MustParse("tag_name:li"))

	require.NoError(t, err)
	assert.Len(t, els, 2)
}

func TestConditions_ElementBound(t *testing.T) {
	f := newFixture(t, core.PlatformWeb, "")
	el := mock.NewElement("e1", "")

	require.NoError(t, f.engine.WaitForWebElementToBeVisible(el, 0))
	require.NoError(t, f.engine.WaitForWebElementToBeClickable(el, 0))
	require.ErrorIs(t, f.engine.WaitForWebElementToBeSelected(el, 0), core.ErrWaitTimeout)
	require.ErrorIs(t, f.engine.WaitForWebElementToDisappear(el, 0), core.ErrWaitTimeout)

	el.Selected = true
	require.NoError(t, f.engine.WaitForWebElementToBeSelected(el, 0))

	// A bound element is positioned without a lookup
	assert.Zero(t, f.session.CallCount("FindElement"))
	assert.Equal(t, 5, f.session.CallCount("ExecuteScript"))
}

func TestConditions_DetachedElementHasDisappeared(t *testing.T) {
	f := newFixture(t, core.PlatformWeb, "")
	el := mock.NewElement("e1", "")
	el.Detached = true

	require.NoError(t, f.engine.WaitForWebElementToDisappear(el, 0))
}

func TestConditions_ElementListDisappears(t *testing.T) {
	f := newFixture(t, core.PlatformWeb, "")
	gone := mock.NewElement("a", "")
	gone.Detached = true
	hidden := mock.NewElement("b", "")
	hidden.Displayed = false
	shown := mock.NewElement("c", "")

	els := []core.Element{gone, hidden, shown}
	require.ErrorIs(t, f.engine.WaitForWebElementListToDisappear(els, 0), core.ErrWaitTimeout)

	shown.Displayed = false
	require.NoError(t, f.engine.WaitForWebElementListToDisappear(els, 0))
	require.NoError(t, f.engine.WaitForWebElementListToDisappear(nil, 0))
}

func TestConditions_BecomesTrueWhileWaiting(t *testing.T) {
	f := newFixture(t, core.PlatformWeb, "")
	el := mock.NewElement("status", "pending")
	el.Attrs["data-state"] = "pending"
	f.session.Add(core.UsingID, "status", el)

	ticks := 0
	f.session.Find = func(string, string) ([]core.Element, error) {
		ticks++
		if ticks == 3 {
			el.Attrs["data-state"] = "done"
		}
		return []core.Element{el}, nil
	}

	err := f.engine.WaitForAttributeToEqual(locator.MustParse("id:status"), "data-state", "done", 10*time.Second)

	require.NoError(t, err)
	assert.Len(t, f.clock.sleeps, 1)
}

func TestConditions_ExpressionErrorsPropagate(t *testing.T) {
	f := newFixture(t, core.PlatformWeb, "")
	f.session.Add(core.UsingID, "x", mock.NewElement("x", ""))

	_, err := f.engine.WaitForExpression(locator.MustParse("id:x"), "nope.value", 10*time.Second)

	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrWaitTimeout)
	assert.Empty(t, f.clock.sleeps)
}
