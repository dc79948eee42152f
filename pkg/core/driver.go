package core

import (
	"time"
)

// W3C WebDriver locator strategies ("using" values) understood by the
// session backends. Mobile values are Appium extensions.
const (
	UsingXPath              = "xpath"
	UsingID                 = "id"
	UsingName               = "name"
	UsingClassName          = "class name"
	UsingCSS                = "css selector"
	UsingLinkText           = "link text"
	UsingPartialLinkText    = "partial link text"
	UsingTagName            = "tag name"
	UsingAccessibilityID    = "accessibility id"
	UsingAndroidViewTag     = "-android viewtag"
	UsingAndroidUIAutomator = "-android uiautomator"
	UsingIOSPredicate       = "-ios predicate string"
	UsingIOSClassChain      = "-ios class chain"
	UsingImage              = "-image"
)

// Session is one automation session owned by a single scenario.
// Implementations: Selenium (web/hybrid), Appium (android/ios), mock.
// A Session is not safe for concurrent use.
type Session interface {
	// Platform returns the active platform of this session
	Platform() Platform

	// FindElement looks up the first element matching a W3C strategy.
	// Returns ErrElementNotFound when nothing matches.
	FindElement(using, value string) (Element, error)

	// FindElements looks up all matching elements. An empty result is not an error.
	FindElements(using, value string) ([]Element, error)

	// ExecuteScript runs a synchronous script. Element arguments are passed
	// by reference; elements in the result are returned as Element values.
	ExecuteScript(script string, args ...interface{}) (interface{}, error)

	// ExecuteAsyncScript runs a script that signals completion through its
	// last argument callback.
	ExecuteAsyncScript(script string, args ...interface{}) (interface{}, error)

	// Alert handling. Returns ErrNoSuchAlert when no alert is open.
	AcceptAlert() error
	DismissAlert() error
	AlertText() (string, error)

	// WindowSize returns the viewport size in pixels
	WindowSize() (width, height int, err error)

	// Swipe performs a single-finger drag (mobile only)
	Swipe(startX, startY, endX, endY int, duration time.Duration) error
}

// Element is an opaque element reference scoped to the page or screen that
// produced it. Calls on a detached element return ErrStaleElement.
type Element interface {
	ID() string
	Text() (string, error)
	Attribute(name string) (string, error)
	IsDisplayed() (bool, error)
	IsEnabled() (bool, error)
	IsSelected() (bool, error)
	Rect() (Bounds, error)
}

// Bounds represents element position and size
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the center point of the bounds
func (b Bounds) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Contains checks if a point is within the bounds
func (b Bounds) Contains(x, y int) bool {
	return x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height
}

// ElementSnapshot is a point-in-time copy of an element's observable state.
type ElementSnapshot struct {
	Text       string            `json:"text"`
	Displayed  bool              `json:"displayed"`
	Enabled    bool              `json:"enabled"`
	Selected   bool              `json:"selected"`
	Bounds     Bounds            `json:"bounds"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Snapshot reads text, state flags, bounds and the named attributes of el.
// The first error aborts the snapshot.
func Snapshot(el Element, attributes ...string) (*ElementSnapshot, error) {
	if el == nil {
		return nil, ErrNilElement
	}
	snap := &ElementSnapshot{}
	var err error
	if snap.Text, err = el.Text(); err != nil {
		return nil, err
	}
	if snap.Displayed, err = el.IsDisplayed(); err != nil {
		return nil, err
	}
	if snap.Enabled, err = el.IsEnabled(); err != nil {
		return nil, err
	}
	if snap.Selected, err = el.IsSelected(); err != nil {
		return nil, err
	}
	if snap.Bounds, err = el.Rect(); err != nil {
		return nil, err
	}
	if len(attributes) > 0 {
		snap.Attributes = make(map[string]string, len(attributes))
		for _, name := range attributes {
			v, err := el.Attribute(name)
			if err != nil {
				return nil, err
			}
			snap.Attributes[name] = v
		}
	}
	return snap, nil
}
