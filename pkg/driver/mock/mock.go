// Package mock provides a scripted session for testing without a browser or device.
package mock

import (
	"fmt"
	"strings"
	"time"

	"github.com/devicelab-dev/locator-runner/pkg/core"
)

var (
	_ core.Session = (*Session)(nil)
	_ core.Element = (*Element)(nil)
)

// Session is a scripted implementation of core.Session for testing.
type Session struct {
	// Configuration
	Config Config

	// Lookup table keyed by "using=value". Find overrides it when set.
	Elements map[string][]*Element
	Find     func(using, value string) ([]core.Element, error)

	// Script hooks. Nil hooks return nil, nil.
	Script      func(script string, args []interface{}) (interface{}, error)
	AsyncScript func(script string, args []interface{}) (interface{}, error)

	// Alert state
	AlertOpen    bool
	AlertMessage string
	AlertErr     error // Returned by every alert call when set

	// Internal state
	calls  []Call
	swipes []SwipeCall
}

// Config configures mock session behavior.
type Config struct {
	Platform     core.Platform
	WindowWidth  int
	WindowHeight int
	SwipeErr     error
}

// Call records one session method invocation.
type Call struct {
	Method string
	Args   string
}

// SwipeCall records one swipe gesture.
type SwipeCall struct {
	StartX, StartY, EndX, EndY int
	Duration                   time.Duration
}

// New creates a new mock session.
func New(cfg Config) *Session {
	if cfg.Platform == "" {
		cfg.Platform = core.PlatformWeb
	}
	if cfg.WindowWidth == 0 {
		cfg.WindowWidth = 1080
	}
	if cfg.WindowHeight == 0 {
		cfg.WindowHeight = 2400
	}
	return &Session{Config: cfg, Elements: make(map[string][]*Element)}
}

func key(using, value string) string {
	return using + "=" + value
}

// Add registers elements returned for a lookup.
func (s *Session) Add(using, value string, els ...*Element) {
	s.Elements[key(using, value)] = append(s.Elements[key(using, value)], els...)
}

// Remove drops every element registered for a lookup.
func (s *Session) Remove(using, value string) {
	delete(s.Elements, key(using, value))
}

func (s *Session) record(method string, args ...interface{}) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	s.calls = append(s.calls, Call{Method: method, Args: strings.Join(parts, ", ")})
}

// Calls returns every recorded invocation, oldest first.
func (s *Session) Calls() []Call {
	return append([]Call(nil), s.calls...)
}

// CallCount returns how many times method was invoked.
func (s *Session) CallCount(method string) int {
	n := 0
	for _, c := range s.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Methods returns the recorded method names in order.
func (s *Session) Methods() []string {
	out := make([]string, len(s.calls))
	for i, c := range s.calls {
		out[i] = c.Method
	}
	return out
}

// Swipes returns every recorded swipe.
func (s *Session) Swipes() []SwipeCall {
	return append([]SwipeCall(nil), s.swipes...)
}

// Platform returns the configured platform.
func (s *Session) Platform() core.Platform {
	return s.Config.Platform
}

func (s *Session) lookup(using, value string) ([]core.Element, error) {
	if s.Find != nil {
		return s.Find(using, value)
	}
	els := s.Elements[key(using, value)]
	out := make([]core.Element, len(els))
	for i, el := range els {
		out[i] = el
	}
	return out, nil
}

// FindElement returns the first registered element.
func (s *Session) FindElement(using, value string) (core.Element, error) {
	s.record("FindElement", using, value)
	els, err := s.lookup(using, value)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, core.ErrElementNotFound.WithMessagef("no element for %s %q", using, value)
	}
	return els[0], nil
}

// FindElements returns every registered element.
func (s *Session) FindElements(using, value string) ([]core.Element, error) {
	s.record("FindElements", using, value)
	return s.lookup(using, value)
}

// ExecuteScript runs the Script hook.
func (s *Session) ExecuteScript(script string, args ...interface{}) (interface{}, error) {
	s.record("ExecuteScript", script)
	if s.Script == nil {
		return nil, nil
	}
	return s.Script(script, args)
}

// ExecuteAsyncScript runs the AsyncScript hook.
func (s *Session) ExecuteAsyncScript(script string, args ...interface{}) (interface{}, error) {
	s.record("ExecuteAsyncScript", script)
	if s.AsyncScript == nil {
		return nil, nil
	}
	return s.AsyncScript(script, args)
}

// AcceptAlert closes an open alert.
func (s *Session) AcceptAlert() error {
	s.record("AcceptAlert")
	return s.closeAlert()
}

// DismissAlert closes an open alert.
func (s *Session) DismissAlert() error {
	s.record("DismissAlert")
	return s.closeAlert()
}

func (s *Session) closeAlert() error {
	if s.AlertErr != nil {
		return s.AlertErr
	}
	if !s.AlertOpen {
		return core.ErrNoSuchAlert
	}
	s.AlertOpen = false
	return nil
}

// AlertText returns the open alert's message.
func (s *Session) AlertText() (string, error) {
	s.record("AlertText")
	if s.AlertErr != nil {
		return "", s.AlertErr
	}
	if !s.AlertOpen {
		return "", core.ErrNoSuchAlert
	}
	return s.AlertMessage, nil
}

// WindowSize returns the configured window size.
func (s *Session) WindowSize() (int, int, error) {
	s.record("WindowSize")
	return s.Config.WindowWidth, s.Config.WindowHeight, nil
}

// Swipe records the gesture.
func (s *Session) Swipe(startX, startY, endX, endY int, duration time.Duration) error {
	s.record("Swipe", startX, startY, endX, endY)
	if s.Config.SwipeErr != nil {
		return s.Config.SwipeErr
	}
	s.swipes = append(s.swipes, SwipeCall{startX, startY, endX, endY, duration})
	return nil
}

// Element is a scripted core.Element.
type Element struct {
	ElementID string
	TextValue string
	Attrs     map[string]string
	Displayed bool
	Enabled   bool
	Selected  bool
	Bounds    core.Bounds

	// Detached makes every call fail with ErrStaleElement
	Detached bool
}

// NewElement creates a displayed, enabled element.
func NewElement(id, text string) *Element {
	return &Element{
		ElementID: id,
		TextValue: text,
		Attrs:     map[string]string{},
		Displayed: true,
		Enabled:   true,
		Bounds:    core.Bounds{X: 100, Y: 200, Width: 200, Height: 50},
	}
}

func (e *Element) stale() error {
	if e.Detached {
		return core.ErrStaleElement.WithMessagef("element %s is detached", e.ElementID)
	}
	return nil
}

func (e *Element) ID() string { return e.ElementID }

func (e *Element) Text() (string, error) {
	if err := e.stale(); err != nil {
		return "", err
	}
	return e.TextValue, nil
}

func (e *Element) Attribute(name string) (string, error) {
	if err := e.stale(); err != nil {
		return "", err
	}
	return e.Attrs[name], nil
}

func (e *Element) IsDisplayed() (bool, error) {
	if err := e.stale(); err != nil {
		return false, err
	}
	return e.Displayed, nil
}

func (e *Element) IsEnabled() (bool, error) {
	if err := e.stale(); err != nil {
		return false, err
	}
	return e.Enabled, nil
}

func (e *Element) IsSelected() (bool, error) {
	if err := e.stale(); err != nil {
		return false, err
	}
	return e.Selected, nil
}

func (e *Element) Rect() (core.Bounds, error) {
	if err := e.stale(); err != nil {
		return core.Bounds{}, err
	}
	return e.Bounds, nil
}
