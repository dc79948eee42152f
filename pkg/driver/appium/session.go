package appium

import (
	"errors"
	"strings"
	"time"

	"github.com/devicelab-dev/locator-runner/pkg/core"
)

var (
	_ core.Session = (*Session)(nil)
	_ core.Element = (*Element)(nil)
)

// Session adapts a Client to core.Session.
type Session struct {
	client   *Client
	platform core.Platform
}

// Connect creates an Appium session at serverURL. platform selects the
// dispatch table; it defaults to the platformName capability.
func Connect(serverURL string, caps map[string]interface{}, platform core.Platform) (*Session, error) {
	if caps == nil {
		caps = map[string]interface{}{}
	}
	if _, ok := caps["platformName"]; !ok && platform != "" {
		caps["platformName"] = string(platform)
	}

	client := NewClient(serverURL)
	if err := client.Connect(caps); err != nil {
		return nil, core.ErrServerUnreachable.WithMessagef("failed to create Appium session at %s", serverURL).WithCause(err)
	}
	if platform == "" {
		p, err := core.ParsePlatform(client.Platform())
		if err != nil {
			client.Disconnect()
			return nil, err
		}
		platform = p
	}
	return NewSession(client, platform), nil
}

// NewSession wraps a connected client.
func NewSession(client *Client, platform core.Platform) *Session {
	return &Session{client: client, platform: platform}
}

// Client returns the underlying W3C client.
func (s *Session) Client() *Client {
	return s.client
}

// Quit deletes the remote session.
func (s *Session) Quit() error {
	return s.client.Disconnect()
}

// Platform returns android or ios.
func (s *Session) Platform() core.Platform {
	return s.platform
}

func (s *Session) element(id string) core.Element {
	if id == "" {
		return nil
	}
	return &Element{client: s.client, id: id}
}

// FindElement finds the first matching element.
func (s *Session) FindElement(using, value string) (core.Element, error) {
	id, err := s.client.FindElement(using, value)
	if err != nil {
		return nil, translate(err)
	}
	return s.element(id), nil
}

// FindElements finds every matching element.
func (s *Session) FindElements(using, value string) ([]core.Element, error) {
	ids, err := s.client.FindElements(using, value)
	if err != nil {
		return nil, translate(err)
	}
	out := make([]core.Element, len(ids))
	for i, id := range ids {
		out[i] = s.element(id)
	}
	return out, nil
}

// ExecuteScript runs a synchronous script with element arguments sent as
// references. Elements in the result are wrapped.
func (s *Session) ExecuteScript(script string, args ...interface{}) (interface{}, error) {
	v, err := s.client.ExecuteSync(script, toWire(args))
	if err != nil {
		return nil, translate(err)
	}
	return s.fromWire(v), nil
}

// ExecuteAsyncScript runs an asynchronous script.
func (s *Session) ExecuteAsyncScript(script string, args ...interface{}) (interface{}, error) {
	v, err := s.client.ExecuteAsync(script, toWire(args))
	if err != nil {
		return nil, translate(err)
	}
	return s.fromWire(v), nil
}

// AcceptAlert accepts the open alert.
func (s *Session) AcceptAlert() error {
	return translate(s.client.AcceptAlert())
}

// DismissAlert dismisses the open alert.
func (s *Session) DismissAlert() error {
	return translate(s.client.DismissAlert())
}

// AlertText returns the open alert's text.
func (s *Session) AlertText() (string, error) {
	text, err := s.client.AlertText()
	return text, translate(err)
}

// WindowSize returns the screen size.
func (s *Session) WindowSize() (int, int, error) {
	w, h, err := s.client.WindowRect()
	return w, h, translate(err)
}

// Swipe performs a one-finger swipe.
func (s *Session) Swipe(startX, startY, endX, endY int, duration time.Duration) error {
	return translate(s.client.Swipe(startX, startY, endX, endY, int(duration.Milliseconds())))
}

func toWire(args []interface{}) []interface{} {
	out := make([]interface{}, len(args))
	for i, a := range args {
		if el, ok := a.(*Element); ok {
			out[i] = ElementRef(el.id)
			continue
		}
		out[i] = a
	}
	return out
}

func (s *Session) fromWire(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		if id := extractElementID(t); id != "" {
			return s.element(id)
		}
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = s.fromWire(item)
		}
		return out
	}
	return v
}

// translate maps W3C error codes onto the core taxonomy.
func translate(err error) error {
	if err == nil {
		return nil
	}
	code := err.Error()
	var we *W3CError
	if errors.As(err, &we) {
		code = we.Code
	}
	switch {
	case strings.Contains(code, "no such element"):
		return core.ErrElementNotFound.WithCause(err)
	case strings.Contains(code, "stale element reference"):
		return core.ErrStaleElement.WithCause(err)
	case strings.Contains(code, "no such alert"):
		return core.ErrNoSuchAlert.WithCause(err)
	}
	return err
}

// Element is a remote element reference.
type Element struct {
	client *Client
	id     string
}

// ID returns the W3C element reference.
func (e *Element) ID() string { return e.id }

func (e *Element) Text() (string, error) {
	v, err := e.client.GetElementText(e.id)
	return v, translate(err)
}

func (e *Element) Attribute(name string) (string, error) {
	v, err := e.client.GetElementAttribute(e.id, name)
	return v, translate(err)
}

func (e *Element) IsDisplayed() (bool, error) {
	v, err := e.client.IsElementDisplayed(e.id)
	return v, translate(err)
}

func (e *Element) IsEnabled() (bool, error) {
	v, err := e.client.IsElementEnabled(e.id)
	return v, translate(err)
}

func (e *Element) IsSelected() (bool, error) {
	v, err := e.client.IsElementSelected(e.id)
	return v, translate(err)
}

func (e *Element) Rect() (core.Bounds, error) {
	x, y, w, h, err := e.client.GetElementRect(e.id)
	if err != nil {
		return core.Bounds{}, translate(err)
	}
	return core.Bounds{X: x, Y: y, Width: w, Height: h}, nil
}
