// Package selenium adapts a tebeka/selenium WebDriver to core.Session for
// web and hybrid pages.
package selenium

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/devicelab-dev/locator-runner/pkg/core"
	"github.com/tebeka/selenium"
)

// W3C and legacy keys of a serialized element reference.
const (
	w3cElementKey    = "element-6066-11e4-a52e-4f735466cecf"
	legacyElementKey = "ELEMENT"
)

const windowSizeScript = `return [window.innerWidth, window.innerHeight];`

var (
	_ core.Session = (*Session)(nil)
	_ core.Element = (*Element)(nil)
)

// Session wraps a selenium.WebDriver.
type Session struct {
	wd       selenium.WebDriver
	platform core.Platform
}

// Connect opens a remote WebDriver session at url.
func Connect(url string, caps map[string]interface{}, platform core.Platform) (*Session, error) {
	if platform == "" {
		platform = core.PlatformWeb
	}
	if platform.IsMobile() {
		return nil, core.ErrInvalidConfig.WithMessagef("selenium sessions drive web pages, not %s", platform)
	}
	c := selenium.Capabilities{}
	for k, v := range caps {
		c[k] = v
	}
	if _, ok := c["browserName"]; !ok {
		c["browserName"] = "chrome"
	}
	wd, err := selenium.NewRemote(c, url)
	if err != nil {
		return nil, core.ErrServerUnreachable.WithMessagef("failed to create webdriver at %s", url).WithCause(err)
	}
	return New(wd, platform), nil
}

// New wraps an existing WebDriver.
func New(wd selenium.WebDriver, platform core.Platform) *Session {
	return &Session{wd: wd, platform: platform}
}

// WebDriver returns the wrapped driver.
func (s *Session) WebDriver() selenium.WebDriver {
	return s.wd
}

// Quit ends the remote session.
func (s *Session) Quit() error {
	return s.wd.Quit()
}

// Platform returns web or hybrid.
func (s *Session) Platform() core.Platform {
	return s.platform
}

// FindElement finds the first element.
func (s *Session) FindElement(using, value string) (core.Element, error) {
	we, err := s.wd.FindElement(using, value)
	if err != nil {
		return nil, translate(err)
	}
	if we == nil {
		return nil, nil
	}
	return &Element{we: we}, nil
}

// FindElements finds every matching element.
func (s *Session) FindElements(using, value string) ([]core.Element, error) {
	wes, err := s.wd.FindElements(using, value)
	if err != nil {
		return nil, translate(err)
	}
	return wrap(wes), nil
}

// ExecuteScript runs a synchronous script. Element arguments are sent as
// element references and elements in the result are decoded.
func (s *Session) ExecuteScript(script string, args ...interface{}) (interface{}, error) {
	raw, err := s.wd.ExecuteScriptRaw(script, unwrapArgs(args))
	if err != nil {
		return nil, translate(err)
	}
	return s.decode(raw)
}

// ExecuteAsyncScript runs an asynchronous script.
func (s *Session) ExecuteAsyncScript(script string, args ...interface{}) (interface{}, error) {
	raw, err := s.wd.ExecuteScriptAsyncRaw(script, unwrapArgs(args))
	if err != nil {
		return nil, translate(err)
	}
	return s.decode(raw)
}

// AcceptAlert accepts the open alert.
func (s *Session) AcceptAlert() error {
	return translate(s.wd.AcceptAlert())
}

// DismissAlert dismisses the open alert.
func (s *Session) DismissAlert() error {
	return translate(s.wd.DismissAlert())
}

// AlertText returns the open alert's text.
func (s *Session) AlertText() (string, error) {
	text, err := s.wd.AlertText()
	return text, translate(err)
}

// WindowSize returns the viewport size.
func (s *Session) WindowSize() (int, int, error) {
	v, err := s.wd.ExecuteScript(windowSizeScript, nil)
	if err != nil {
		return 0, 0, translate(err)
	}
	dims, ok := v.([]interface{})
	if !ok || len(dims) != 2 {
		return 0, 0, fmt.Errorf("unexpected window size %v", v)
	}
	w, wok := dims[0].(float64)
	h, hok := dims[1].(float64)
	if !wok || !hok {
		return 0, 0, fmt.Errorf("unexpected window size %v", v)
	}
	return int(w), int(h), nil
}

// Swipe is not available on web sessions.
func (s *Session) Swipe(startX, startY, endX, endY int, duration time.Duration) error {
	return fmt.Errorf("swipe is not supported on %s sessions", s.platform)
}

// decode turns a raw script response into Go values with elements wrapped.
func (s *Session) decode(raw []byte) (interface{}, error) {
	var reply struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("failed to decode script result: %w", err)
	}
	var v interface{}
	if len(reply.Value) > 0 {
		if err := json.Unmarshal(reply.Value, &v); err != nil {
			return nil, fmt.Errorf("failed to decode script result: %w", err)
		}
	}

	switch t := v.(type) {
	case map[string]interface{}:
		if isElement(t) {
			we, err := s.wd.DecodeElement(raw)
			if err != nil {
				return nil, err
			}
			return &Element{we: we}, nil
		}
	case []interface{}:
		if len(t) > 0 && allElements(t) {
			wes, err := s.wd.DecodeElements(raw)
			if err != nil {
				return nil, err
			}
			out := make([]interface{}, len(wes))
			for i, we := range wes {
				out[i] = &Element{we: we}
			}
			return out, nil
		}
	}
	return v, nil
}

func isElement(m map[string]interface{}) bool {
	if _, ok := m[w3cElementKey]; ok {
		return true
	}
	_, ok := m[legacyElementKey]
	return ok && len(m) <= 2
}

func allElements(items []interface{}) bool {
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok || !isElement(m) {
			return false
		}
	}
	return true
}

func wrap(wes []selenium.WebElement) []core.Element {
	out := make([]core.Element, len(wes))
	for i, we := range wes {
		out[i] = &Element{we: we}
	}
	return out
}

// unwrapArgs replaces our elements with the driver's own references.
func unwrapArgs(args []interface{}) []interface{} {
	out := make([]interface{}, len(args))
	for i, a := range args {
		if el, ok := a.(*Element); ok {
			out[i] = el.we
			continue
		}
		out[i] = a
	}
	return out
}

// translate maps W3C error codes onto the core taxonomy.
func translate(err error) error {
	if err == nil {
		return nil
	}
	code := err.Error()
	var se *selenium.Error
	if errors.As(err, &se) && se.Err != "" {
		code = se.Err
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

// Element wraps a selenium.WebElement.
type Element struct {
	we selenium.WebElement
	id string
}

// WebElement returns the wrapped element.
func (e *Element) WebElement() selenium.WebElement {
	return e.we
}

// ID returns the element reference, read from its JSON form.
func (e *Element) ID() string {
	if e.id != "" {
		return e.id
	}
	data, err := json.Marshal(e.we)
	if err != nil {
		return ""
	}
	var m map[string]string
	if json.Unmarshal(data, &m) == nil {
		if id := m[w3cElementKey]; id != "" {
			e.id = id
		} else {
			e.id = m[legacyElementKey]
		}
	}
	return e.id
}

func (e *Element) Text() (string, error) {
	v, err := e.we.Text()
	return v, translate(err)
}

func (e *Element) Attribute(name string) (string, error) {
	v, err := e.we.GetAttribute(name)
	if err != nil && strings.Contains(err.Error(), "nil return value") {
		// Absent attributes come back as null
		return "", nil
	}
	return v, translate(err)
}

func (e *Element) IsDisplayed() (bool, error) {
	v, err := e.we.IsDisplayed()
	return v, translate(err)
}

func (e *Element) IsEnabled() (bool, error) {
	v, err := e.we.IsEnabled()
	return v, translate(err)
}

func (e *Element) IsSelected() (bool, error) {
	v, err := e.we.IsSelected()
	return v, translate(err)
}

func (e *Element) Rect() (core.Bounds, error) {
	loc, err := e.we.Location()
	if err != nil {
		return core.Bounds{}, translate(err)
	}
	size, err := e.we.Size()
	if err != nil {
		return core.Bounds{}, translate(err)
	}
	return core.Bounds{X: loc.X, Y: loc.Y, Width: size.Width, Height: size.Height}, nil
}
