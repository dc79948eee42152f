package appium

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/devicelab-dev/locator-runner/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		err  error
		want error
	}{
		{&W3CError{Code: "no such element"}, core.ErrElementNotFound},
		{&W3CError{Code: "stale element reference"}, core.ErrStaleElement},
		{&W3CError{Code: "no such alert"}, core.ErrNoSuchAlert},
		{errors.New("no such element: none"), core.ErrElementNotFound},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, translate(tt.err), tt.want)
	}

	opaque := &W3CError{Code: "invalid session id"}
	assert.Same(t, opaque, translate(opaque))
	assert.NoError(t, translate(nil))
}

func TestSession_FindElement(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["value"] == "login" {
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{w3cElementKey: "el-1"},
			})
			return
		}
		writeW3CError(w, http.StatusNotFound, "no such element", "not found")
	})
	s := NewSession(client, core.PlatformAndroid)

	el, err := s.FindElement(core.UsingAccessibilityID, "login")
	require.NoError(t, err)
	assert.Equal(t, "el-1", el.ID())

	_, err = s.FindElement(core.UsingAccessibilityID, "missing")
	assert.ErrorIs(t, err, core.ErrElementNotFound)
	assert.True(t, core.IsTransient(err))
}

func TestSession_FindElementsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"value": []interface{}{}})
	})
	s := NewSession(client, core.PlatformIOS)

	els, err := s.FindElements(core.UsingClassName, "XCUIElementTypeCell")
	require.NoError(t, err)
	assert.Empty(t, els)
}

func TestSession_ExecuteScriptWrapsElements(t *testing.T) {
	var body map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, map[string]interface{}{
			"value": []interface{}{
				map[string]interface{}{w3cElementKey: "a"},
				"plain",
			},
		})
	})
	s := NewSession(client, core.PlatformAndroid)

	v, err := s.ExecuteScript("mobile: scroll", &Element{client: client, id: "arg-1"}, 3)
	require.NoError(t, err)

	args := body["args"].([]interface{})
	require.Len(t, args, 2)
	assert.Equal(t, "arg-1", args[0].(map[string]interface{})[w3cElementKey])
	assert.Equal(t, 3.0, args[1])

	items := v.([]interface{})
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].(core.Element).ID())
	assert.Equal(t, "plain", items[1])
}

func TestSession_AlertErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeW3CError(w, http.StatusNotFound, "no such alert", "no alert open")
	})
	s := NewSession(client, core.PlatformIOS)

	assert.ErrorIs(t, s.AcceptAlert(), core.ErrNoSuchAlert)
	assert.ErrorIs(t, s.DismissAlert(), core.ErrNoSuchAlert)
	_, err := s.AlertText()
	assert.ErrorIs(t, err, core.ErrNoSuchAlert)
}

func TestSession_SwipeSendsMilliseconds(t *testing.T) {
	var body map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, map[string]interface{}{"value": nil})
	})
	s := NewSession(client, core.PlatformAndroid)

	require.NoError(t, s.Swipe(500, 1600, 500, 900, 500*time.Millisecond))
	pointer := body["actions"].([]interface{})[0].(map[string]interface{})
	move := pointer["actions"].([]interface{})[2].(map[string]interface{})
	assert.Equal(t, 500.0, move["duration"])
	assert.Equal(t, 900.0, move["y"])
}

func TestElement_StaleErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeW3CError(w, http.StatusNotFound, "stale element reference", "element is gone")
	})
	el := &Element{client: client, id: "el-1"}

	_, err := el.IsDisplayed()
	assert.ErrorIs(t, err, core.ErrStaleElement)
	_, err = el.Rect()
	assert.ErrorIs(t, err, core.ErrStaleElement)
	_, err = core.Snapshot(el)
	assert.True(t, core.IsTransient(err))
}

func TestElement_Snapshot(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/session/test-session/element/el-1/text":
			writeJSON(w, map[string]interface{}{"value": "Continue"})
		case "/session/test-session/element/el-1/displayed",
			"/session/test-session/element/el-1/enabled":
			writeJSON(w, map[string]interface{}{"value": true})
		case "/session/test-session/element/el-1/selected":
			writeJSON(w, map[string]interface{}{"value": false})
		case "/session/test-session/element/el-1/rect":
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{"x": 1.0, "y": 2.0, "width": 3.0, "height": 4.0},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	el := &Element{client: client, id: "el-1"}

	snap, err := core.Snapshot(el)
	require.NoError(t, err)
	assert.Equal(t, "Continue", snap.Text)
	assert.True(t, snap.Displayed)
	assert.False(t, snap.Selected)
	assert.Equal(t, core.Bounds{X: 1, Y: 2, Width: 3, Height: 4}, snap.Bounds)
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect("http://127.0.0.1:1", nil, core.PlatformAndroid)
	assert.ErrorIs(t, err, core.ErrServerUnreachable)
}
