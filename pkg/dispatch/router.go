package dispatch

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/devicelab-dev/locator-runner/pkg/core"
	"github.com/devicelab-dev/locator-runner/pkg/locator"
	"github.com/devicelab-dev/locator-runner/pkg/logger"
	"go.uber.org/zap"
)

// Handle is a single element found by a dispatch. Handles are created per
// call and never cached.
type Handle struct {
	Platform core.Platform
	Locator  locator.Descriptor
	Element  core.Element
}

// Handles is an ordered list of elements found by a dispatch.
type Handles struct {
	Platform core.Platform
	Locator  locator.Descriptor
	Elements []core.Element
}

// Len returns the number of elements.
func (h *Handles) Len() int {
	if h == nil {
		return 0
	}
	return len(h.Elements)
}

// Tracker is notified of every successful single-element dispatch.
type Tracker interface {
	Track(d locator.Descriptor)
}

// Router dispatches resolved descriptors against one session.
// It belongs to a single scenario.
type Router struct {
	session  core.Session
	tracker  Tracker
	log      *logger.Logger
	opts     Options
	readFile func(string) ([]byte, error)
}

// NewRouter creates a router for session. tracker may be nil.
func NewRouter(session core.Session, tracker Tracker, log *logger.Logger, opts Options) *Router {
	if log == nil {
		log = logger.Nop()
	}
	return &Router{
		session:  session,
		tracker:  tracker,
		log:      log,
		opts:     opts,
		readFile: os.ReadFile,
	}
}

// Session returns the session the router dispatches against.
func (r *Router) Session() core.Session {
	return r.session
}

// Plan maps d onto the session platform's dispatch table without touching the session.
func (r *Router) Plan(d locator.Descriptor) (Lookup, error) {
	return Plan(r.session.Platform(), d, r.opts)
}

// Single finds the first element matching d. d must already be resolved.
// The frame tracker is notified on success.
func (r *Router) Single(d locator.Descriptor) (*Handle, error) {
	l, err := r.Plan(d)
	if err != nil {
		return nil, err
	}
	r.log.Write(logger.LevelInfo, logger.IconLocator, "Locator = "+l.String())

	var el core.Element
	if l.IsScript() {
		els, err := r.runScript(l)
		if err != nil {
			return nil, err
		}
		if len(els) == 0 {
			return nil, core.ErrElementNotFound.WithMessagef("no element for %s", d.String())
		}
		el = els[0]
	} else {
		value, err := r.lookupValue(l)
		if err != nil {
			return nil, err
		}
		el, err = r.session.FindElement(l.Using, value)
		if err != nil {
			return nil, err
		}
	}
	if el == nil {
		return nil, core.ErrNilElement.WithMessagef("lookup of %s returned no reference", d.String())
	}

	if r.tracker != nil {
		r.tracker.Track(d)
	}
	return &Handle{Platform: l.Platform, Locator: d, Element: el}, nil
}

// Many finds every element matching d. An empty result is ErrElementNotFound.
func (r *Router) Many(d locator.Descriptor) (*Handles, error) {
	l, err := r.Plan(d)
	if err != nil {
		return nil, err
	}
	r.log.Write(logger.LevelInfo, logger.IconLocator, "Locators = "+l.String())

	var els []core.Element
	if l.IsScript() {
		els, err = r.runScript(l)
	} else {
		var value string
		if value, err = r.lookupValue(l); err == nil {
			els, err = r.session.FindElements(l.Using, value)
		}
	}
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, core.ErrElementNotFound.WithMessagef("no elements for %s", d.String())
	}
	for _, el := range els {
		if el == nil {
			return nil, core.ErrNilElement.WithMessagef("lookup of %s returned a nil reference", d.String())
		}
	}
	return &Handles{Platform: l.Platform, Locator: d, Elements: els}, nil
}

// lookupValue returns the value sent to the session. Image locators carry a
// file path and are sent base64 encoded.
func (r *Router) lookupValue(l Lookup) (string, error) {
	if l.Using != core.UsingImage {
		return l.Value, nil
	}
	data, err := r.readFile(l.Value)
	if err != nil {
		return "", core.ErrInvalidLocator.WithMessagef("image %s could not be read", l.Value).WithCause(err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func (r *Router) runScript(l Lookup) ([]core.Element, error) {
	if r.opts.WaitForRequests {
		r.waitForRequests()
	}
	result, err := r.session.ExecuteScript(l.Script, l.Args...)
	if err != nil {
		return nil, err
	}
	return toElements(result)
}

// waitForRequests lets pending framework requests finish. Failures are logged only.
func (r *Router) waitForRequests() {
	result, err := r.session.ExecuteAsyncScript(waitForRequestsScript, r.opts.RootSelector)
	if err != nil {
		r.log.Warn(logger.IconLocator, "waiting for framework requests failed", zap.Error(err))
		return
	}
	if msg, ok := result.(string); ok && msg != "" {
		r.log.Warn(logger.IconLocator, "waiting for framework requests failed", zap.String("reason", msg))
	}
}

// toElements converts a finder script result into elements.
func toElements(v interface{}) ([]core.Element, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case core.Element:
		return []core.Element{t}, nil
	case []core.Element:
		return t, nil
	case []interface{}:
		out := make([]core.Element, 0, len(t))
		for i, item := range t {
			el, ok := item.(core.Element)
			if !ok {
				return nil, fmt.Errorf("finder script result[%d] is %T, not an element", i, item)
			}
			out = append(out, el)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("finder script returned %T, not elements", v)
	}
}
