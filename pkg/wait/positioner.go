package wait

import (
	"fmt"
	"time"

	"github.com/devicelab-dev/locator-runner/pkg/core"
	"github.com/devicelab-dev/locator-runner/pkg/logger"
	"go.uber.org/zap"
)

const centerScript = `arguments[0].scrollIntoView({block: 'center', inline: 'center'});`

// swipeDuration is the press-to-release time of a positioning swipe.
const swipeDuration = 500 * time.Millisecond

// Positioner scrolls an element toward the middle of the viewport.
type Positioner struct {
	log *logger.Logger
}

// NewPositioner creates a positioner that logs to log.
func NewPositioner(log *logger.Logger) *Positioner {
	if log == nil {
		log = logger.Nop()
	}
	return &Positioner{log: log}
}

// CenterInView moves el toward the center of the viewport. It never fails:
// problems such as a detached element are logged as warnings.
func (p *Positioner) CenterInView(session core.Session, el core.Element) {
	if err := p.center(session, el); err != nil {
		p.log.Warn(logger.IconViewport, "could not center element", zap.Error(err))
	}
}

func (p *Positioner) center(session core.Session, el core.Element) error {
	if el == nil {
		return core.ErrNilElement
	}
	if !session.Platform().IsMobile() {
		_, err := session.ExecuteScript(centerScript, el)
		return err
	}

	width, height, err := session.WindowSize()
	if err != nil {
		return err
	}
	rect, err := el.Rect()
	if err != nil {
		return err
	}
	g, ok := centeringSwipe(width, height, rect)
	if !ok {
		return nil
	}
	p.log.Write(logger.LevelInfo, logger.IconViewport, fmt.Sprintf("Swiping element %s toward the center", el.ID()))
	return session.Swipe(g.startX, g.startY, g.endX, g.endY, swipeDuration)
}

type gesture struct {
	startX, startY, endX, endY int
}

// centeringSwipe computes a vertical swipe that brings the center of r
// toward the middle of a width x height window. Presses stay between 1/8
// and 4/5 of the height. ok is false when r is already inside that band.
func centeringSwipe(width, height int, r core.Bounds) (gesture, bool) {
	top, bottom := height/8, height*4/5
	x := width / 2
	_, cy := r.Center()
	mid := height / 2

	switch {
	case cy > bottom:
		// Content moves up
		end := bottom - (cy - mid)
		if end < top {
			end = top
		}
		return gesture{x, bottom, x, end}, true
	case cy < top:
		// Content moves down
		end := top + (mid - cy)
		if end > bottom {
			end = bottom
		}
		return gesture{x, top, x, end}, true
	}
	return gesture{}, false
}
