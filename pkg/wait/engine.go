// Package wait polls conditions over located elements and page state until
// they hold or a time budget runs out.
package wait

import (
	"errors"
	"fmt"
	"time"

	"github.com/devicelab-dev/locator-runner/pkg/core"
	"github.com/devicelab-dev/locator-runner/pkg/dispatch"
	"github.com/devicelab-dev/locator-runner/pkg/jsengine"
	"github.com/devicelab-dev/locator-runner/pkg/locator"
	"github.com/devicelab-dev/locator-runner/pkg/logger"
	"go.uber.org/zap"
)

// Default timing used when Options leave a field zero.
const (
	DefaultStandardWait    = 5 * time.Second
	DefaultPollingInterval = 1 * time.Second
)

// MinExpressionBudget is the least time an expression evaluation is given,
// even when the wait's deadline has already passed.
const MinExpressionBudget = 250 * time.Millisecond

// DetailLastError holds the last retried lookup error of a timed out wait.
const DetailLastError = "last_error"

// Clock is the time source of the poll loop.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// Options configure an Engine.
type Options struct {
	StandardWait    time.Duration // Timeout of waits that do not name one
	PollingInterval time.Duration
	Logger          *logger.Logger
	Clock           Clock

	// Variables supplies extra globals to expression conditions. It is
	// called once per expression wait.
	Variables func() map[string]interface{}
}

// Engine runs waits for one scenario. It is not safe for concurrent use.
type Engine struct {
	session    core.Session
	resolver   *locator.Resolver
	router     *dispatch.Router
	positioner *Positioner
	js         *jsengine.Engine
	log        *logger.Logger
	clock      Clock
	standard   time.Duration
	interval   time.Duration
	variables  func() map[string]interface{}
}

// New creates an engine dispatching through router. resolver substitutes
// parameters in locator-bound conditions and may be nil when locators never
// carry tokens.
func New(router *dispatch.Router, resolver *locator.Resolver, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	if opts.StandardWait < 0 {
		opts.StandardWait = 0
	} else if opts.StandardWait == 0 {
		opts.StandardWait = DefaultStandardWait
	}
	if opts.PollingInterval <= 0 {
		opts.PollingInterval = DefaultPollingInterval
	}
	if resolver == nil {
		resolver = locator.NewResolver(nil, nil)
	}
	return &Engine{
		session:    router.Session(),
		resolver:   resolver,
		router:     router,
		positioner: NewPositioner(opts.Logger),
		js:         jsengine.New(opts.Logger),
		log:        opts.Logger,
		clock:      opts.Clock,
		standard:   opts.StandardWait,
		interval:   opts.PollingInterval,
		variables:  opts.Variables,
	}
}

// StandardWait returns the timeout used when a wait does not name one.
func (e *Engine) StandardWait() time.Duration {
	return e.standard
}

// PollingInterval returns the time between two evaluations.
func (e *Engine) PollingInterval() time.Duration {
	return e.interval
}

// Result is the outcome of a satisfied wait.
type Result struct {
	Value    interface{} // Element, []core.Element, bool or alert text, depending on the condition
	Elapsed  time.Duration
	Attempts int
}

// Element returns the value as a single element, or nil.
func (r *Result) Element() core.Element {
	el, _ := r.Value.(core.Element)
	return el
}

// Elements returns the value as an element list, or nil.
func (r *Result) Elements() []core.Element {
	els, _ := r.Value.([]core.Element)
	return els
}

// Await evaluates cond until it holds or timeout elapses. A timeout of zero
// or less evaluates exactly once.
//
// Locator-bound conditions are resolved and planned first; failures there
// are returned immediately. A blocking dialog is then accepted and the
// target is centered in the viewport, both best-effort and both exactly
// once. The poll loop retries transient lookup errors only. Every other
// error is returned as-is, and running out of time is ErrWaitTimeout
// carrying the elapsed time and the condition description.
func (e *Engine) Await(cond Condition, timeout time.Duration) (*Result, error) {
	start := e.clock.Now()
	desc := cond.String()

	e.log.Write(logger.LevelInfo, logger.IconWait, "Waiting for "+desc, zap.Duration("timeout", timeout))

	if cond.Check == nil {
		return nil, e.fail(desc, start, 0, core.ErrInvalidConfig.WithMessagef("condition %q has no check", desc))
	}

	deadline := start.Add(timeout)
	att := &Attempt{
		Session:  e.session,
		Router:   e.router,
		JS:       e.js,
		Element:  cond.Element,
		Elements: cond.Elements,
		deadline: deadline,
		now:      e.clock.Now,
	}

	if cond.Locator != nil {
		resolved, err := e.resolver.ResolveDescriptor(*cond.Locator)
		if err != nil {
			return nil, e.fail(desc, start, 0, err)
		}
		if _, err := e.router.Plan(resolved); err != nil {
			return nil, e.fail(desc, start, 0, err)
		}
		att.Locator = resolved
		att.hasLocator = true
	}

	if !cond.KeepDialog {
		e.dismissDialog()
	}

	if cond.Kind == KindExpression && e.variables != nil {
		e.js.SetVariables(e.variables())
	}

	e.position(att)

	var lastErr error
	for attempts := 1; ; attempts++ {
		value, ok, err := cond.Check(att)
		switch {
		case errors.Is(err, core.ErrWaitTimeout):
			return nil, e.timeout(desc, start, attempts, err)
		case err != nil && !core.IsTransient(err):
			return nil, e.fail(desc, start, attempts, err)
		case err != nil:
			lastErr = err
		case ok:
			elapsed := e.clock.Now().Sub(start)
			e.log.Write(logger.LevelInfo, logger.IconSuccess, fmt.Sprintf("Succeeded after %.1f seconds.", elapsed.Seconds()),
				zap.String("condition", desc), zap.Int("attempts", attempts))
			return &Result{Value: value, Elapsed: elapsed, Attempts: attempts}, nil
		}

		now := e.clock.Now()
		if timeout <= 0 || !now.Before(deadline) {
			return nil, e.timeout(desc, start, attempts, lastErr)
		}
		sleep := e.interval
		if remaining := deadline.Sub(now); remaining < sleep {
			sleep = remaining
		}
		e.clock.Sleep(sleep)
	}
}

// dismissDialog accepts a blocking alert if one is open.
func (e *Engine) dismissDialog() {
	err := e.session.AcceptAlert()
	switch {
	case err == nil:
		e.log.Write(logger.LevelImportant, logger.IconDialog, "Accepted blocking dialog")
	case errors.Is(err, core.ErrNoSuchAlert):
	default:
		e.log.Warn(logger.IconDialog, "could not accept dialog", zap.Error(err))
	}
}

// position centers the wait target once. Lookup or scroll failures are
// logged and the wait continues.
func (e *Engine) position(att *Attempt) {
	el := att.Element
	switch {
	case el != nil:
	case len(att.Elements) > 0:
		el = att.Elements[0]
	case att.hasLocator:
		h, err := e.router.Single(att.Locator)
		if err != nil {
			e.log.Warn(logger.IconViewport, "positioning skipped", zap.String("locator", att.Locator.String()), zap.Error(err))
			return
		}
		el = h.Element
	default:
		return
	}
	e.positioner.CenterInView(e.session, el)
}

func (e *Engine) fail(desc string, start time.Time, attempts int, err error) error {
	elapsed := e.clock.Now().Sub(start)
	e.log.Write(logger.LevelError, logger.IconFailure, "Wait for "+desc+" failed.",
		zap.Duration("elapsed", elapsed), zap.Int("attempts", attempts), zap.Error(err))
	return err
}

func (e *Engine) timeout(desc string, start time.Time, attempts int, lastErr error) error {
	elapsed := e.clock.Now().Sub(start)
	e.log.Write(logger.LevelError, logger.IconFailure, fmt.Sprintf("Wait for %s timed out after %.1f seconds.", desc, elapsed.Seconds()),
		zap.Int("attempts", attempts))
	details := map[string]interface{}{
		core.DetailElapsed:   elapsed,
		core.DetailCondition: desc,
		core.DetailAttempts:  attempts,
	}
	// The last transient error is kept as text only so the timeout never
	// matches the retryable set itself.
	if lastErr != nil {
		details[DetailLastError] = lastErr.Error()
	}
	return core.ErrWaitTimeout.
		WithMessagef("timed out after %s waiting for %s", elapsed, desc).
		WithDetails(details)
}
