// Package jsengine evaluates JavaScript condition expressions against elements.
package jsengine

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/devicelab-dev/locator-runner/pkg/core"
	"github.com/devicelab-dev/locator-runner/pkg/logger"
	"github.com/dop251/goja"
)

// Engine wraps a goja runtime. Expressions see the element under test as
// the globals text, displayed, enabled, selected, bounds and attr(name).
type Engine struct {
	runtime *goja.Runtime
	log     *logger.Logger
	callErr error // Go error raised by a host function during the current run
	mu      sync.Mutex
}

// errBudgetExceeded is the interrupt value of a run that used up its budget.
var errBudgetExceeded = errors.New("expression budget exceeded")

// New creates an engine. log receives console output; nil discards it.
func New(log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	e := &Engine{
		runtime: goja.New(),
		log:     log,
	}
	e.setupBuiltins()
	return e
}

func (e *Engine) setupBuiltins() {
	e.setupConsole()
	e.runtime.Set("json", e.jsonFunc())
}

// setupConsole routes console.log/warn/error to the trace logger.
func (e *Engine) setupConsole() {
	makeConsoleFunc := func(level logger.Level) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			args := make([]interface{}, len(call.Arguments))
			for i, arg := range call.Arguments {
				args[i] = arg.Export()
			}
			e.log.Write(level, logger.IconWait, "expression: "+strings.TrimSuffix(fmt.Sprintln(args...), "\n"))
			return goja.Undefined()
		}
	}

	console := e.runtime.NewObject()
	console.Set("log", makeConsoleFunc(logger.LevelInfo))
	console.Set("warn", makeConsoleFunc(logger.LevelImportant))
	console.Set("error", makeConsoleFunc(logger.LevelError))
	e.runtime.Set("console", console)
}

// jsonFunc parses a JSON string with JSON.parse, e.g. json(attr('data-state')).ready
func (e *Engine) jsonFunc() func(goja.FunctionCall) goja.Value {
	jsonObj := e.runtime.Get("JSON").ToObject(e.runtime)
	parse, _ := goja.AssertFunction(jsonObj.Get("parse"))
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return goja.Undefined()
		}
		result, err := parse(jsonObj, call.Arguments[0])
		if err != nil {
			panic(e.runtime.NewTypeError("invalid JSON: " + err.Error()))
		}
		return result
	}
}

// SetVariable sets a global visible to every later expression.
func (e *Engine) SetVariable(name string, value interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.runtime.Set(name, value)
}

// SetVariables sets several globals.
func (e *Engine) SetVariables(vars map[string]interface{}) {
	for k, v := range vars {
		e.SetVariable(k, v)
	}
}

// EvalBool evaluates an expression and converts the result with JavaScript
// truthiness. A budget greater than zero bounds the run; a script still
// running when it expires is interrupted and ErrWaitTimeout is returned.
func (e *Engine) EvalBool(script string, budget time.Duration) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, err := e.run(script, budget)
	if err != nil {
		return false, err
	}
	return v.ToBoolean(), nil
}

// run executes script with e.mu held. A Go error raised by a host function
// is returned unchanged so callers can classify it.
func (e *Engine) run(script string, budget time.Duration) (goja.Value, error) {
	e.callErr = nil
	if budget > 0 {
		fired := make(chan struct{})
		timer := time.AfterFunc(budget, func() {
			e.runtime.Interrupt(errBudgetExceeded)
			close(fired)
		})
		defer func() {
			if !timer.Stop() {
				<-fired
			}
			e.runtime.ClearInterrupt()
		}()
	}

	v, err := e.runtime.RunString(script)
	if e.callErr != nil {
		callErr := e.callErr
		e.callErr = nil
		return nil, callErr
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return nil, core.ErrWaitTimeout.WithMessagef("expression %q still running after %s", script, budget)
	}
	if err != nil {
		return nil, fmt.Errorf("JS eval error: %w", err)
	}
	return v, nil
}

// EvaluateElement snapshots el, binds it to the element globals and
// evaluates expr within budget. Lookup errors from the element (for example
// a stale reference) are returned as-is.
func (e *Engine) EvaluateElement(expr string, el core.Element, budget time.Duration) (bool, error) {
	snap, err := core.Snapshot(el)
	if err != nil {
		return false, err
	}

	e.mu.Lock()
	e.bindSnapshot(snap)
	e.runtime.Set("attr", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		v, err := el.Attribute(name)
		if err != nil {
			e.callErr = err
			panic(e.runtime.NewGoError(err))
		}
		return e.runtime.ToValue(v)
	})
	e.mu.Unlock()

	return e.EvalBool(expr, budget)
}

func (e *Engine) bindSnapshot(snap *core.ElementSnapshot) {
	e.runtime.Set("text", snap.Text)
	e.runtime.Set("displayed", snap.Displayed)
	e.runtime.Set("enabled", snap.Enabled)
	e.runtime.Set("selected", snap.Selected)
	e.runtime.Set("bounds", map[string]interface{}{
		"x":      snap.Bounds.X,
		"y":      snap.Bounds.Y,
		"width":  snap.Bounds.Width,
		"height": snap.Bounds.Height,
	})
}

// Compile checks that expr parses without running it.
func Compile(expr string) error {
	if _, err := goja.Compile("condition", expr, false); err != nil {
		return core.ErrInvalidConfig.WithMessagef("expression %q does not parse", expr).WithCause(err)
	}
	return nil
}
