// Package executor owns the per-scenario context that locator resolution and
// waits run in, and runs scenarios across one or more sessions.
package executor

import (
	"fmt"
	"time"

	"github.com/devicelab-dev/locator-runner/pkg/config"
	"github.com/devicelab-dev/locator-runner/pkg/core"
	"github.com/devicelab-dev/locator-runner/pkg/dispatch"
	"github.com/devicelab-dev/locator-runner/pkg/frame"
	"github.com/devicelab-dev/locator-runner/pkg/locator"
	"github.com/devicelab-dev/locator-runner/pkg/logger"
	"github.com/devicelab-dev/locator-runner/pkg/store"
	"github.com/devicelab-dev/locator-runner/pkg/wait"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options configure a Scenario.
type Options struct {
	Name            string
	Saved           map[string]string   // Seed saved values
	PropertiesDir   string              // Where <namespace>.properties live
	Repository      *locator.Repository // Optional page-object locators
	StandardWait    time.Duration
	PollingInterval time.Duration
	Dispatch        dispatch.Options
	Logger          *logger.Logger
	Clock           wait.Clock // Nil uses the wall clock
	FrameHistory    int
}

// OptionsFromConfig maps the workspace configuration onto scenario options.
func OptionsFromConfig(cfg *config.Config, log *logger.Logger) Options {
	return Options{
		Saved:           cfg.Saved,
		PropertiesDir:   cfg.PropertiesDir,
		StandardWait:    cfg.StandardWait(),
		PollingInterval: cfg.PollingInterval(),
		Dispatch: dispatch.Options{
			RootSelector:    cfg.Reactive.RootSelector,
			WaitForRequests: cfg.Reactive.WaitForRequests,
		},
		Logger: log,
	}
}

// Scenario is the explicit context of one running scenario. Saved values,
// frame history and the trace logger belong to it alone. A Scenario is not
// safe for concurrent use.
type Scenario struct {
	ID   string
	Name string

	session  core.Session
	saved    *store.SavedValues
	props    *store.PropertyFiles
	repo     *locator.Repository
	frames   *frame.Recorder
	log      *logger.Logger
	router   *dispatch.Router
	resolver *locator.Resolver
	waits    *wait.Engine
}

// NewScenario creates a scenario driving session.
func NewScenario(session core.Session, opts Options) *Scenario {
	id := uuid.NewString()
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(zap.String("scenario_id", id), zap.String("scenario", opts.Name))

	saved := store.NewSavedValues(opts.Saved)
	props := store.NewPropertyFiles(opts.PropertiesDir)
	frames := frame.NewRecorder(opts.FrameHistory)
	router := dispatch.NewRouter(session, frames, log, opts.Dispatch)
	resolver := locator.NewResolver(props, saved)

	return &Scenario{
		ID:       id,
		Name:     opts.Name,
		session:  session,
		saved:    saved,
		props:    props,
		repo:     opts.Repository,
		frames:   frames,
		log:      log,
		router:   router,
		resolver: resolver,
		waits: wait.New(router, resolver, wait.Options{
			StandardWait:    opts.StandardWait,
			PollingInterval: opts.PollingInterval,
			Logger:          log,
			Clock:           opts.Clock,
			Variables:       expressionVariables(session, saved),
		}),
	}
}

// expressionVariables exposes the scenario's saved values and platform to
// expression waits as the globals saved and platform.
func expressionVariables(session core.Session, saved *store.SavedValues) func() map[string]interface{} {
	return func() map[string]interface{} {
		values := make(map[string]interface{})
		for _, k := range saved.Keys() {
			v, _ := saved.Get(k)
			values[k] = v
		}
		return map[string]interface{}{
			"saved":    values,
			"platform": session.Platform().String(),
		}
	}
}

func (s *Scenario) Session() core.Session            { return s.session }
func (s *Scenario) Saved() *store.SavedValues        { return s.saved }
func (s *Scenario) Properties() *store.PropertyFiles { return s.props }
func (s *Scenario) Frames() *frame.Recorder          { return s.frames }
func (s *Scenario) Logger() *logger.Logger           { return s.log }
func (s *Scenario) Router() *dispatch.Router         { return s.router }
func (s *Scenario) Resolver() *locator.Resolver      { return s.resolver }

// Waits returns the wait engine for the typed WaitFor helpers.
func (s *Scenario) Waits() *wait.Engine { return s.waits }

// Save stores a value that later ---SavedValue:-:key--- tokens read.
func (s *Scenario) Save(key, value string) {
	s.saved.Set(key, value)
}

// Descriptor turns a locator target into a descriptor without resolving it.
func (s *Scenario) Descriptor(target interface{}) (locator.Descriptor, error) {
	return ParseTarget(s.repo, target)
}

// ParseTarget turns a locator target into a descriptor. target is a
// locator.Descriptor, a *locator.Descriptor, a "strategy:value" string or,
// when repo is not nil, a "page.name" reference.
func ParseTarget(repo *locator.Repository, target interface{}) (locator.Descriptor, error) {
	switch t := target.(type) {
	case locator.Descriptor:
		return t, nil
	case *locator.Descriptor:
		if t == nil {
			return locator.Descriptor{}, core.ErrInvalidLocator.WithMessage("nil locator")
		}
		return *t, nil
	case string:
		if repo != nil {
			if d, err := repo.Lookup(t); err == nil {
				return d, nil
			}
		}
		return locator.Parse(t)
	default:
		return locator.Descriptor{}, core.ErrInvalidLocator.WithMessagef("unsupported locator type %T", target)
	}
}

// Resolve substitutes parameter tokens in target and returns the concrete
// descriptor. The session is not touched.
func (s *Scenario) Resolve(target interface{}) (locator.Descriptor, error) {
	d, err := s.Descriptor(target)
	if err != nil {
		return locator.Descriptor{}, err
	}
	return s.resolver.ResolveDescriptor(d)
}

// ResolveLocator resolves target and finds the first matching element.
func (s *Scenario) ResolveLocator(target interface{}) (*dispatch.Handle, error) {
	d, err := s.Resolve(target)
	if err != nil {
		s.fail(target, err)
		return nil, err
	}
	h, err := s.router.Single(d)
	if err != nil {
		s.fail(target, err)
		return nil, err
	}
	return h, nil
}

// ResolveLocators resolves target and finds every matching element.
func (s *Scenario) ResolveLocators(target interface{}) (*dispatch.Handles, error) {
	d, err := s.Resolve(target)
	if err != nil {
		s.fail(target, err)
		return nil, err
	}
	hs, err := s.router.Many(d)
	if err != nil {
		s.fail(target, err)
		return nil, err
	}
	return hs, nil
}

// Await blocks until cond holds or timeout elapses.
func (s *Scenario) Await(cond wait.Condition, timeout time.Duration) (*wait.Result, error) {
	return s.waits.Await(cond, timeout)
}

func (s *Scenario) fail(target interface{}, err error) {
	s.log.Write(logger.LevelError, logger.IconFailure, "Could not resolve locator",
		zap.String("locator", fmt.Sprint(target)), zap.Error(err))
}
