package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/devicelab-dev/locator-runner/pkg/core"
	"github.com/devicelab-dev/locator-runner/pkg/logger"
	"go.uber.org/zap"
)

// Spec describes one scenario to run.
type Spec struct {
	Name  string
	Saved map[string]string // Merged over the runner's seed values
	Run   func(ctx context.Context, sc *Scenario) error
}

// RunnerConfig configures the scenario runners.
type RunnerConfig struct {
	Scenario   Options // Base options for every scenario
	StopOnFail bool    // Stop picking up scenarios after the first failure

	// Progress callbacks. The parallel runner calls them from worker goroutines.
	OnScenarioStart func(idx, total int, name string)
	OnScenarioEnd   func(idx int, result ScenarioResult)
}

// RunResult contains the outcome of a run.
type RunResult struct {
	Status   core.ScenarioStatus
	Total    int
	Passed   int
	Failed   int
	Errored  int
	Skipped  int
	Duration time.Duration
	Results  []ScenarioResult // In input order
}

// ScenarioResult contains the outcome of a single scenario.
type ScenarioResult struct {
	ID       string
	Name     string
	Status   core.ScenarioStatus
	Duration time.Duration
	Err      error
}

// Runner runs scenarios one after another on a single session.
type Runner struct {
	session core.Session
	config  RunnerConfig
}

// New creates a new Runner.
func New(session core.Session, cfg RunnerConfig) *Runner {
	return &Runner{session: session, config: cfg}
}

// Run executes specs in order. A cancelled context skips the remaining specs.
func (r *Runner) Run(ctx context.Context, specs []Spec) *RunResult {
	start := time.Now()
	results := make([]ScenarioResult, len(specs))
	stopped := false

	for i, spec := range specs {
		if stopped || ctx.Err() != nil {
			results[i] = skipped(spec)
			continue
		}
		results[i] = runScenario(ctx, r.session, r.config, spec, i, len(specs))
		if r.config.StopOnFail && results[i].Status != core.StatusPassed {
			stopped = true
		}
	}
	return buildRunResult(results, time.Since(start))
}

// runScenario runs spec in a fresh Scenario on session.
func runScenario(ctx context.Context, session core.Session, cfg RunnerConfig, spec Spec, idx, total int) ScenarioResult {
	if cfg.OnScenarioStart != nil {
		cfg.OnScenarioStart(idx, total, spec.Name)
	}

	opts := cfg.Scenario
	opts.Name = spec.Name
	opts.Saved = mergeSaved(cfg.Scenario.Saved, spec.Saved)
	sc := NewScenario(session, opts)

	start := time.Now()
	err := safeRun(ctx, spec, sc)
	result := ScenarioResult{
		ID:       sc.ID,
		Name:     spec.Name,
		Status:   core.StatusFor(err),
		Duration: time.Since(start),
		Err:      err,
	}

	if err != nil {
		sc.Logger().Write(logger.LevelImportant, logger.IconFailure,
			fmt.Sprintf("Scenario %s %s", spec.Name, result.Status), zap.Error(err))
	} else {
		sc.Logger().Write(logger.LevelImportant, logger.IconSuccess,
			fmt.Sprintf("Scenario %s passed", spec.Name))
	}

	if cfg.OnScenarioEnd != nil {
		cfg.OnScenarioEnd(idx, result)
	}
	return result
}

// safeRun turns a panicking scenario into an error so one bad scenario
// does not take down its worker.
func safeRun(ctx context.Context, spec Spec, sc *Scenario) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scenario %q panicked: %v", spec.Name, r)
		}
	}()
	if spec.Run == nil {
		return fmt.Errorf("scenario %q has nothing to run", spec.Name)
	}
	return spec.Run(ctx, sc)
}

func mergeSaved(base, override map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func skipped(spec Spec) ScenarioResult {
	return ScenarioResult{Name: spec.Name, Status: core.StatusSkipped}
}

// buildRunResult aggregates scenario results into a run result.
func buildRunResult(results []ScenarioResult, duration time.Duration) *RunResult {
	result := &RunResult{
		Total:    len(results),
		Results:  results,
		Duration: duration,
	}

	for _, sr := range results {
		switch sr.Status {
		case core.StatusPassed:
			result.Passed++
		case core.StatusFailed:
			result.Failed++
		case core.StatusErrored:
			result.Errored++
		case core.StatusSkipped:
			result.Skipped++
		}
	}

	// Determine overall status
	switch {
	case result.Errored > 0:
		result.Status = core.StatusErrored
	case result.Failed > 0:
		result.Status = core.StatusFailed
	default:
		result.Status = core.StatusPassed // All passed or skipped
	}
	return result
}
