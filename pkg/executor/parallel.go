package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devicelab-dev/locator-runner/pkg/core"
	"golang.org/x/sync/errgroup"
)

// Worker is one session that scenarios are run on.
type Worker struct {
	ID      int
	Session core.Session
	Cleanup func() // Called once the queue is drained; may be nil
}

// workItem represents a spec and its index in the original spec list.
type workItem struct {
	spec  Spec
	index int
}

var errStopOnFail = errors.New("stopping after failed scenario")

// ParallelRunner runs scenarios across several sessions. Every worker owns
// its session; scenarios never share one.
type ParallelRunner struct {
	workers []Worker
	config  RunnerConfig
}

// NewParallelRunner creates a parallel runner with one worker per session.
func NewParallelRunner(workers []Worker, config RunnerConfig) *ParallelRunner {
	return &ParallelRunner{
		workers: workers,
		config:  config,
	}
}

// Run executes specs using a work queue pattern. All workers pull from the
// same queue until it is empty. Cancelling ctx stops workers from picking up
// more specs; scenarios already running finish. Specs never picked up are
// reported as skipped.
func (pr *ParallelRunner) Run(ctx context.Context, specs []Spec) (*RunResult, error) {
	if len(pr.workers) == 0 {
		return nil, fmt.Errorf("no workers available")
	}
	start := time.Now()

	// Create work queue with spec indices
	workQueue := make(chan workItem, len(specs))
	for i, s := range specs {
		workQueue <- workItem{spec: s, index: i}
	}
	close(workQueue)

	results := make([]ScenarioResult, len(specs))
	done := make([]bool, len(specs))
	total := len(specs)

	g, gctx := errgroup.WithContext(ctx)
	for i := range pr.workers {
		w := pr.workers[i]
		g.Go(func() error {
			if w.Cleanup != nil {
				defer w.Cleanup()
			}
			for {
				if gctx.Err() != nil {
					return nil
				}
				item, ok := <-workQueue
				if !ok {
					return nil
				}
				// Each index is written by exactly one worker
				results[item.index] = runScenario(ctx, w.Session, pr.config, item.spec, item.index, total)
				done[item.index] = true
				if pr.config.StopOnFail && results[item.index].Status != core.StatusPassed {
					return errStopOnFail
				}
			}
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, errStopOnFail) {
		return nil, err
	}

	for i := range specs {
		if !done[i] {
			results[i] = skipped(specs[i])
		}
	}
	return buildRunResult(results, time.Since(start)), nil
}
