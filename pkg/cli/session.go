package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/devicelab-dev/locator-runner/pkg/core"
	"github.com/devicelab-dev/locator-runner/pkg/executor"
	"github.com/devicelab-dev/locator-runner/pkg/jsengine"
	"github.com/devicelab-dev/locator-runner/pkg/locator"
	"github.com/devicelab-dev/locator-runner/pkg/wait"
	"github.com/urfave/cli/v2"
)

var findCommand = &cli.Command{
	Name:      "find",
	Usage:     "Find the elements matching one or more locators on a live session",
	ArgsUsage: "<locator>...",
	Description: `Every locator runs as its own scenario. Up to --workers sessions are
opened and share the locators between them.

Examples:
  locator-runner find "css:.cart-row"
  locator-runner --workers 2 find "id:total" "repeater:item in cart.items"`,
	Action: runFind,
}

var waitCommand = &cli.Command{
	Name:      "wait",
	Usage:     "Wait for an element condition on a live session",
	ArgsUsage: "<condition> [locator] [value...]",
	Description: `Conditions:
  present, visible, clickable, invisible, selected   <locator>
  list-present, list-visible                         <locator>
  text                                               <locator> <text>
  attr-equals, attr-contains                         <locator> <attribute> <value>
  expression                                         <locator> <js-expression>
  alert

Examples:
  locator-runner wait visible "id:submit"
  locator-runner wait --timeout 10 text "css:.status" "Done"
  locator-runner wait expression "id:count" "parseInt(text) > 3"`,
	Flags: []cli.Flag{
		&cli.Float64Flag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "Timeout in seconds (default: the standard wait time)",
		},
	},
	Action: runWait,
}

func runFind(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("at least one locator is required")
	}
	rc, err := loadRunConfig(c)
	if err != nil {
		return err
	}
	locators := c.Args().Slice()

	n := rc.Config.Workers
	if n > len(locators) {
		n = len(locators)
	}
	workers := make([]executor.Worker, 0, n)
	for i := 0; i < n; i++ {
		s, cleanup, err := openSession(rc)
		if err != nil {
			for _, w := range workers {
				w.Cleanup()
			}
			return err
		}
		workers = append(workers, executor.Worker{ID: i, Session: s, Cleanup: cleanup})
	}

	counts := make([]int, len(locators))
	specs := make([]executor.Spec, len(locators))
	for i, raw := range locators {
		specs[i] = executor.Spec{Name: raw, Run: func(ctx context.Context, sc *executor.Scenario) error {
			hs, err := sc.ResolveLocators(raw)
			if err != nil {
				return err
			}
			counts[i] = hs.Len()
			return nil
		}}
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	result, err := executor.NewParallelRunner(workers, executor.RunnerConfig{Scenario: rc.ScenarioOptions()}).Run(ctx, specs)
	if err != nil {
		return err
	}

	w := c.App.Writer
	for i, res := range result.Results {
		switch res.Status {
		case core.StatusPassed:
			printPass(w, "%s  %d element(s) %s(%s)%s", res.Name, counts[i],
				color(colorGray), formatDuration(res.Duration), color(colorReset))
		case core.StatusSkipped:
			fmt.Fprintf(w, "  %s-%s %s  skipped\n", color(colorCyan), color(colorReset), res.Name)
		default:
			printFail(w, "%s  %v", res.Name, res.Err)
		}
	}
	fmt.Fprintf(w, "\n  %d/%d locators found (%s)\n", result.Passed, result.Total, formatDuration(result.Duration))

	if result.Status != core.StatusPassed || result.Skipped > 0 {
		return fmt.Errorf("%d of %d locators not found", result.Total-result.Passed, result.Total)
	}
	return nil
}

func runWait(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("a condition is required")
	}
	rc, err := loadRunConfig(c)
	if err != nil {
		return err
	}
	cond, err := buildCondition(rc.Repository, c.Args().First(), c.Args().Tail())
	if err != nil {
		return err
	}

	session, cleanup, err := openSession(rc)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := rc.ScenarioOptions()
	opts.Name = "wait " + string(cond.Kind)
	sc := executor.NewScenario(session, opts)

	timeout := sc.Waits().StandardWait()
	if c.IsSet("timeout") {
		timeout = time.Duration(c.Float64("timeout") * float64(time.Second))
	}

	w := c.App.Writer
	res, err := sc.Await(cond, timeout)
	if err != nil {
		printFail(w, "%s", cond)
		return err
	}
	printPass(w, "%s held after %s (%d attempts)", cond, formatDuration(res.Elapsed), res.Attempts)
	switch v := res.Value.(type) {
	case string:
		printField(w, "Value", v)
	case core.Element:
		printField(w, "Element", v.ID())
	case []core.Element:
		printField(w, "Elements", strconv.Itoa(len(v)))
	}
	return nil
}

// buildCondition maps a CLI condition name and its arguments onto a wait condition.
func buildCondition(repo *locator.Repository, kind string, args []string) (wait.Condition, error) {
	k := wait.Kind(strings.ToLower(kind))
	if k == wait.KindAlert {
		if len(args) != 0 {
			return wait.Condition{}, fmt.Errorf("alert condition takes no arguments")
		}
		return wait.AlertPresent(), nil
	}

	arity := map[wait.Kind]int{
		wait.KindPresent:          0,
		wait.KindVisible:          0,
		wait.KindClickable:        0,
		wait.KindInvisible:        0,
		wait.KindSelected:         0,
		wait.KindListPresent:      0,
		wait.KindListVisible:      0,
		wait.KindTextContains:     1,
		wait.KindExpression:       1,
		wait.KindAttributeEquals:  2,
		wait.KindAttributeContain: 2,
	}
	want, ok := arity[k]
	if !ok {
		return wait.Condition{}, fmt.Errorf("unknown condition %q", kind)
	}
	if len(args) != want+1 {
		return wait.Condition{}, fmt.Errorf("%s condition takes a locator and %d value(s), got %d argument(s)", k, want, len(args))
	}

	d, err := executor.ParseTarget(repo, args[0])
	if err != nil {
		return wait.Condition{}, err
	}
	rest := args[1:]

	switch k {
	case wait.KindPresent:
		return wait.Present(d), nil
	case wait.KindVisible:
		return wait.Visible(d), nil
	case wait.KindClickable:
		return wait.Clickable(d), nil
	case wait.KindInvisible:
		return wait.Invisible(d), nil
	case wait.KindSelected:
		return wait.Selected(d), nil
	case wait.KindListPresent:
		return wait.ListPresent(d), nil
	case wait.KindListVisible:
		return wait.ListVisible(d), nil
	case wait.KindTextContains:
		return wait.TextContains(d, rest[0]), nil
	case wait.KindExpression:
		if err := jsengine.Compile(rest[0]); err != nil {
			return wait.Condition{}, err
		}
		return wait.Expression(d, rest[0]), nil
	case wait.KindAttributeEquals:
		return wait.AttributeEquals(d, rest[0], rest[1]), nil
	default:
		return wait.AttributeContains(d, rest[0], rest[1]), nil
	}
}
