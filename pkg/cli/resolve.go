package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/devicelab-dev/locator-runner/pkg/core"
	"github.com/devicelab-dev/locator-runner/pkg/dispatch"
	"github.com/devicelab-dev/locator-runner/pkg/executor"
	"github.com/devicelab-dev/locator-runner/pkg/locator"
	"github.com/devicelab-dev/locator-runner/pkg/store"
	"github.com/urfave/cli/v2"
)

var resolveCommand = &cli.Command{
	Name:      "resolve",
	Usage:     "Substitute parameters and show how a locator would be looked up",
	ArgsUsage: "<locator>",
	Description: `Resolve runs offline: no session is opened. Parameter tokens are read
from saved values (--saved) and <namespace>.properties files.

Examples:
  locator-runner resolve "id:---login:-:username---"
  locator-runner -p hybrid resolve "model:user.name"
  locator-runner -s user=alice resolve "By.xpath: //td[text()='---SavedValue:-:user---']"`,
	Action: runResolve,
}

var checkCommand = &cli.Command{
	Name:      "check",
	Usage:     "Check that every locator of a page-object file can be dispatched",
	ArgsUsage: "[repository.yaml]",
	Description: `Check plans every locator of the repository for the active platform
without opening a session. The repository defaults to --repository.`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "no-substitute",
			Usage: "Plan raw values; parameter tokens are not resolved",
		},
	},
	Action: runCheck,
}

// offlineResolver reads tokens from the configured backends without a scenario.
func offlineResolver(rc *RunConfig) *locator.Resolver {
	return locator.NewResolver(
		store.NewPropertyFiles(rc.Config.PropertiesDir),
		store.NewSavedValues(rc.Config.Saved),
	)
}

func runResolve(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one locator is required")
	}
	rc, err := loadRunConfig(c)
	if err != nil {
		return err
	}

	d, err := executor.ParseTarget(rc.Repository, c.Args().First())
	if err != nil {
		return err
	}
	resolved, err := offlineResolver(rc).ResolveDescriptor(d)
	if err != nil {
		return err
	}
	lookup, err := dispatch.Plan(rc.Config.ActivePlatform(), resolved, rc.ScenarioOptions().Dispatch)
	if err != nil {
		return err
	}

	w := c.App.Writer
	printField(w, "Locator", d.Describe())
	printField(w, "Resolved", resolved.Describe())
	printField(w, "Strategy", resolved.Strategy.String())
	printField(w, "Platform", lookup.Platform.String())
	printField(w, "Lookup", lookup.String())
	return nil
}

func runCheck(c *cli.Context) error {
	rc, err := loadRunConfig(c)
	if err != nil {
		return err
	}
	repo := rc.Repository
	if c.NArg() > 0 {
		if repo, err = locator.LoadRepository(c.Args().First()); err != nil {
			return err
		}
	}
	if repo == nil {
		return fmt.Errorf("a repository file is required (argument or --repository)")
	}

	platform := rc.Config.ActivePlatform()
	opts := rc.ScenarioOptions().Dispatch
	resolver := offlineResolver(rc)
	names := repo.Names()
	w := c.App.Writer

	fmt.Fprintf(w, "\n  %s%s%s (%s)\n\n", color(colorBold), repo.Path, color(colorReset), platform)
	failed, unsupported := 0, 0
	for _, name := range names {
		d, err := repo.Lookup(name)
		if err == nil {
			if c.Bool("no-substitute") {
				d, err = d.Native()
			} else {
				d, err = resolver.ResolveDescriptor(d)
			}
		}
		var l dispatch.Lookup
		if err == nil {
			l, err = dispatch.Plan(platform, d, opts)
		}
		if err != nil {
			failed++
			if errors.Is(err, core.ErrUnsupportedStrategy) {
				unsupported++
			}
			printFail(w, "%-30s %v", name, err)
			continue
		}
		printPass(w, "%-30s %s", name, l)
	}

	if unsupported > 0 {
		supported := dispatch.Supported(platform)
		tokens := make([]string, len(supported))
		for i, st := range supported {
			tokens[i] = st.Token()
		}
		fmt.Fprintf(w, "\n  %sSupported on %s:%s %s\n", color(colorGray), platform, color(colorReset), strings.Join(tokens, ", "))
	}
	fmt.Fprintf(w, "\n  %d/%d locators can be dispatched on %s\n", len(names)-failed, len(names), platform)
	if failed > 0 {
		return fmt.Errorf("%d of %d locators cannot be dispatched on %s", failed, len(names), platform)
	}
	return nil
}
