// Package cli provides the command-line interface for locator-runner.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/devicelab-dev/locator-runner/pkg/logger"
	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config.yaml (default: ./config.yaml when present)",
		EnvVars: []string{"LOCATOR_RUNNER_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "platform",
		Aliases: []string{"p"},
		Usage:   "Platform to run on (web, hybrid, android, ios)",
		EnvVars: []string{"LOCATOR_RUNNER_PLATFORM"},
	},
	&cli.StringFlag{
		Name:    "server-url",
		Usage:   "WebDriver or Appium server URL",
		EnvVars: []string{"LOCATOR_RUNNER_SERVER_URL"},
	},
	&cli.StringFlag{
		Name:    "caps",
		Usage:   "JSON file with session capabilities",
		EnvVars: []string{"LOCATOR_RUNNER_CAPS"},
	},
	&cli.StringFlag{
		Name:    "properties-dir",
		Usage:   "Directory holding <namespace>.properties files",
		EnvVars: []string{"LOCATOR_RUNNER_PROPERTIES_DIR"},
	},
	&cli.StringFlag{
		Name:    "repository",
		Aliases: []string{"r"},
		Usage:   "YAML page-object file; its page.name references can be used as locators",
		EnvVars: []string{"LOCATOR_RUNNER_REPOSITORY"},
	},
	&cli.Float64Flag{
		Name:    "wait-time",
		Usage:   "Standard wait time in seconds",
		EnvVars: []string{"LOCATOR_RUNNER_STANDARD_WAIT_TIME_SECONDS"},
	},
	&cli.Float64Flag{
		Name:    "polling-interval",
		Usage:   "Seconds between two evaluations of a wait condition",
		EnvVars: []string{"LOCATOR_RUNNER_POLLING_INTERVAL_SECONDS"},
	},
	&cli.IntFlag{
		Name:    "workers",
		Usage:   "Sessions opened in parallel by the find command",
		EnvVars: []string{"LOCATOR_RUNNER_WORKERS"},
	},
	&cli.StringSliceFlag{
		Name:    "saved",
		Aliases: []string{"s"},
		Usage:   "Saved value available to ---SavedValue:-:key--- tokens (KEY=VALUE)",
	},
	&cli.StringFlag{
		Name:    "log-file",
		Usage:   "Also write JSON logs to this file (rotated)",
		EnvVars: []string{"LOCATOR_RUNNER_LOG_FILE"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"LOCATOR_RUNNER_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// NewApp builds the CLI application writing command output to out.
func NewApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:    "locator-runner",
		Usage:   "Resolve locators and wait for elements on web and mobile sessions",
		Version: Version,
		Description: `locator-runner resolves parameterized locators, dispatches them to the
lookup mechanism of the active platform and waits for element conditions.

Examples:
  locator-runner resolve "xpath://button[text()='---login:-:submit---']"
  locator-runner --platform android check pages.yaml
  locator-runner --server-url http://127.0.0.1:4444 find "css:.row" "id:total"
  locator-runner --platform ios wait visible "accessibility_id:Continue"`,
		Flags:  GlobalFlags,
		Writer: out,
		Before: func(c *cli.Context) error {
			if c.Bool("no-ansi") {
				colorsEnabled = false
			}
			return nil
		},
		After: func(*cli.Context) error {
			logger.Close()
			return nil
		},
		Commands: []*cli.Command{
			resolveCommand,
			checkCommand,
			findCommand,
			waitCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
