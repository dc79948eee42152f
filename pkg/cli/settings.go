package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/devicelab-dev/locator-runner/pkg/config"
	"github.com/devicelab-dev/locator-runner/pkg/core"
	appiumdriver "github.com/devicelab-dev/locator-runner/pkg/driver/appium"
	seleniumdriver "github.com/devicelab-dev/locator-runner/pkg/driver/selenium"
	"github.com/devicelab-dev/locator-runner/pkg/executor"
	"github.com/devicelab-dev/locator-runner/pkg/locator"
	"github.com/devicelab-dev/locator-runner/pkg/logger"
	"github.com/urfave/cli/v2"
)

// RunConfig holds the settings of one CLI invocation: the workspace config
// with flag overrides applied, plus what was loaded from the files it names.
type RunConfig struct {
	Config       *config.Config
	Capabilities map[string]interface{}
	Repository   *locator.Repository
	Logger       *logger.Logger
}

// loadRunConfig reads the workspace config and applies global flag overrides.
func loadRunConfig(c *cli.Context) (*RunConfig, error) {
	var cfg *config.Config
	var err error
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if c.IsSet("platform") {
		cfg.Platform = c.String("platform")
	}
	if c.IsSet("server-url") {
		cfg.ServerURL = c.String("server-url")
	}
	if c.IsSet("properties-dir") {
		cfg.PropertiesDir = c.String("properties-dir")
	}
	if c.IsSet("repository") {
		cfg.Repository = c.String("repository")
	}
	if c.IsSet("wait-time") {
		cfg.StandardWaitTimeSeconds = c.Float64("wait-time")
	}
	if c.IsSet("polling-interval") {
		cfg.PollingIntervalSeconds = c.Float64("polling-interval")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("log-file") {
		cfg.Logger.File = c.String("log-file")
	}
	if c.Bool("verbose") {
		cfg.Logger.Level = "debug"
	}

	saved, err := parseKeyValues(c.StringSlice("saved"))
	if err != nil {
		return nil, err
	}
	merged := make(map[string]string, len(cfg.Saved)+len(saved))
	for k, v := range cfg.Saved {
		merged[k] = v
	}
	for k, v := range saved {
		merged[k] = v
	}
	cfg.Saved = merged

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rc := &RunConfig{Config: cfg, Capabilities: cloneCapabilities(cfg.Capabilities)}
	if capsFile := c.String("caps"); capsFile != "" {
		caps, err := loadCapabilities(capsFile)
		if err != nil {
			return nil, err
		}
		for k, v := range caps {
			rc.Capabilities[k] = v
		}
	}
	if cfg.Repository != "" {
		if rc.Repository, err = locator.LoadRepository(cfg.Repository); err != nil {
			return nil, err
		}
	}

	if err := logger.Init(cfg.Logger, nil); err != nil {
		return nil, err
	}
	rc.Logger = logger.L()
	return rc, nil
}

// ScenarioOptions returns the options every scenario of this run starts from.
func (rc *RunConfig) ScenarioOptions() executor.Options {
	opts := executor.OptionsFromConfig(rc.Config, rc.Logger)
	opts.Repository = rc.Repository
	return opts
}

// openSession connects to the configured server. Tests replace it.
var openSession = func(rc *RunConfig) (core.Session, func(), error) {
	platform := rc.Config.ActivePlatform()
	caps := cloneCapabilities(rc.Capabilities)

	if platform.IsMobile() {
		s, err := appiumdriver.Connect(rc.Config.ServerURL, caps, platform)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Quit() }, nil
	}
	s, err := seleniumdriver.Connect(rc.Config.ServerURL, caps, platform)
	if err != nil {
		return nil, nil, err
	}
	return s, func() { _ = s.Quit() }, nil
}

// parseKeyValues parses KEY=VALUE pairs. The value may contain '='.
func parseKeyValues(pairs []string) (map[string]string, error) {
	result := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, core.ErrInvalidConfig.WithMessagef("saved value %q must be KEY=VALUE", p)
		}
		result[key] = value
	}
	return result, nil
}

// loadCapabilities loads session capabilities from a JSON file.
func loadCapabilities(capsFile string) (map[string]interface{}, error) {
	data, err := os.ReadFile(capsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read caps file: %w", err)
	}

	var caps map[string]interface{}
	if err := json.Unmarshal(data, &caps); err != nil {
		return nil, fmt.Errorf("failed to parse caps JSON: %w", err)
	}
	return caps, nil
}

func cloneCapabilities(caps map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(caps))
	for k, v := range caps {
		out[k] = v
	}
	return out
}
