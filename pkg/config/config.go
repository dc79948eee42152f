// Package config handles configuration for locator-runner.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/devicelab-dev/locator-runner/pkg/core"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g.
// LOCATOR_RUNNER_STANDARD_WAIT_TIME_SECONDS=10.
const EnvPrefix = "LOCATOR_RUNNER"

// Config represents the workspace configuration (config.yaml).
type Config struct {
	// Session settings
	Platform     string                 `mapstructure:"platform" yaml:"platform"`     // web, hybrid, android, ios
	ServerURL    string                 `mapstructure:"server_url" yaml:"server_url"` // WebDriver/Appium endpoint
	Capabilities map[string]interface{} `mapstructure:"-" yaml:"capabilities"`        // Session capabilities, case preserved
	Workers      int                    `mapstructure:"workers" yaml:"workers"`       // Parallel scenario sessions

	// Wait settings
	StandardWaitTimeSeconds float64 `mapstructure:"standard_wait_time_seconds" yaml:"standard_wait_time_seconds"`
	PollingIntervalSeconds  float64 `mapstructure:"polling_interval_seconds" yaml:"polling_interval_seconds"`

	// Locator settings
	PropertiesDir string            `mapstructure:"properties_dir" yaml:"properties_dir"` // Where <namespace>.properties live
	Repository    string            `mapstructure:"repository" yaml:"repository"`         // Optional page-object locator file
	Saved         map[string]string `mapstructure:"saved" yaml:"saved"`                   // Saved values seeded into every scenario

	Reactive ReactiveConfig `mapstructure:"reactive" yaml:"reactive"`
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
}

// ReactiveConfig configures lookups on hybrid (reactive framework) pages.
type ReactiveConfig struct {
	RootSelector    string `mapstructure:"root_selector" yaml:"root_selector"`         // Element the finder scripts search under
	WaitForRequests bool   `mapstructure:"wait_for_requests" yaml:"wait_for_requests"` // Let pending framework requests settle first
}

// LoggerConfig configures the zap logger.
type LoggerConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"` // console or json
	File       string `mapstructure:"file" yaml:"file"`     // Optional rotated JSON log file
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("platform", string(core.PlatformWeb))
	v.SetDefault("server_url", "http://127.0.0.1:4444")
	v.SetDefault("workers", 1)

	v.SetDefault("standard_wait_time_seconds", 5)
	v.SetDefault("polling_interval_seconds", 1)

	v.SetDefault("properties_dir", ".")
	v.SetDefault("repository", "")
	v.SetDefault("saved", map[string]string{})

	v.SetDefault("reactive.root_selector", "body")
	v.SetDefault("reactive.wait_for_requests", true)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", false)
}

// NewViper returns a viper instance with defaults and environment overrides.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Default returns the configuration built from defaults and environment only.
func Default() (*Config, error) {
	return FromViper(NewViper())
}

// FromViper creates a validated configuration from a viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	v := NewViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg, err := FromViper(v)
	if err != nil {
		return nil, err
	}

	// viper lowercases map keys; capability names and saved keys are case sensitive
	if err := readCaseSensitive(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readCaseSensitive(path string, cfg *Config) error {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return err
	}
	var raw struct {
		Capabilities map[string]interface{} `yaml:"capabilities"`
		Saved        map[string]string      `yaml:"saved"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	cfg.Capabilities = raw.Capabilities
	if raw.Saved != nil {
		cfg.Saved = raw.Saved
	}
	return nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	// Try config.yaml first
	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// Try config.yml
	configPath = filepath.Join(dir, "config.yml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// No config file found, return defaults
	return Default()
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if _, err := core.ParsePlatform(c.Platform); err != nil {
		return err
	}
	if c.PollingIntervalSeconds <= 0 {
		return core.ErrInvalidConfig.WithMessage("polling_interval_seconds must be positive")
	}
	if c.StandardWaitTimeSeconds < 0 {
		return core.ErrInvalidConfig.WithMessage("standard_wait_time_seconds must not be negative")
	}
	if c.Workers <= 0 {
		return core.ErrInvalidConfig.WithMessage("workers must be a positive integer")
	}
	return nil
}

// ActivePlatform returns the parsed platform. Validate has already checked it.
func (c *Config) ActivePlatform() core.Platform {
	p, err := core.ParsePlatform(c.Platform)
	if err != nil {
		return core.PlatformWeb
	}
	return p
}

// StandardWait returns the default wait timeout.
func (c *Config) StandardWait() time.Duration {
	return seconds(c.StandardWaitTimeSeconds)
}

// PollingInterval returns the pause between condition samples.
func (c *Config) PollingInterval() time.Duration {
	return seconds(c.PollingIntervalSeconds)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
