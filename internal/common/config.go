package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Storage     StorageConfig   `toml:"storage"`
	Artifacts   ArtifactsConfig `toml:"artifacts"`
	Browser     BrowserConfig   `toml:"browser"`
	Execution   ExecutionConfig `toml:"execution"`
	Resolver    ResolverConfig  `toml:"resolver"`
	History     HistoryConfig   `toml:"history"`
	Report      ReportConfig    `toml:"report"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Logging     LoggingConfig   `toml:"logging"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// ArtifactsConfig holds the on-disk artifact directory layout
type ArtifactsConfig struct {
	ResultsDir     string `toml:"results_dir"`
	FixedRoutesDir string `toml:"fixed_routes_dir"`
	ScreenshotsDir string `toml:"screenshots_dir"`
	SnapshotsDir   string `toml:"snapshots_dir"`
	ReportsDir     string `toml:"reports_dir"`
}

// BrowserConfig controls the Chrome session the routes run against
type BrowserConfig struct {
	Headless     string `toml:"headless"`   // "true" or "false"; string so env override is uniform
	NoSandbox    bool   `toml:"no_sandbox"` // Required in most container environments
	UserAgent    string `toml:"user_agent"`
	WindowWidth  int    `toml:"window_width"`
	WindowHeight int    `toml:"window_height"`
	StepTimeout  string `toml:"step_timeout"` // e.g. "5s" - per browser operation
	WaitTimeout  string `toml:"wait_timeout"` // e.g. "10s" - selector/URL waits
}

// ExecutionConfig controls step and batch execution
type ExecutionConfig struct {
	ScreenshotOnSuccess bool   `toml:"screenshot_on_success"` // Failures are always captured
	RoutePause          string `toml:"route_pause"`           // Pause between routes in a batch, e.g. "1s"
}

// ResolverConfig tunes the element resolution tiers
type ResolverConfig struct {
	OverridesFile string `toml:"overrides_file"` // YAML manual override table; empty uses built-ins
	PatternWait   string `toml:"pattern_wait"`   // Per-candidate visibility wait, e.g. "2s"
	RetryDelay    string `toml:"retry_delay"`    // Delay before the final direct retry, e.g. "3s"
	Mobile        bool   `toml:"mobile"`         // Narrow-viewport device context
}

// HistoryConfig tunes the duplicate-run guard
type HistoryConfig struct {
	DuplicateWindow string `toml:"duplicate_window"` // Cool-down window, e.g. "30m"
}

// ReportConfig controls batch report output
type ReportConfig struct {
	PDF bool `toml:"pdf"` // Also render the Markdown report as PDF
}

// SchedulerConfig controls recurring batch execution
type SchedulerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron schedule format
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:           "./data/proba.db",
				ResetOnStartup: false,
			},
		},
		Artifacts: ArtifactsConfig{
			ResultsDir:     "./results",
			FixedRoutesDir: "./fixed_routes",
			ScreenshotsDir: "./results/screenshots",
			SnapshotsDir:   "./results/snapshots",
			ReportsDir:     "./reports",
		},
		Browser: BrowserConfig{
			Headless:     "true",
			NoSandbox:    false,
			WindowWidth:  1280,
			WindowHeight: 900,
			StepTimeout:  "5s",
			WaitTimeout:  "10s",
		},
		Execution: ExecutionConfig{
			ScreenshotOnSuccess: false,
			RoutePause:          "1s",
		},
		Resolver: ResolverConfig{
			PatternWait: "2s",
			RetryDelay:  "3s",
			Mobile:      false,
		},
		History: HistoryConfig{
			DuplicateWindow: "30m",
		},
		Report: ReportConfig{
			PDF: false,
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,
			Schedule: "@hourly",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05.000",
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files; later files override
// earlier files, environment variables override everything in the files
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PROBA_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if path := os.Getenv("PROBA_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}
	if reset := os.Getenv("PROBA_BADGER_RESET"); reset != "" {
		if v, err := strconv.ParseBool(reset); err == nil {
			config.Storage.Badger.ResetOnStartup = v
		}
	}

	if dir := os.Getenv("PROBA_RESULTS_DIR"); dir != "" {
		config.Artifacts.ResultsDir = dir
	}
	if dir := os.Getenv("PROBA_FIXED_ROUTES_DIR"); dir != "" {
		config.Artifacts.FixedRoutesDir = dir
	}

	if headless := os.Getenv("PROBA_BROWSER_HEADLESS"); headless != "" {
		config.Browser.Headless = headless
	}
	if sandbox := os.Getenv("PROBA_BROWSER_NO_SANDBOX"); sandbox != "" {
		if v, err := strconv.ParseBool(sandbox); err == nil {
			config.Browser.NoSandbox = v
		}
	}
	if timeout := os.Getenv("PROBA_STEP_TIMEOUT"); timeout != "" {
		config.Browser.StepTimeout = timeout
	}
	if timeout := os.Getenv("PROBA_WAIT_TIMEOUT"); timeout != "" {
		config.Browser.WaitTimeout = timeout
	}

	if pause := os.Getenv("PROBA_ROUTE_PAUSE"); pause != "" {
		config.Execution.RoutePause = pause
	}
	if overrides := os.Getenv("PROBA_OVERRIDES_FILE"); overrides != "" {
		config.Resolver.OverridesFile = overrides
	}
	if mobile := os.Getenv("PROBA_RESOLVER_MOBILE"); mobile != "" {
		if v, err := strconv.ParseBool(mobile); err == nil {
			config.Resolver.Mobile = v
		}
	}

	if window := os.Getenv("PROBA_DUPLICATE_WINDOW"); window != "" {
		config.History.DuplicateWindow = window
	}

	if schedule := os.Getenv("PROBA_SCHEDULE"); schedule != "" {
		config.Scheduler.Schedule = schedule
		config.Scheduler.Enabled = true
	}

	if level := os.Getenv("PROBA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("PROBA_LOG_OUTPUT"); output != "" {
		config.Logging.Output = strings.Split(output, ",")
	}
}

// Validate checks the parseable fields so a bad value fails at startup
// instead of mid-run
func (c *Config) Validate() error {
	for name, value := range map[string]string{
		"browser.step_timeout":     c.Browser.StepTimeout,
		"browser.wait_timeout":     c.Browser.WaitTimeout,
		"execution.route_pause":    c.Execution.RoutePause,
		"resolver.pattern_wait":    c.Resolver.PatternWait,
		"resolver.retry_delay":     c.Resolver.RetryDelay,
		"history.duplicate_window": c.History.DuplicateWindow,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration for %s: %q", name, value)
		}
	}

	if c.Scheduler.Enabled {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.Scheduler.Schedule); err != nil {
			return fmt.Errorf("invalid scheduler.schedule %q: %w", c.Scheduler.Schedule, err)
		}
	}

	return nil
}

// Duration parses a duration field, falling back when empty or invalid
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// IsHeadless interprets the browser.headless field, defaulting to headless
func (c *Config) IsHeadless() bool {
	v, err := strconv.ParseBool(c.Browser.Headless)
	if err != nil {
		return true
	}
	return v
}
