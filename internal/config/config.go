// Package config loads runner configuration: defaults, then an optional YAML
// file, then E2EREPORT_* environment variables. CLI flags are applied last by
// the cli package.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/Pochyxi/e2ereport/internal/workspace"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "e2ereport.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "E2EREPORT_"

// Supported driver backends.
const (
	DriverPlaywright = "playwright"
	DriverChromedp   = "chromedp"
)

// Viewport is the browser window size every test case is registered with.
type Viewport struct {
	Width  int `yaml:"width" env:"WIDTH"`
	Height int `yaml:"height" env:"HEIGHT"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Config is the full runner configuration.
type Config struct {
	Project     string `yaml:"project" env:"PROJECT"`
	SuitesDir   string `yaml:"suites_dir" env:"SUITES_DIR"`
	FixturesDir string `yaml:"fixtures_dir" env:"FIXTURES_DIR"`
	ReportsDir  string `yaml:"reports_dir" env:"REPORTS_DIR"`
	TracesDir   string `yaml:"traces_dir" env:"TRACES_DIR"`
	ArchiveDir  string `yaml:"archive_dir" env:"ARCHIVE_DIR"`
	LogsDir     string `yaml:"logs_dir" env:"LOGS_DIR"`

	Viewport    Viewport      `yaml:"viewport" envPrefix:"VIEWPORT_"`
	StepTimeout time.Duration `yaml:"step_timeout" env:"STEP_TIMEOUT"`

	Driver        string   `yaml:"driver" env:"DRIVER"`
	Headed        bool     `yaml:"headed" env:"HEADED"`
	ShowDashboard bool     `yaml:"show_dashboard" env:"SHOW_DASHBOARD"`
	ViewerCommand []string `yaml:"viewer_command" env:"VIEWER_COMMAND" envSeparator:" "`

	// LegacyVerdict forces every report verdict to PASSED regardless of the
	// scenario outcome.
	LegacyVerdict bool `yaml:"legacy_verdict" env:"LEGACY_VERDICT"`

	HistoryDB string `yaml:"history_db" env:"HISTORY_DB"`
	Journal   string `yaml:"journal" env:"JOURNAL"`

	Log LogConfig `yaml:"log" envPrefix:"LOG_"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		SuitesDir:     "test-suites",
		FixturesDir:   "storageConfig",
		ReportsDir:    "PDFReports",
		TracesDir:     "test-results",
		ArchiveDir:    "TracesReports",
		LogsDir:       "logs",
		Viewport:      Viewport{Width: 1280, Height: 720},
		StepTimeout:   30 * time.Second,
		Driver:        DriverPlaywright,
		ViewerCommand: []string{"npx", "playwright", "show-trace"},
		HistoryDB:     filepath.Join(".e2ereport", "history.db"),
		Journal:       filepath.Join(".e2ereport", "journal.jsonl"),
		Log:           LogConfig{Level: "debug", Format: "text"},
	}
}

// Load builds a Config from defaults, the YAML file at path and the
// environment. A missing file is not an error unless required is set.
func Load(path string, required bool) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Project) == "" {
		return errors.New("project is required (set it in the config file, E2EREPORT_PROJECT or --project)")
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("viewport must be positive, got %dx%d", c.Viewport.Width, c.Viewport.Height)
	}
	if c.StepTimeout <= 0 {
		return fmt.Errorf("step_timeout must be positive, got %s", c.StepTimeout)
	}
	switch c.Driver {
	case DriverPlaywright, DriverChromedp:
	default:
		return fmt.Errorf("unknown driver %q (want %s or %s)", c.Driver, DriverPlaywright, DriverChromedp)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}
	return nil
}

// SuitePath is the scenario file for the configured project.
func (c Config) SuitePath() string {
	return filepath.Join(c.SuitesDir, c.Project+".json")
}

// Dirs returns the workspace layout described by the config.
func (c Config) Dirs() workspace.Dirs {
	return workspace.Dirs{
		Suites:   c.SuitesDir,
		Fixtures: c.FixturesDir,
		Reports:  c.ReportsDir,
		Traces:   c.TracesDir,
		Archive:  c.ArchiveDir,
		Logs:     c.LogsDir,
	}
}

// YAML renders the config as a YAML document, used by `init`.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
