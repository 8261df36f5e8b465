// Package config loads the optional docwatch configuration file and the
// environment overrides applied on top of it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/docwatch/internal/errors"
	"git.home.luguber.info/inful/docwatch/internal/retry"
)

// Environment variables read by Load.
const (
	EnvConfig       = "DOCWATCH_CONFIG"
	EnvPollInterval = "DOCWATCH_POLL_INTERVAL"
	EnvViewer       = "DOCWATCH_VIEWER"
	EnvLogLevel     = "DOCWATCH_LOG_LEVEL"
)

// Config is the docwatch configuration.
type Config struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	Viewer       string        `yaml:"viewer"`
	// EditorEnv names the variable a host editor sets when it drives
	// rebuilds itself.
	EditorEnv string          `yaml:"editor_env"`
	FSNotify  bool            `yaml:"fs_notify"`
	ReadRetry ReadRetryConfig `yaml:"read_retry"`
	Log       LogConfig       `yaml:"log"`
	LaTeX     LaTeXConfig     `yaml:"latex"`
	Pandoc    PandocConfig    `yaml:"pandoc"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Notify    NotifyConfig    `yaml:"notify"`
}

// ReadRetryConfig controls how long a watched file that vanished is waited
// for before the session gives up.
type ReadRetryConfig struct {
	Backoff retry.Backoff `yaml:"backoff"`
	Initial time.Duration `yaml:"initial"`
	Max     time.Duration `yaml:"max"`
	Retries int           `yaml:"retries"`
}

// Policy converts the settings into a retry schedule.
func (r ReadRetryConfig) Policy() retry.Policy {
	return retry.Policy{Backoff: r.Backoff, Initial: r.Initial, Max: r.Max, MaxRetries: r.Retries}
}

// LogConfig selects the log verbosity.
type LogConfig struct {
	Level LogLevel `yaml:"level"`
}

// LaTeXConfig holds LaTeX toolchain defaults.
type LaTeXConfig struct {
	Engine    string `yaml:"engine"`
	BackupDir string `yaml:"backup_dir"`
}

// PandocConfig holds pandoc toolchain defaults.
type PandocConfig struct {
	Options []string `yaml:"options"`
}

// MetricsConfig enables the node-exporter textfile.
type MetricsConfig struct {
	Textfile string        `yaml:"textfile"`
	Interval time.Duration `yaml:"interval"`
}

// NotifyConfig enables build notifications over NATS.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		PollInterval: 5 * time.Second,
		Viewer:       "rifle",
		EditorEnv:    "VIM",
		FSNotify:     true,
		ReadRetry:    readRetryDefaults(),
		Log:          LogConfig{Level: LogLevelInfo},
		LaTeX:        LaTeXConfig{Engine: "pdflatex", BackupDir: "~/.latex"},
		Metrics:      MetricsConfig{Interval: 15 * time.Second},
		Notify:       NotifyConfig{Subject: "docwatch.builds"},
	}
}

func readRetryDefaults() ReadRetryConfig {
	p := retry.TransientRead()
	return ReadRetryConfig{Backoff: p.Backoff, Initial: p.Initial, Max: p.Max, Retries: p.MaxRetries}
}

// Path returns the configuration file location and whether it was named
// explicitly through DOCWATCH_CONFIG.
func Path() (string, bool) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, true
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", false
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "docwatch", "config.yaml"), false
}

// Load reads .env files from the working directory, then the configuration
// file, then the environment overrides.
func Load() (*Config, error) {
	loadEnvFiles()
	path, required := Path()
	return LoadFile(path, required)
}

// LoadFile reads path on top of the defaults. A missing file is only an
// error when required is set.
func LoadFile(path string, required bool) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			expanded := os.ExpandEnv(string(data))
			if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
				return nil, derrors.ConfigInvalid(path, fmt.Errorf("parse: %w", err))
			}
		case errors.Is(err, fs.ErrNotExist) && !required:
		default:
			return nil, derrors.ConfigInvalid(path, err)
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, derrors.ConfigInvalid(path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, derrors.ConfigInvalid(path, err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvPollInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPollInterval, err)
		}
		cfg.PollInterval = d
	}
	if v := os.Getenv(EnvViewer); v != "" {
		cfg.Viewer = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = LogLevel(v)
	}
	return nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.Viewer == "" {
		return errors.New("viewer must not be empty")
	}
	if err := c.ReadRetry.Policy().Validate(); err != nil {
		return fmt.Errorf("read_retry: %w", err)
	}
	level, ok := ParseLogLevel(string(c.Log.Level))
	if !ok {
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	c.Log.Level = level
	if c.Metrics.Textfile != "" && c.Metrics.Interval <= 0 {
		return fmt.Errorf("metrics.interval must be positive, got %s", c.Metrics.Interval)
	}
	return nil
}

// HostEditorActive reports whether the editor variable is set, meaning the
// caller is an editor that rebuilds on its own.
func (c *Config) HostEditorActive() bool {
	return c.EditorEnv != "" && os.Getenv(c.EditorEnv) != ""
}
