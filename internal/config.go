package internal

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "TERM_MCP"

// Config holds all server configuration.
type Config struct {
	Shell      ShellConfig
	Exec       ExecConfig
	Validation ValidationConfig
	Log        LogConfig
	Metrics    MetricsConfig
}

// ShellConfig controls how the interactive shell is spawned.
//
// Fields avoid the envconfig tag: a tagged field falls back to the unprefixed
// variable, and $PATH or $TERM must never leak in that way.
type ShellConfig struct {
	Path       string
	Args       []string
	WorkingDir string `split_words:"true"`
	Term       string `default:"dumb"`
	Echo       bool   `default:"false"`
	Cols       int    `default:"200"`
	Rows       int    `default:"50"`
}

// ExecConfig holds the timing parameters of the command executor.
type ExecConfig struct {
	SettleDelay   time.Duration `split_words:"true" default:"200ms"`
	PollInterval  time.Duration `split_words:"true" default:"300ms"`
	FinalDelay    time.Duration `split_words:"true" default:"200ms"`
	Ceiling       time.Duration `default:"20s"`
	IdleThreshold float64       `split_words:"true" default:"1.0"`
	DrainQuiet    time.Duration `split_words:"true" default:"50ms"`
	DrainMax      time.Duration `split_words:"true" default:"1s"`
}

// ValidationConfig bounds tool arguments.
type ValidationConfig struct {
	MaxCommandLength int `split_words:"true" default:"1000"`
	MaxLines         int `split_words:"true" default:"1000"`
	DefaultLines     int `split_words:"true" default:"25"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `default:"info"`
	Development bool   `default:"false"`
}

// MetricsConfig controls the prometheus listener. An empty address disables it.
type MetricsConfig struct {
	Addr string
}

// Load reads configuration from TERM_MCP_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Shell.Path = defaultShell(cfg.Shell.Path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no environment is set.
func Default() *Config {
	return &Config{
		Shell: ShellConfig{
			Path: defaultShell(""),
			Term: "dumb",
			Cols: 200,
			Rows: 50,
		},
		Exec:       DefaultExecConfig(),
		Validation: DefaultValidationConfig(),
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultExecConfig returns the executor timings.
func DefaultExecConfig() ExecConfig {
	return ExecConfig{
		SettleDelay:   200 * time.Millisecond,
		PollInterval:  300 * time.Millisecond,
		FinalDelay:    200 * time.Millisecond,
		Ceiling:       20 * time.Second,
		IdleThreshold: 1.0,
		DrainQuiet:    50 * time.Millisecond,
		DrainMax:      time.Second,
	}
}

// DefaultValidationConfig returns the argument bounds.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MaxCommandLength: 1000,
		MaxLines:         1000,
		DefaultLines:     25,
	}
}

// Validate rejects configurations the executor cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Exec.PollInterval <= 0:
		return fmt.Errorf("poll interval must be positive, got %s", c.Exec.PollInterval)
	case c.Exec.Ceiling <= 0:
		return fmt.Errorf("ceiling must be positive, got %s", c.Exec.Ceiling)
	case c.Exec.IdleThreshold < 0:
		return fmt.Errorf("idle threshold cannot be negative, got %v", c.Exec.IdleThreshold)
	case c.Validation.MaxCommandLength <= 0:
		return fmt.Errorf("max command length must be positive, got %d", c.Validation.MaxCommandLength)
	case c.Validation.DefaultLines < 1 || c.Validation.DefaultLines > c.Validation.MaxLines:
		return fmt.Errorf("default lines %d outside [1, %d]", c.Validation.DefaultLines, c.Validation.MaxLines)
	}
	return nil
}

func defaultShell(shell string) string {
	if shell != "" {
		return shell
	}
	if shell = os.Getenv("SHELL"); shell != "" {
		return shell
	}
	return "/bin/bash"
}
